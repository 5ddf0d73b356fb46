package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"gorm.io/gorm"
)

const versionAllocAttempts = 3

// VersionService keeps the append-only content history of contracts.
type VersionService struct {
	store  *ContractStore
	locker Locker
}

func NewVersionService(store *ContractStore, locker Locker) *VersionService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &VersionService{store: store, locker: locker}
}

// VersionStats summarizes a contract's history.
type VersionStats struct {
	TotalVersions int        `json:"total_versions"`
	LatestVersion int        `json:"latest_version"`
	FirstCreated  *time.Time `json:"first_created,omitempty"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
}

// withContract runs fn in a transaction while holding the contract's lock.
// A duplicate version number can only come from a writer that bypassed the
// lock, so the whole transaction is retried a bounded number of times.
func (s *VersionService) withContract(ctx context.Context, contractID string, fn func(tx *ContractStore) error) error {
	unlock, err := s.locker.Lock(ctx, "contract:"+contractID)
	if err != nil {
		return fmt.Errorf("lock contract %s: %w", contractID, err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err = s.store.Transaction(ctx, fn)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == versionAllocAttempts {
			return err
		}
		logger.Warn(ctx, "version number collision, retrying", "contract_id", contractID, "attempt", attempt)
	}
}

// appendVersion stores snap as the next version of c. It must run inside a
// transaction that holds the row lock on c.
func appendVersion(ctx context.Context, tx *ContractStore, c *model.Contract, snap model.Snapshot, createdBy, summary string) (*model.ContractVersion, error) {
	latest, err := tx.MaxVersionNumber(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	v := &model.ContractVersion{
		ContractID:     c.ID,
		VersionNumber:  latest + 1,
		Title:          snap.Title,
		Description:    snap.Description,
		Terms:          snap.Terms,
		ContractType:   snap.ContractType,
		CreatedBy:      createdBy,
		ChangesSummary: summary,
	}
	if err := tx.InsertVersion(ctx, v); err != nil {
		return nil, err
	}
	if c.Snapshot() != snap {
		if err := tx.UpdateData(ctx, c.ID, snap.ContractData()); err != nil {
			return nil, err
		}
		c.SetData(snap.ContractData())
	}
	return v, nil
}

// CreateVersion appends snap to the contract's history and makes it the
// current content.
func (s *VersionService) CreateVersion(ctx context.Context, actor model.Actor, contractID string, snap model.Snapshot, summary string) (*model.ContractVersion, error) {
	var created *model.ContractVersion
	err := s.withContract(ctx, contractID, func(tx *ContractStore) error {
		c, err := loadForWrite(ctx, tx, actor, contractID)
		if err != nil {
			return err
		}
		if !contentEditable(c.Status) {
			return invalidTransition("content of a %s contract cannot change", c.Status)
		}
		created, err = appendVersion(ctx, tx, c, snap, actor.DisplayName(), summary)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "contract version created",
		"contract_id", contractID,
		"version", created.VersionNumber,
	)
	return created, nil
}

// History returns every version of a contract, oldest first.
func (s *VersionService) History(ctx context.Context, actor model.Actor, contractID string) ([]*model.ContractVersion, error) {
	if _, err := loadForRead(ctx, s.store, actor, contractID); err != nil {
		return nil, err
	}
	return s.store.Versions(ctx, contractID)
}

func (s *VersionService) GetVersion(ctx context.Context, actor model.Actor, contractID string, number int) (*model.ContractVersion, error) {
	if _, err := loadForRead(ctx, s.store, actor, contractID); err != nil {
		return nil, err
	}
	return s.store.GetVersion(ctx, contractID, number)
}

// Compare diffs version from against version to of the same contract.
func (s *VersionService) Compare(ctx context.Context, actor model.Actor, contractID string, from, to int) (*Comparison, error) {
	if _, err := loadForRead(ctx, s.store, actor, contractID); err != nil {
		return nil, err
	}
	v1, err := s.store.GetVersion(ctx, contractID, from)
	if err != nil {
		return nil, err
	}
	v2, err := s.store.GetVersion(ctx, contractID, to)
	if err != nil {
		return nil, err
	}
	return CompareVersions(v1, v2), nil
}

// Rollback restores the content of version number as a new head version.
// Nothing is removed from the history.
func (s *VersionService) Rollback(ctx context.Context, actor model.Actor, contractID string, number int) (*model.ContractVersion, error) {
	var created *model.ContractVersion
	err := s.withContract(ctx, contractID, func(tx *ContractStore) error {
		c, err := loadForWrite(ctx, tx, actor, contractID)
		if err != nil {
			return err
		}
		if !contentEditable(c.Status) {
			return invalidTransition("cannot roll back a %s contract", c.Status)
		}
		target, err := tx.GetVersion(ctx, contractID, number)
		if err != nil {
			return err
		}
		summary := fmt.Sprintf("Rolled back to version %d", number)
		created, err = appendVersion(ctx, tx, c, target.Snapshot(), actor.DisplayName(), summary)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "contract rolled back",
		"contract_id", contractID,
		"target_version", number,
		"new_version", created.VersionNumber,
	)
	return created, nil
}

func (s *VersionService) Stats(ctx context.Context, actor model.Actor, contractID string) (*VersionStats, error) {
	versions, err := s.History(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	stats := &VersionStats{TotalVersions: len(versions)}
	if len(versions) == 0 {
		return stats, nil
	}
	first := versions[0].CreatedAt
	last := versions[len(versions)-1]
	stats.LatestVersion = last.VersionNumber
	stats.FirstCreated = &first
	stats.LastModified = &last.CreatedAt
	return stats, nil
}
