package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OlogyCrew/ologywoodv3/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContractStore persists contracts together with the records they own:
// versions, signatures and shares.
type ContractStore struct {
	db *gorm.DB
}

func NewContractStore(db *gorm.DB) *ContractStore {
	return &ContractStore{db: db}
}

// Transaction runs fn with a store bound to a single database transaction.
func (s *ContractStore) Transaction(ctx context.Context, fn func(tx *ContractStore) error) error {
	if s.db == nil {
		return fmt.Errorf("begin transaction: %w", ErrNotAvailable)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ContractStore{db: tx})
	})
	return err
}

func (s *ContractStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, ErrNotAvailable
	}
	return s.db.WithContext(ctx), nil
}

// Create inserts a contract. Optional references that were not supplied are
// left out of the INSERT instead of being written as NULL.
func (s *ContractStore) Create(ctx context.Context, c *model.Contract) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}

	var omit []string
	if c.BookingID == nil {
		omit = append(omit, "BookingID")
	}
	if c.ArtistID == nil {
		omit = append(omit, "ArtistID")
	}
	if c.VenueID == nil {
		omit = append(omit, "VenueID")
	}
	if len(omit) > 0 {
		db = db.Omit(omit...)
	}
	if err := db.Create(c).Error; err != nil {
		return storeErr("create contract", err)
	}
	slog.Debug("contract created", "contract_id", c.ID, "status", c.Status)
	return nil
}

func (s *ContractStore) Get(ctx context.Context, id string) (*model.Contract, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate loads a contract and locks its row until the surrounding
// transaction ends. Outside a transaction it behaves like Get.
func (s *ContractStore) GetForUpdate(ctx context.Context, id string) (*model.Contract, error) {
	return s.get(ctx, id, true)
}

func (s *ContractStore) get(ctx context.Context, id string, forUpdate bool) (*model.Contract, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c model.Contract
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, storeErr("get contract "+id, err)
	}
	return &c, nil
}

func (s *ContractStore) GetByBookingID(ctx context.Context, bookingID string) (*model.Contract, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contract by booking: %w", err)
	}
	var c model.Contract
	if err := db.Where("booking_id = ?", bookingID).Order("created_at DESC").First(&c).Error; err != nil {
		return nil, storeErr("get contract by booking "+bookingID, err)
	}
	return &c, nil
}

// ListByParty returns the contracts where userID is the artist or the venue.
func (s *ContractStore) ListByParty(ctx context.Context, userID string) ([]*model.Contract, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	var contracts []*model.Contract
	err = db.Where("artist_id = ? OR venue_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, storeErr("list contracts by party", err)
	}
	return contracts, nil
}

func (s *ContractStore) ListAll(ctx context.Context) ([]*model.Contract, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	var contracts []*model.Contract
	if err := db.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, storeErr("list all contracts", err)
	}
	return contracts, nil
}

// UpdateStatus writes a status unconditionally. Transition legality is the
// caller's concern.
func (s *ContractStore) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Contract, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	res := db.Model(&model.Contract{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, storeErr("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update status %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// CompareAndSetStatus moves a contract from one status to another only if it
// is still in the expected status. It reports whether a row changed.
func (s *ContractStore) CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, fmt.Errorf("compare and set status: %w", err)
	}
	res := db.Model(&model.Contract{}).Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, storeErr("compare and set status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateData replaces the current content payload of a contract.
func (s *ContractStore) UpdateData(ctx context.Context, id string, data model.ContractData) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("update contract data: %w", err)
	}
	c := model.Contract{}
	c.SetData(data)
	res := db.Model(&model.Contract{}).Where("id = ?", id).
		Updates(map[string]any{"contract_data": c.ContractData, "updated_at": time.Now()})
	if res.Error != nil {
		return storeErr("update contract data", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update contract data %s: %w", id, ErrNotFound)
	}
	return nil
}

// AssignArtist sets the artist of a contract that has none yet.
func (s *ContractStore) AssignArtist(ctx context.Context, id, artistID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("assign artist: %w", err)
	}
	err = db.Model(&model.Contract{}).Where("id = ? AND artist_id IS NULL", id).
		Updates(map[string]any{"artist_id": artistID, "updated_at": time.Now()}).Error
	return storeErr("assign artist", err)
}

// UnassignArtist clears artistID from the contract if it is still assigned.
func (s *ContractStore) UnassignArtist(ctx context.Context, id, artistID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("unassign artist: %w", err)
	}
	err = db.Model(&model.Contract{}).Where("id = ? AND artist_id = ?", id, artistID).
		Updates(map[string]any{"artist_id": nil, "updated_at": time.Now()}).Error
	return storeErr("unassign artist", err)
}

func (s *ContractStore) AddSignature(ctx context.Context, sig *model.Signature) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("add signature: %w", err)
	}
	if sig.SignedAt.IsZero() {
		sig.SignedAt = time.Now()
	}
	return storeErr("add signature", db.Create(sig).Error)
}

func (s *ContractStore) Signatures(ctx context.Context, contractID string) ([]*model.Signature, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	var sigs []*model.Signature
	err = db.Where("contract_id = ?", contractID).Order("signed_at ASC").Find(&sigs).Error
	if err != nil {
		return nil, storeErr("list signatures", err)
	}
	return sigs, nil
}
