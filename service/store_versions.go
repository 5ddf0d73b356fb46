package service

import (
	"context"
	"fmt"

	"github.com/OlogyCrew/ologywoodv3/model"
)

// MaxVersionNumber returns the highest version number of a contract, 0 if it
// has none.
func (s *ContractStore) MaxVersionNumber(ctx context.Context, contractID string) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("max version: %w", err)
	}
	var latest int
	err = db.Model(&model.ContractVersion{}).
		Where("contract_id = ?", contractID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error
	if err != nil {
		return 0, storeErr("max version", err)
	}
	return latest, nil
}

func (s *ContractStore) InsertVersion(ctx context.Context, v *model.ContractVersion) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return storeErr("insert version", db.Create(v).Error)
}

// Versions returns the history of a contract ordered by version number.
func (s *ContractStore) Versions(ctx context.Context, contractID string) ([]*model.ContractVersion, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	var versions []*model.ContractVersion
	err = db.Where("contract_id = ?", contractID).Order("version_number ASC").Find(&versions).Error
	if err != nil {
		return nil, storeErr("list versions", err)
	}
	return versions, nil
}

func (s *ContractStore) GetVersion(ctx context.Context, contractID string, number int) (*model.ContractVersion, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	var v model.ContractVersion
	err = db.Where("contract_id = ? AND version_number = ?", contractID, number).First(&v).Error
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get version %d of %s", number, contractID), err)
	}
	return &v, nil
}

// LatestVersion returns the head of a contract's history.
func (s *ContractStore) LatestVersion(ctx context.Context, contractID string) (*model.ContractVersion, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	var v model.ContractVersion
	err = db.Where("contract_id = ?", contractID).Order("version_number DESC").First(&v).Error
	if err != nil {
		return nil, storeErr("latest version of "+contractID, err)
	}
	return &v, nil
}
