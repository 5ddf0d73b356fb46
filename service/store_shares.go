package service

import (
	"context"
	"fmt"

	"github.com/OlogyCrew/ologywoodv3/model"
)

func (s *ContractStore) CreateShare(ctx context.Context, share *model.ContractShare) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("create share: %w", err)
	}
	return storeErr("create share", db.Create(share).Error)
}

func (s *ContractStore) GetShare(ctx context.Context, id string) (*model.ContractShare, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	var share model.ContractShare
	if err := db.Where("id = ?", id).First(&share).Error; err != nil {
		return nil, storeErr("get share "+id, err)
	}
	return &share, nil
}

func (s *ContractStore) GetShareByToken(ctx context.Context, token string) (*model.ContractShare, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	var share model.ContractShare
	if err := db.Where("token = ?", token).First(&share).Error; err != nil {
		return nil, storeErr("get share by token", err)
	}
	return &share, nil
}

// UpdateShare writes the given columns of a share record.
func (s *ContractStore) UpdateShare(ctx context.Context, id string, fields map[string]any) error {
	db, err := s.conn(ctx)
	if err != nil {
		return fmt.Errorf("update share: %w", err)
	}
	res := db.Model(&model.ContractShare{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeErr("update share", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update share %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *ContractStore) Shares(ctx context.Context, contractID string) ([]*model.ContractShare, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	var shares []*model.ContractShare
	err = db.Where("contract_id = ?", contractID).Order("shared_at ASC").Find(&shares).Error
	if err != nil {
		return nil, storeErr("list shares", err)
	}
	return shares, nil
}
