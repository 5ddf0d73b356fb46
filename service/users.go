package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OlogyCrew/ologywoodv3/model"
	"gorm.io/gorm"
)

// UserStore persists accounts and looks up bookings.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	if s.db == nil {
		return nil, fmt.Errorf("get user: %w", ErrNotAvailable)
	}
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, storeErr("get user "+id, err)
	}
	return &u, nil
}

// Upsert creates the user identified by OpenID or refreshes its profile.
// The role of an existing user is only changed when role is admin.
func (s *UserStore) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	if s.db == nil {
		return nil, fmt.Errorf("upsert user: %w", ErrNotAvailable)
	}
	var out *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.Where("open_id = ?", u.OpenID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(u).Error; err != nil {
				return err
			}
			out = u
			return nil
		}
		if err != nil {
			return err
		}

		fields := map[string]any{"updated_at": time.Now()}
		if u.Name != "" {
			fields["name"] = u.Name
		}
		if u.Email != "" {
			fields["email"] = u.Email
		}
		if u.LoginMethod != "" {
			fields["login_method"] = u.LoginMethod
		}
		if u.LastSignedIn != nil {
			fields["last_signed_in"] = *u.LastSignedIn
		}
		if u.Role == model.RoleAdmin {
			fields["role"] = model.RoleAdmin
		}
		if err := tx.Model(&existing).Updates(fields).Error; err != nil {
			return err
		}
		out = &existing
		return nil
	})
	if err != nil {
		return nil, storeErr("upsert user", err)
	}
	return out, nil
}

func (s *UserStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if s.db == nil {
		return nil, fmt.Errorf("get booking: %w", ErrNotAvailable)
	}
	var b model.Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, storeErr("get booking "+id, err)
	}
	return &b, nil
}

func (s *UserStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if s.db == nil {
		return fmt.Errorf("create booking: %w", ErrNotAvailable)
	}
	return storeErr("create booking", s.db.WithContext(ctx).Create(b).Error)
}
