package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (c *Contract) BeforeCreate(*gorm.DB) error        { newID(&c.ID); return nil }
func (v *ContractVersion) BeforeCreate(*gorm.DB) error { newID(&v.ID); return nil }
func (s *Signature) BeforeCreate(*gorm.DB) error       { newID(&s.ID); return nil }
func (s *ContractShare) BeforeCreate(*gorm.DB) error   { newID(&s.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error            { newID(&u.ID); return nil }
func (b *Booking) BeforeCreate(*gorm.DB) error         { newID(&b.ID); return nil }
