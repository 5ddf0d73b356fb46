package model

import "time"

// Share statuses
const (
	ShareStatusPending = "pending"
	ShareStatusSent    = "sent"
	ShareStatusFailed  = "failed"
	ShareStatusRevoked = "revoked"
)

// ContractShare tracks one delivery of a contract to an external recipient.
type ContractShare struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ContractID     string     `gorm:"size:36;not null;index" json:"contract_id"`
	Token          string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	SharedBy       string     `json:"shared_by"`
	RecipientEmail string     `gorm:"not null" json:"recipient_email"`
	RecipientName  string     `json:"recipient_name"`
	Message        string     `json:"message,omitempty"`
	Status         string     `gorm:"size:16;not null" json:"status"`
	Error          string     `json:"error,omitempty"`
	SharedAt       time.Time  `json:"shared_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	SignedAt       *time.Time `json:"signed_at,omitempty"`
	Signature      string     `json:"signature,omitempty"`
	RemindersSent  int        `json:"reminders_sent"`
	LastRemindedAt *time.Time `json:"last_reminded_at,omitempty"`
}

// Outstanding reports whether the share still awaits a signature.
func (s *ContractShare) Outstanding(now time.Time) bool {
	if s.Status != ShareStatusSent || s.SignedAt != nil {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

// DaysRemaining returns whole days until expiry, or -1 without an expiry.
func (s *ContractShare) DaysRemaining(now time.Time) int {
	if s.ExpiresAt == nil {
		return -1
	}
	d := s.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + 24*time.Hour - 1) / (24 * time.Hour))
}
