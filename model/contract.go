package model

import (
	"time"

	"gorm.io/datatypes"
)

// ContractData is the substantive content of an agreement.
type ContractData struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Terms       string `json:"terms,omitempty"`
}

// Contract is the current agreement record between an artist and a venue.
// Booking, artist and venue are weak references: nothing cascades from them.
type Contract struct {
	ID           string                           `gorm:"primaryKey;size:36" json:"id"`
	BookingID    *string                          `gorm:"size:36;index" json:"booking_id,omitempty"`
	ArtistID     *string                          `gorm:"size:36;index" json:"artist_id,omitempty"`
	VenueID      *string                          `gorm:"size:36;index" json:"venue_id,omitempty"`
	ContractData datatypes.JSONType[ContractData] `gorm:"not null" json:"contract_data"`
	Status       Status                           `gorm:"size:32;not null;default:draft;index" json:"status"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
}

// Data returns the current content payload.
func (c *Contract) Data() ContractData {
	return c.ContractData.Data()
}

// SetData replaces the current content payload.
func (c *Contract) SetData(d ContractData) {
	c.ContractData = datatypes.NewJSONType(d)
}

// Snapshot captures the versioned part of the current content.
func (c *Contract) Snapshot() Snapshot {
	d := c.Data()
	return Snapshot{
		Title:        d.Title,
		Description:  d.Description,
		Terms:        d.Terms,
		ContractType: d.Type,
	}
}

// IsArtist reports whether userID is the contract's artist.
func (c *Contract) IsArtist(userID string) bool {
	return userID != "" && c.ArtistID != nil && *c.ArtistID == userID
}

// IsVenue reports whether userID is the contract's venue.
func (c *Contract) IsVenue(userID string) bool {
	return userID != "" && c.VenueID != nil && *c.VenueID == userID
}

// Contract types
const (
	TypeRider               = "rider"
	TypeServiceAgreement    = "service_agreement"
	TypePerformanceContract = "performance_contract"
	TypeBookingAgreement    = "booking_agreement"
	TypeOther               = "other"
)

// ValidContractType reports whether t is a known contract type.
func ValidContractType(t string) bool {
	switch t {
	case TypeRider, TypeServiceAgreement, TypePerformanceContract, TypeBookingAgreement, TypeOther:
		return true
	}
	return false
}

// Snapshot is the {title, description, terms, contractType} tuple held by a version.
type Snapshot struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Terms        string `json:"terms"`
	ContractType string `json:"contract_type"`
}

// ContractData converts a snapshot back into a content payload.
func (s Snapshot) ContractData() ContractData {
	return ContractData{
		Type:        s.ContractType,
		Title:       s.Title,
		Description: s.Description,
		Terms:       s.Terms,
	}
}

// ContractVersion is an immutable snapshot of a contract's content.
type ContractVersion struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ContractID     string    `gorm:"size:36;not null;uniqueIndex:idx_contract_version" json:"contract_id"`
	VersionNumber  int       `gorm:"not null;uniqueIndex:idx_contract_version" json:"version_number"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Terms          string    `gorm:"type:text" json:"terms"`
	ContractType   string    `gorm:"size:64" json:"contract_type"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	ChangesSummary string    `json:"changes_summary,omitempty"`
}

// Snapshot returns the content held by the version.
func (v *ContractVersion) Snapshot() Snapshot {
	return Snapshot{
		Title:        v.Title,
		Description:  v.Description,
		Terms:        v.Terms,
		ContractType: v.ContractType,
	}
}

// Signer roles
const (
	SignerArtist = "artist"
	SignerVenue  = "venue"
	SignerAdmin  = "admin"
)

// Signature records that a party signed a contract. Immutable.
type Signature struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ContractID string    `gorm:"size:36;not null;index" json:"contract_id"`
	SignerID   string    `gorm:"size:36;not null" json:"signer_id"`
	SignerName string    `json:"signer_name"`
	SignerRole string    `gorm:"size:16;not null" json:"signer_role"`
	SignedAt   time.Time `json:"signed_at"`
}
