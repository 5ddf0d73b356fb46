package model

import "time"

// Roles
const (
	RoleArtist = "artist"
	RoleVenue  = "venue"
	RoleAdmin  = "admin"
	RoleUser   = "user"
)

// User is an account, created or refreshed on OAuth sign-in.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	OpenID       string     `gorm:"size:128;uniqueIndex" json:"open_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `gorm:"size:16;not null;default:user" json:"role"`
	LoginMethod  string     `json:"login_method,omitempty"`
	LastSignedIn *time.Time `json:"last_signed_in,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Booking is looked up when a contract is created for it. Deleting a booking
// never deletes its contract.
type Booking struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ArtistID  string    `gorm:"size:36;index" json:"artist_id"`
	VenueID   string    `gorm:"size:36;index" json:"venue_id"`
	EventDate time.Time `json:"event_date"`
	Status    string    `gorm:"size:32" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// IsAdmin reports whether the actor holds administrative privilege.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DisplayName is used for version authorship and audit fields.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}
