package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
)

// CreateContractInput is the payload accepted by ContractService.Create.
type CreateContractInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ContractType string  `json:"contract_type"`
	Terms        string  `json:"terms"`
	ArtistID     *string `json:"artist_id"`
	VenueID      *string `json:"venue_id"`
	BookingID    *string `json:"booking_id"`
}

// ContractService is the entry point for creating, reading and editing
// contracts on behalf of an actor.
type ContractService struct {
	store    *ContractStore
	users    *UserStore
	versions *VersionService
}

func NewContractService(store *ContractStore, users *UserStore, versions *VersionService) *ContractService {
	return &ContractService{store: store, users: users, versions: versions}
}

func validateData(d *model.ContractData) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return invalidInput("title is required")
	}
	if d.Type == "" {
		d.Type = model.TypeRider
	}
	if !model.ValidContractType(d.Type) {
		return invalidInput("unknown contract type %q", d.Type)
	}
	return nil
}

func nonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// Create stores a draft contract and its first version.
func (s *ContractService) Create(ctx context.Context, actor model.Actor, in CreateContractInput) (*model.Contract, error) {
	data := model.ContractData{
		Type:        in.ContractType,
		Title:       in.Title,
		Description: in.Description,
		Terms:       in.Terms,
	}
	if err := validateData(&data); err != nil {
		return nil, err
	}

	c := &model.Contract{
		BookingID: nonEmpty(in.BookingID),
		ArtistID:  nonEmpty(in.ArtistID),
		VenueID:   nonEmpty(in.VenueID),
		Status:    model.StatusDraft,
	}
	c.SetData(data)

	if c.BookingID != nil {
		booking, err := s.users.GetBooking(ctx, *c.BookingID)
		if err != nil {
			return nil, err
		}
		if !actor.IsAdmin() && booking.ArtistID != actor.UserID && booking.VenueID != actor.UserID {
			return nil, fmt.Errorf("create contract for booking %s: %w", booking.ID, ErrForbidden)
		}
		if c.ArtistID == nil && booking.ArtistID != "" {
			c.ArtistID = &booking.ArtistID
		}
		if c.VenueID == nil && booking.VenueID != "" {
			c.VenueID = &booking.VenueID
		}
	}

	if !actor.IsAdmin() {
		switch {
		case actor.Role == model.RoleVenue && c.VenueID == nil:
			c.VenueID = &actor.UserID
		case actor.Role == model.RoleArtist && c.ArtistID == nil:
			c.ArtistID = &actor.UserID
		}
		if !canAccess(c, actor) {
			return nil, fmt.Errorf("create contract: actor is not a party: %w", ErrForbidden)
		}
	}

	err := s.store.Transaction(ctx, func(tx *ContractStore) error {
		if err := tx.Create(ctx, c); err != nil {
			return err
		}
		_, err := appendVersion(ctx, tx, c, c.Snapshot(), actor.DisplayName(), "Initial version")
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "contract created", "contract_id", c.ID, "type", data.Type)
	return c, nil
}

func (s *ContractService) Get(ctx context.Context, actor model.Actor, id string) (*model.Contract, error) {
	return loadForRead(ctx, s.store, actor, id)
}

func (s *ContractService) GetByBooking(ctx context.Context, actor model.Actor, bookingID string) (*model.Contract, error) {
	c, err := s.store.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccess(c, actor) {
		return nil, fmt.Errorf("get contract by booking %s: %w", bookingID, ErrNotFound)
	}
	return c, nil
}

// List returns every contract for admins and the actor's own otherwise.
func (s *ContractService) List(ctx context.Context, actor model.Actor) ([]*model.Contract, error) {
	if actor.IsAdmin() {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByParty(ctx, actor.UserID)
}

// ContentPatch names the content fields an edit changes. Nil fields keep
// their current value.
type ContentPatch struct {
	Title        *string
	Description  *string
	ContractType *string
	Terms        *string
}

// Apply merges the patch onto d.
func (p ContentPatch) Apply(d model.ContractData) model.ContractData {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.ContractType != nil {
		d.Type = *p.ContractType
	}
	if p.Terms != nil {
		d.Terms = *p.Terms
	}
	return d
}

// UpdateContent replaces the contract's content and records a new version.
// Submitting unchanged content returns the contract without a new version.
func (s *ContractService) UpdateContent(ctx context.Context, actor model.Actor, id string, data model.ContractData, summary string) (*model.Contract, *model.ContractVersion, error) {
	if err := validateData(&data); err != nil {
		return nil, nil, err
	}
	return s.editContent(ctx, actor, id, func(model.ContractData) model.ContractData { return data }, summary)
}

// PatchContent is UpdateContent for a partial edit, merged onto the content
// current at the time the edit is applied.
func (s *ContractService) PatchContent(ctx context.Context, actor model.Actor, id string, patch ContentPatch, summary string) (*model.Contract, *model.ContractVersion, error) {
	return s.editContent(ctx, actor, id, patch.Apply, summary)
}

// editContent applies edit to the head read under the contract lock.
func (s *ContractService) editContent(ctx context.Context, actor model.Actor, id string, edit func(model.ContractData) model.ContractData, summary string) (*model.Contract, *model.ContractVersion, error) {
	var updated *model.Contract
	var created *model.ContractVersion
	err := s.versions.withContract(ctx, id, func(tx *ContractStore) error {
		created = nil
		c, err := loadForWrite(ctx, tx, actor, id)
		if err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		data := edit(c.Data())
		if err := validateData(&data); err != nil {
			return err
		}

		snap := model.Snapshot{
			Title:        data.Title,
			Description:  data.Description,
			Terms:        data.Terms,
			ContractType: data.Type,
		}
		diffs := Compare(c.Snapshot(), snap)
		updated = c
		if len(diffs) == 0 {
			return nil
		}
		if !contentEditable(c.Status) {
			return invalidTransition("content of a %s contract cannot change", c.Status)
		}
		msg := summary
		if strings.TrimSpace(msg) == "" {
			msg = Summarize(diffs)
		}
		created, err = appendVersion(ctx, tx, c, snap, actor.DisplayName(), msg)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if created == nil {
		return updated, nil, nil
	}
	logger.Info(ctx, "contract version created", "contract_id", id, "version", created.VersionNumber)
	if updated, err = s.store.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	return updated, created, nil
}

func (s *ContractService) Signatures(ctx context.Context, actor model.Actor, id string) ([]*model.Signature, error) {
	if _, err := loadForRead(ctx, s.store, actor, id); err != nil {
		return nil, err
	}
	return s.store.Signatures(ctx, id)
}
