package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ShareInput describes a recipient of a shared contract.
type ShareInput struct {
	RecipientEmail string     `json:"recipient_email"`
	RecipientName  string     `json:"recipient_name"`
	Message        string     `json:"message"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// SendResult is returned by SendToArtist.
type SendResult struct {
	Success  bool                 `json:"success"`
	Contract *model.Contract      `json:"contract"`
	Share    *model.ContractShare `json:"share"`
}

// SharedContract is what a share link shows its recipient.
type SharedContract struct {
	Share    *model.ContractShare `json:"share"`
	Contract *model.Contract      `json:"contract"`
}

// SharingOptions configures SharingService.
type SharingOptions struct {
	BaseURL          string
	ShareExpiresDays int
}

// SharingService delivers contracts by email and tracks what recipients do
// with them. It also implements Notifier for the transition engine.
type SharingService struct {
	store    *ContractStore
	users    *UserStore
	exporter *PDFExporter
	mailer   Mailer
	archive  DocumentArchive
	opts     SharingOptions
	now      func() time.Time
}

// NewSharingService creates the service. archive may be nil.
func NewSharingService(store *ContractStore, users *UserStore, exporter *PDFExporter, mailer Mailer, archive DocumentArchive, opts SharingOptions) *SharingService {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &SharingService{
		store:    store,
		users:    users,
		exporter: exporter,
		mailer:   mailer,
		archive:  archive,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *SharingService) shareURL(token string) string {
	return s.opts.BaseURL + "/api/public/shares/" + token
}

func validateRecipient(in *ShareInput) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.RecipientEmail))
	if err != nil {
		return invalidInput("invalid recipient email %q", in.RecipientEmail)
	}
	in.RecipientEmail = addr.Address
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	if in.RecipientName == "" {
		in.RecipientName = addr.Name
	}
	if in.RecipientName == "" {
		in.RecipientName = strings.SplitN(addr.Address, "@", 2)[0]
	}
	return nil
}

// Share emails the current contract document to a recipient. On success a
// draft contract moves to pending_signatures. On a delivery failure the share
// is recorded as failed and the contract is left untouched.
func (s *SharingService) Share(ctx context.Context, actor model.Actor, contractID string, in ShareInput) (*model.ContractShare, error) {
	if err := validateRecipient(&in); err != nil {
		return nil, err
	}
	c, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !canAccess(c, actor) {
		return nil, fmt.Errorf("share contract %s: %w", contractID, ErrForbidden)
	}
	if c.Status == model.StatusCancelled || c.Status == model.StatusArchived {
		return nil, invalidTransition("cannot share a %s contract", c.Status)
	}

	share, err := s.deliver(ctx, c, actor, in)
	if err != nil {
		return nil, err
	}

	if c.Status == model.StatusDraft {
		moved, err := s.store.CompareAndSetStatus(ctx, c.ID, model.StatusDraft, model.StatusPendingSignatures)
		if err != nil {
			return nil, err
		}
		if moved {
			logger.Info(ctx, "contract status changed", "contract_id", c.ID, "from", model.StatusDraft, "to", model.StatusPendingSignatures)
		}
	}
	return share, nil
}

// deliver renders the document, records the share and sends the email.
func (s *SharingService) deliver(ctx context.Context, c *model.Contract, sender model.Actor, in ShareInput) (*model.ContractShare, error) {
	ctx, span := tracing.Start(ctx, "contract.deliver", attribute.String("contract.id", c.ID))
	share, err := s.send(ctx, c, sender, in)
	tracing.End(span, err)
	return share, err
}

func (s *SharingService) send(ctx context.Context, c *model.Contract, sender model.Actor, in ShareInput) (*model.ContractShare, error) {
	pdf, doc, err := s.exporter.render(ctx, c)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := in.ExpiresAt
	if expires == nil && s.opts.ShareExpiresDays > 0 {
		t := now.AddDate(0, 0, s.opts.ShareExpiresDays)
		expires = &t
	}
	share := &model.ContractShare{
		ContractID:     c.ID,
		Token:          uuid.NewString(),
		SharedBy:       sender.UserID,
		RecipientEmail: in.RecipientEmail,
		RecipientName:  in.RecipientName,
		Message:        in.Message,
		Status:         model.ShareStatusPending,
		SharedAt:       now,
		ExpiresAt:      expires,
	}
	if err := s.store.CreateShare(ctx, share); err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, ArchiveObjectName(c.ID), pdf, "application/pdf"); err != nil {
			logger.Warn(ctx, "failed to archive contract document", "contract_id", c.ID, "error", err)
		}
	}

	data := c.Data()
	msg, err := sharedEmail.render(in.RecipientEmail, in.RecipientName, emailData{
		RecipientName: in.RecipientName,
		SenderName:    sender.DisplayName(),
		ContractTitle: data.Title,
		ContractID:    c.ID,
		Message:       in.Message,
		ContractURL:   s.shareURL(share.Token),
	})
	if err == nil {
		msg.Attachments = []EmailAttachment{{Filename: doc.Filename(), MIMEType: "application/pdf", Content: pdf}}
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.Error(ctx, "contract share delivery failed", "contract_id", c.ID, "share_id", share.ID, "error", err)
		share.Status = model.ShareStatusFailed
		share.Error = err.Error()
		if uerr := s.store.UpdateShare(context.WithoutCancel(ctx), share.ID, map[string]any{
			"status": share.Status,
			"error":  share.Error,
		}); uerr != nil {
			logger.Error(ctx, "failed to record share failure", "share_id", share.ID, "error", uerr)
		}
		return nil, fmt.Errorf("share contract %s: %w: %v", c.ID, ErrDeliveryFailed, err)
	}

	share.Status = model.ShareStatusSent
	if err := s.store.UpdateShare(ctx, share.ID, map[string]any{"status": share.Status}); err != nil {
		return nil, err
	}
	logger.Info(ctx, "contract shared", "contract_id", c.ID, "share_id", share.ID, "recipient", share.RecipientEmail)
	return share, nil
}

// SendToArtist shares the contract with its artist, assigning the artist
// first if the contract has none. The assignment is undone when delivery
// fails. Only the venue or an admin may send.
func (s *SharingService) SendToArtist(ctx context.Context, actor model.Actor, contractID, artistID, artistEmail, message string) (*SendResult, error) {
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return nil, invalidInput("artist id is required")
	}
	c, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !c.IsVenue(actor.UserID) {
		return nil, fmt.Errorf("send contract %s: only the venue can send: %w", contractID, ErrForbidden)
	}
	if c.ArtistID != nil && *c.ArtistID != artistID {
		return nil, invalidInput("contract already belongs to another artist")
	}

	in := ShareInput{RecipientEmail: artistEmail, Message: message}
	if u, err := s.users.Get(ctx, artistID); err == nil {
		in.RecipientName = u.Name
	}
	if err := validateRecipient(&in); err != nil {
		return nil, err
	}

	assigned := c.ArtistID == nil
	if assigned {
		if err := s.store.AssignArtist(ctx, c.ID, artistID); err != nil {
			return nil, err
		}
	}

	share, err := s.Share(ctx, actor, contractID, in)
	if err != nil {
		if assigned {
			if uerr := s.store.UnassignArtist(context.WithoutCancel(ctx), c.ID, artistID); uerr != nil {
				logger.Error(ctx, "failed to unassign artist", "contract_id", c.ID, "error", uerr)
			}
		}
		return nil, err
	}
	updated, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return &SendResult{Success: true, Contract: updated, Share: share}, nil
}

// MarkRead records the first time the recipient opened the share.
func (s *SharingService) MarkRead(ctx context.Context, shareID string) (*model.ContractShare, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.ReadAt != nil {
		return share, nil
	}
	now := s.now()
	if err := s.store.UpdateShare(ctx, share.ID, map[string]any{"read_at": now}); err != nil {
		return nil, err
	}
	share.ReadAt = &now
	return share, nil
}

// MarkSigned records the recipient's signature. Signing twice keeps the
// first signature.
func (s *SharingService) MarkSigned(ctx context.Context, shareID, signature string) (*model.ContractShare, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, invalidInput("signature is required")
	}
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.SignedAt != nil {
		return share, nil
	}
	now := s.now()
	switch {
	case share.Status == model.ShareStatusRevoked:
		return nil, invalidTransition("share has been revoked")
	case share.Status != model.ShareStatusSent:
		return nil, invalidTransition("share was never delivered")
	case share.ExpiresAt != nil && !now.Before(*share.ExpiresAt):
		return nil, invalidTransition("share expired")
	}

	fields := map[string]any{"signed_at": now, "signature": signature}
	if share.ReadAt == nil {
		fields["read_at"] = now
		share.ReadAt = &now
	}
	if err := s.store.UpdateShare(ctx, share.ID, fields); err != nil {
		return nil, err
	}
	share.SignedAt = &now
	share.Signature = signature
	logger.Info(ctx, "shared contract signed", "contract_id", share.ContractID, "share_id", share.ID)
	return share, nil
}

// byToken resolves a public share link. Revoked and undelivered shares are
// reported as missing.
func (s *SharingService) byToken(ctx context.Context, token string) (*model.ContractShare, error) {
	share, err := s.store.GetShareByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Status != model.ShareStatusSent {
		return nil, fmt.Errorf("share link: %w", ErrNotFound)
	}
	return share, nil
}

// View opens a share link and marks it read.
func (s *SharingService) View(ctx context.Context, token string) (*SharedContract, error) {
	share, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share, err = s.MarkRead(ctx, share.ID); err != nil {
		return nil, err
	}
	c, err := s.store.Get(ctx, share.ContractID)
	if err != nil {
		return nil, err
	}
	return &SharedContract{Share: share, Contract: c}, nil
}

// SignByToken signs through a share link.
func (s *SharingService) SignByToken(ctx context.Context, token, signature string) (*model.ContractShare, error) {
	share, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.MarkSigned(ctx, share.ID, signature)
}

// History lists every share attempt of a contract, including failed ones.
func (s *SharingService) History(ctx context.Context, actor model.Actor, contractID string) ([]*model.ContractShare, error) {
	if _, err := loadForRead(ctx, s.store, actor, contractID); err != nil {
		return nil, err
	}
	return s.store.Shares(ctx, contractID)
}

func (s *SharingService) GetShare(ctx context.Context, actor model.Actor, shareID string) (*model.ContractShare, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if _, err := loadForRead(ctx, s.store, actor, share.ContractID); err != nil {
		return nil, err
	}
	return share, nil
}

// shareForWrite loads a share whose contract the actor may change.
func (s *SharingService) shareForWrite(ctx context.Context, actor model.Actor, shareID string) (*model.ContractShare, *model.Contract, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.store.Get(ctx, share.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if !canAccess(c, actor) {
		return nil, nil, fmt.Errorf("share %s: %w", shareID, ErrForbidden)
	}
	return share, c, nil
}

// Revoke disables a share link. Revoking twice is a no-op.
func (s *SharingService) Revoke(ctx context.Context, actor model.Actor, shareID string) (*model.ContractShare, error) {
	share, _, err := s.shareForWrite(ctx, actor, shareID)
	if err != nil {
		return nil, err
	}
	if share.Status == model.ShareStatusRevoked {
		return share, nil
	}
	if share.SignedAt != nil {
		return nil, invalidTransition("share has already been signed")
	}
	if err := s.store.UpdateShare(ctx, share.ID, map[string]any{"status": model.ShareStatusRevoked}); err != nil {
		return nil, err
	}
	share.Status = model.ShareStatusRevoked
	logger.Info(ctx, "share revoked", "share_id", share.ID, "contract_id", share.ContractID)
	return share, nil
}

// SendReminder re-notifies the recipient of an outstanding share.
func (s *SharingService) SendReminder(ctx context.Context, actor model.Actor, shareID string) (*model.ContractShare, error) {
	share, c, err := s.shareForWrite(ctx, actor, shareID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !share.Outstanding(now) {
		return nil, invalidTransition("share is not awaiting a signature")
	}
	if c.Status != model.StatusPendingSignatures {
		return nil, invalidTransition("contract is %s", c.Status)
	}

	msg, err := reminderEmail.render(share.RecipientEmail, share.RecipientName, emailData{
		RecipientName: share.RecipientName,
		ContractTitle: c.Data().Title,
		ContractID:    c.ID,
		ContractURL:   s.shareURL(share.Token),
		DaysRemaining: share.DaysRemaining(now),
	})
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.Error(ctx, "reminder delivery failed", "share_id", share.ID, "error", err)
		return nil, fmt.Errorf("send reminder: %w: %v", ErrDeliveryFailed, err)
	}

	share.RemindersSent++
	share.LastRemindedAt = &now
	err = s.store.UpdateShare(ctx, share.ID, map[string]any{
		"reminders_sent":   share.RemindersSent,
		"last_reminded_at": now,
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// partyEmail resolves the address of a contract party.
func (s *SharingService) partyEmail(ctx context.Context, id *string) (*model.User, error) {
	if id == nil {
		return nil, fmt.Errorf("party not assigned")
	}
	u, err := s.users.Get(ctx, *id)
	if err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, fmt.Errorf("user %s has no email address", u.ID)
	}
	return u, nil
}

// ContractSent shares the contract with the counterparty of sender.
func (s *SharingService) ContractSent(ctx context.Context, c *model.Contract, sender model.Actor) error {
	target := c.ArtistID
	if c.IsArtist(sender.UserID) || (sender.IsAdmin() && c.ArtistID == nil) {
		target = c.VenueID
	}
	u, err := s.partyEmail(ctx, target)
	if err != nil {
		return fmt.Errorf("resolve counterparty: %w", err)
	}
	_, err = s.deliver(ctx, c, sender, ShareInput{RecipientEmail: u.Email, RecipientName: u.Name})
	return err
}

func (s *SharingService) ContractSigned(ctx context.Context, c *model.Contract, signer model.Actor) error {
	return s.notifyParties(ctx, c, signer.UserID, signedEmail, emailData{
		SignerName:    signer.DisplayName(),
		ContractTitle: c.Data().Title,
		ContractID:    c.ID,
	})
}

func (s *SharingService) ContractExecuted(ctx context.Context, c *model.Contract, _ model.Actor) error {
	return s.notifyParties(ctx, c, "", executedEmail, emailData{
		ContractTitle: c.Data().Title,
		ContractID:    c.ID,
	})
}

// notifyParties emails every assigned party except skipID.
func (s *SharingService) notifyParties(ctx context.Context, c *model.Contract, skipID string, tmpl emailTemplate, data emailData) error {
	var errs []error
	for _, id := range []*string{c.ArtistID, c.VenueID} {
		if id == nil || *id == skipID {
			continue
		}
		u, err := s.partyEmail(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data.RecipientName = u.Name
		msg, err := tmpl.render(u.Email, u.Name, data)
		if err == nil {
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
