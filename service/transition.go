package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Execution policies decide which signatures a signed contract needs before
// it can be executed.
const (
	PolicyAllParties = "all_parties"
	PolicyAnyParty   = "any_party"
)

// Notifier tells the parties of a contract about status changes.
type Notifier interface {
	// ContractSent notifies the counterparty of sender that the contract
	// awaits their signature.
	ContractSent(ctx context.Context, c *model.Contract, sender model.Actor) error
	ContractSigned(ctx context.Context, c *model.Contract, signer model.Actor) error
	ContractExecuted(ctx context.Context, c *model.Contract, approver model.Actor) error
}

// TransitionResult is a committed status change plus any notification that
// could not be delivered.
type TransitionResult struct {
	Contract *model.Contract `json:"contract"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ContractActions is what an actor may do with a contract right now.
type ContractActions struct {
	Status       model.Status   `json:"status"`
	Actions      model.Actions  `json:"actions"`
	NextStatuses []model.Status `json:"next_statuses"`
}

// TransitionEngine applies status changes to contracts.
type TransitionEngine struct {
	store    *ContractStore
	locker   Locker
	notifier Notifier
	policy   string
}

func NewTransitionEngine(store *ContractStore, locker Locker, notifier Notifier, policy string) *TransitionEngine {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if policy != PolicyAnyParty {
		policy = PolicyAllParties
	}
	return &TransitionEngine{store: store, locker: locker, notifier: notifier, policy: policy}
}

// Transition moves a contract to target.
//
// Moving to pending_signatures notifies the counterparty; if that fails the
// contract is put back in its previous status and ErrDeliveryFailed is
// returned. Notifications for signed and executed are best effort and are
// reported as warnings.
func (e *TransitionEngine) Transition(ctx context.Context, actor model.Actor, id string, target model.Status) (*TransitionResult, error) {
	ctx, span := tracing.Start(ctx, "contract.transition",
		attribute.String("contract.id", id),
		attribute.String("contract.target", string(target)),
	)
	res, err := e.transition(ctx, actor, id, target)
	tracing.End(span, err)
	return res, err
}

func (e *TransitionEngine) transition(ctx context.Context, actor model.Actor, id string, target model.Status) (*TransitionResult, error) {
	unlock, err := e.locker.Lock(ctx, "contract:"+id)
	if err != nil {
		return nil, fmt.Errorf("lock contract %s: %w", id, err)
	}

	var from model.Status
	var updated *model.Contract
	err = e.store.Transaction(ctx, func(tx *ContractStore) error {
		c, err := loadForWrite(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(c.Status, target) {
			return invalidTransition("cannot move contract from %s to %s", c.Status, target)
		}

		switch target {
		case model.StatusSigned:
			if !c.IsArtist(actor.UserID) && !c.IsVenue(actor.UserID) {
				return invalidTransition("only the artist or venue can sign a contract")
			}
			if err := ensureSignature(ctx, tx, c, actor); err != nil {
				return err
			}
		case model.StatusExecuted:
			if c.IsArtist(actor.UserID) || c.IsVenue(actor.UserID) {
				if err := ensureSignature(ctx, tx, c, actor); err != nil {
					return err
				}
			}
			if err := e.checkExecutable(ctx, tx, c); err != nil {
				return err
			}
		}

		from = c.Status
		updated, err = tx.UpdateStatus(ctx, id, target)
		return err
	})
	unlock()
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "contract status changed", "contract_id", id, "from", from, "to", target)

	result := &TransitionResult{Contract: updated}
	if e.notifier == nil {
		return result, nil
	}

	switch target {
	case model.StatusPendingSignatures:
		if err := e.notifier.ContractSent(ctx, updated, actor); err != nil {
			e.compensate(ctx, id, target, from)
			return nil, fmt.Errorf("notify counterparty: %w: %v", ErrDeliveryFailed, err)
		}
	case model.StatusSigned:
		if err := e.notifier.ContractSigned(ctx, updated, actor); err != nil {
			logger.Warn(ctx, "signed notification failed", "contract_id", id, "error", err)
			result.Warnings = append(result.Warnings, "signed notification not delivered: "+err.Error())
		}
	case model.StatusExecuted:
		if err := e.notifier.ContractExecuted(ctx, updated, actor); err != nil {
			logger.Warn(ctx, "executed notification failed", "contract_id", id, "error", err)
			result.Warnings = append(result.Warnings, "executed notification not delivered: "+err.Error())
		}
	}
	return result, nil
}

// compensate reverts a status change whose notification failed, unless the
// contract moved on in the meantime.
func (e *TransitionEngine) compensate(ctx context.Context, id string, applied, previous model.Status) {
	ok, err := e.store.CompareAndSetStatus(context.WithoutCancel(ctx), id, applied, previous)
	switch {
	case err != nil:
		logger.Error(ctx, "failed to revert contract status", "contract_id", id, "error", err)
	case !ok:
		logger.Warn(ctx, "contract changed before revert", "contract_id", id, "expected", applied)
	default:
		logger.Info(ctx, "contract status reverted", "contract_id", id, "status", previous)
	}
}

// signerRole returns the role under which actor signs c.
func signerRole(c *model.Contract, actor model.Actor) string {
	switch {
	case c.IsArtist(actor.UserID):
		return model.SignerArtist
	case c.IsVenue(actor.UserID):
		return model.SignerVenue
	default:
		return model.SignerAdmin
	}
}

// ensureSignature records actor's signature on c unless it already exists.
func ensureSignature(ctx context.Context, tx *ContractStore, c *model.Contract, actor model.Actor) error {
	role := signerRole(c, actor)
	sigs, err := tx.Signatures(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, s := range sigs {
		if s.SignerID == actor.UserID && s.SignerRole == role {
			return nil
		}
	}
	return tx.AddSignature(ctx, &model.Signature{
		ContractID: c.ID,
		SignerID:   actor.UserID,
		SignerName: actor.DisplayName(),
		SignerRole: role,
	})
}

func (e *TransitionEngine) checkExecutable(ctx context.Context, tx *ContractStore, c *model.Contract) error {
	sigs, err := tx.Signatures(ctx, c.ID)
	if err != nil {
		return err
	}

	signed := map[string]bool{}
	for _, s := range sigs {
		switch {
		case s.SignerRole == model.SignerArtist && c.IsArtist(s.SignerID):
			signed[model.SignerArtist] = true
		case s.SignerRole == model.SignerVenue && c.IsVenue(s.SignerID):
			signed[model.SignerVenue] = true
		}
	}

	var required, missing []string
	if c.ArtistID != nil {
		required = append(required, model.SignerArtist)
	}
	if c.VenueID != nil {
		required = append(required, model.SignerVenue)
	}
	for _, r := range required {
		if !signed[r] {
			missing = append(missing, r)
		}
	}

	switch e.policy {
	case PolicyAnyParty:
		if len(required) > 0 && len(missing) == len(required) {
			return invalidTransition("executing requires a party signature")
		}
	default:
		if len(missing) > 0 {
			return invalidTransition("executing requires signatures from: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

// Actions returns the actions available on a contract in its current status.
func (e *TransitionEngine) Actions(ctx context.Context, actor model.Actor, id string) (*ContractActions, error) {
	c, err := loadForRead(ctx, e.store, actor, id)
	if err != nil {
		return nil, err
	}
	return &ContractActions{
		Status:       c.Status,
		Actions:      model.ActionsFor(c.Status),
		NextStatuses: model.NextStatuses(c.Status),
	}, nil
}
