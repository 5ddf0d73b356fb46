package service

import (
	"context"
	"fmt"

	"github.com/OlogyCrew/ologywoodv3/model"
)

// canAccess reports whether the actor is a party to the contract or an admin.
func canAccess(c *model.Contract, actor model.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return c.IsArtist(actor.UserID) || c.IsVenue(actor.UserID)
}

// loadForRead fetches a contract the actor may see. Contracts outside the
// actor's reach are reported as missing so their existence does not leak.
func loadForRead(ctx context.Context, store *ContractStore, actor model.Actor, id string) (*model.Contract, error) {
	c, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(c, actor) {
		return nil, fmt.Errorf("get contract %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// loadForWrite locks a contract row inside tx and checks that the actor may
// change it.
func loadForWrite(ctx context.Context, tx *ContractStore, actor model.Actor, id string) (*model.Contract, error) {
	c, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(c, actor) {
		return nil, fmt.Errorf("user %s on contract %s: %w", actor.UserID, id, ErrForbidden)
	}
	return c, nil
}

// contentEditable reports whether the content of a contract in status s may
// still change.
func contentEditable(s model.Status) bool {
	return s == model.StatusDraft || s == model.StatusPendingSignatures
}
