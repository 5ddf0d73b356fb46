package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a contract.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingSignatures Status = "pending_signatures"
	StatusSigned            Status = "signed"
	StatusExecuted          Status = "executed"
	StatusArchived          Status = "archived"
	StatusCancelled         Status = "cancelled"
)

// AllStatuses lists the canonical statuses in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusPendingSignatures,
	StatusSigned,
	StatusExecuted,
	StatusArchived,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusDraft:             {StatusPendingSignatures, StatusCancelled},
	StatusPendingSignatures: {StatusSigned, StatusCancelled},
	StatusSigned:            {StatusExecuted},
	StatusExecuted:          {StatusArchived},
}

// ParseStatus normalizes a status name. "sent" is accepted as a legacy
// alias of pending_signatures.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "sent" {
		return StatusPendingSignatures, nil
	}
	for _, st := range AllStatuses {
		if string(st) == name {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown contract status %q", s)
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Actions is the set of user actions available in a status.
type Actions struct {
	CanSign    bool `json:"can_sign"`
	CanReject  bool `json:"can_reject"`
	CanApprove bool `json:"can_approve"`
	CanCancel  bool `json:"can_cancel"`
}

// ActionsFor derives the available actions from a status. It is the single
// source of truth for both the API and clients.
func ActionsFor(s Status) Actions {
	switch s {
	case StatusDraft:
		return Actions{CanApprove: true, CanCancel: true}
	case StatusPendingSignatures:
		return Actions{CanSign: true, CanReject: true, CanCancel: true}
	case StatusSigned:
		return Actions{CanApprove: true}
	default:
		return Actions{}
	}
}
