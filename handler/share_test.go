package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

func TestShareLinkFlow(t *testing.T) {
	archive := &memoryArchive{}
	s := newTestServer(t, nil, archive)
	c := s.createContract(t)

	w := s.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/share", &venue, gin.H{
		"recipient_email": "Tour Manager <tm@band.example.com>",
		"message":         "Please review",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	share := decode[model.ContractShare](t, w)
	if share.Status != model.ShareStatusSent || share.RecipientName != "Tour Manager" {
		t.Errorf("Unexpected share: %+v", share)
	}
	if strings.Contains(w.Body.String(), "token") {
		t.Errorf("Share token must not be exposed: %s", w.Body.String())
	}
	if _, ok := archive.objects[service.ArchiveObjectName(c.ID)]; !ok {
		t.Errorf("Expected the shared PDF to be archived")
	}

	w = s.do(t, http.MethodGet, "/api/contracts/"+c.ID, &venue, nil)
	if got := decode[*model.Contract](t, w).Status; got != model.StatusPendingSignatures {
		t.Errorf("Expected pending_signatures after sharing, got %s", got)
	}

	token := s.shareToken(t, share.ID)

	w = s.do(t, http.MethodGet, "/api/public/shares/"+token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	viewed := decode[service.SharedContract](t, w)
	if viewed.Share.ReadAt == nil || viewed.Contract.ID != c.ID {
		t.Errorf("Expected the share to be marked read: %+v", viewed.Share)
	}

	w = s.do(t, http.MethodPost, "/api/public/shares/"+token+"/sign", nil, gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a signature, got %d", w.Code)
	}

	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, "/api/public/shares/"+token+"/sign", nil, gin.H{"signature": "T. Manager"})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if signed := decode[model.ContractShare](t, w); signed.SignedAt == nil || signed.Signature != "T. Manager" {
			t.Errorf("Expected a signed share, got %+v", signed)
		}
	}

	w = s.do(t, http.MethodGet, "/api/contracts/"+c.ID+"/shares", &artist, nil)
	if shares := decode[[]model.ContractShare](t, w); len(shares) != 1 {
		t.Errorf("Expected 1 share in history, got %d", len(shares))
	}
}

func TestShareDeliveryFailure(t *testing.T) {
	s := newTestServer(t, nil, nil)
	c := s.createContract(t)
	s.mailer.fail = true

	w := s.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/share", &venue, gin.H{"recipient_email": "tm@band.example.com"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/contracts/"+c.ID, &venue, nil)
	if got := decode[*model.Contract](t, w).Status; got != model.StatusDraft {
		t.Errorf("Expected the contract to stay in draft, got %s", got)
	}

	w = s.do(t, http.MethodGet, "/api/contracts/"+c.ID+"/shares", &venue, nil)
	shares := decode[[]model.ContractShare](t, w)
	if len(shares) != 1 || shares[0].Status != model.ShareStatusFailed {
		t.Errorf("Expected one failed share, got %+v", shares)
	}
}

func TestShareValidationAndAccess(t *testing.T) {
	s := newTestServer(t, nil, nil)
	c := s.createContract(t)

	tests := []struct {
		name           string
		actor          *model.Actor
		body           any
		expectedStatus int
	}{
		{"invalid email", &venue, gin.H{"recipient_email": "not-an-email"}, http.StatusBadRequest},
		{"stranger", &stranger, gin.H{"recipient_email": "tm@band.example.com"}, http.StatusForbidden},
		{"anonymous", nil, gin.H{"recipient_email": "tm@band.example.com"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/share", tt.actor, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
	if s.mailer.count() != 0 {
		t.Errorf("Expected no email for rejected shares, got %d", s.mailer.count())
	}
}

func TestReminderAndRevoke(t *testing.T) {
	s := newTestServer(t, nil, nil)
	c := s.createContract(t)

	w := s.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/share", &venue, gin.H{"recipient_email": "tm@band.example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	share := decode[model.ContractShare](t, w)

	w = s.do(t, http.MethodPost, "/api/shares/"+share.ID+"/reminder", &stranger, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for a stranger's reminder, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/shares/"+share.ID+"/reminder", &venue, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if reminded := decode[model.ContractShare](t, w); reminded.RemindersSent != 1 {
		t.Errorf("Expected 1 reminder, got %d", reminded.RemindersSent)
	}
	if s.mailer.count() != 2 {
		t.Errorf("Expected share and reminder emails, got %d", s.mailer.count())
	}

	w = s.do(t, http.MethodDelete, "/api/shares/"+share.ID, &venue, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/public/shares/"+s.shareToken(t, share.ID), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected a revoked link to be gone, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/shares/"+share.ID+"/reminder", &venue, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a revoked share, got %d", w.Code)
	}
}

func TestPublicShareUnknownToken(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/public/shares/does-not-exist", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetShare(t *testing.T) {
	s := newTestServer(t, nil, nil)
	c := s.createContract(t)

	w := s.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/share", &venue, gin.H{"recipient_email": "tm@band.example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	share := decode[model.ContractShare](t, w)

	w = s.do(t, http.MethodGet, "/api/shares/"+share.ID, &artist, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[model.ContractShare](t, w)
	if got.ID != share.ID || got.ContractID != c.ID || got.Status != model.ShareStatusSent {
		t.Errorf("Unexpected share %+v", got)
	}

	tests := []struct {
		name  string
		id    string
		actor *model.Actor
	}{
		{"stranger", share.ID, &stranger},
		{"unknown share", "missing", &venue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/shares/"+tt.id, tt.actor, nil)
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
