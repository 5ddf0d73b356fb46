package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestContractData(t *testing.T) {
	artist := "artist-1"
	contract := &Contract{ID: "c-1", ArtistID: &artist, Status: StatusDraft}
	contract.SetData(ContractData{Type: TypeRider, Title: "Tech rider", Terms: "A\nB"})

	if got := contract.Data().Title; got != "Tech rider" {
		t.Errorf("Expected title 'Tech rider', got '%s'", got)
	}
	snap := contract.Snapshot()
	if snap.ContractType != TypeRider || snap.Terms != "A\nB" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
	if snap.ContractData() != contract.Data() {
		t.Error("Snapshot round trip should preserve content")
	}

	if !contract.IsArtist("artist-1") || contract.IsArtist("") || contract.IsVenue("artist-1") {
		t.Error("Party checks mismatch")
	}

	raw, err := json.Marshal(contract)
	if err != nil {
		t.Fatalf("Failed to marshal contract: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal contract: %v", err)
	}
	data, ok := decoded["contract_data"].(map[string]any)
	if !ok || data["title"] != "Tech rider" {
		t.Errorf("Expected contract_data to be an object, got %v", decoded["contract_data"])
	}
	if _, present := decoded["venue_id"]; present {
		t.Error("Expected absent venue_id to be omitted")
	}
}

func TestValidContractType(t *testing.T) {
	for _, typ := range []string{TypeRider, TypeServiceAgreement, TypePerformanceContract, TypeBookingAgreement, TypeOther} {
		if !ValidContractType(typ) {
			t.Errorf("Expected %s to be valid", typ)
		}
	}
	if ValidContractType("lease") {
		t.Error("Expected lease to be invalid")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"draft", StatusDraft, false},
		{" Pending_Signatures ", StatusPendingSignatures, false},
		{"sent", StatusPendingSignatures, false},
		{"cancelled", StatusCancelled, false},
		{"approved", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusDraft:             {StatusPendingSignatures, StatusCancelled},
		StatusPendingSignatures: {StatusSigned, StatusCancelled},
		StatusSigned:            {StatusExecuted},
		StatusExecuted:          {StatusArchived},
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	if !StatusArchived.IsTerminal() || !StatusCancelled.IsTerminal() || StatusSigned.IsTerminal() {
		t.Error("Terminal status mismatch")
	}
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	next := NextStatuses(StatusDraft)
	next[0] = StatusArchived
	if !CanTransition(StatusDraft, StatusPendingSignatures) {
		t.Error("Mutating NextStatuses result must not change the table")
	}
}

func TestActionsFor(t *testing.T) {
	tests := []struct {
		status Status
		want   Actions
	}{
		{StatusDraft, Actions{CanApprove: true, CanCancel: true}},
		{StatusPendingSignatures, Actions{CanSign: true, CanReject: true, CanCancel: true}},
		{StatusSigned, Actions{CanApprove: true}},
		{StatusExecuted, Actions{}},
		{StatusArchived, Actions{}},
		{StatusCancelled, Actions{}},
	}
	for _, tt := range tests {
		if got := ActionsFor(tt.status); got != tt.want {
			t.Errorf("ActionsFor(%s) = %+v, want %+v", tt.status, got, tt.want)
		}
	}
}

func TestShareOutstanding(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(36 * time.Hour)
	past := now.Add(-time.Hour)

	if !(&ContractShare{Status: ShareStatusSent}).Outstanding(now) {
		t.Error("Sent share without expiry should be outstanding")
	}
	if (&ContractShare{Status: ShareStatusSent, SignedAt: &past}).Outstanding(now) {
		t.Error("Signed share should not be outstanding")
	}
	if (&ContractShare{Status: ShareStatusSent, ExpiresAt: &past}).Outstanding(now) {
		t.Error("Expired share should not be outstanding")
	}
	if (&ContractShare{Status: ShareStatusRevoked}).Outstanding(now) {
		t.Error("Revoked share should not be outstanding")
	}

	share := &ContractShare{ExpiresAt: &future}
	if got := share.DaysRemaining(now); got != 2 {
		t.Errorf("Expected 2 days remaining, got %d", got)
	}
	if got := (&ContractShare{}).DaysRemaining(now); got != -1 {
		t.Errorf("Expected -1 without expiry, got %d", got)
	}
}

func TestActorDisplayName(t *testing.T) {
	if (Actor{UserID: "u1"}).DisplayName() != "u1" {
		t.Error("Expected user id fallback")
	}
	if (Actor{UserID: "u1", Name: "Ada"}).DisplayName() != "Ada" {
		t.Error("Expected name")
	}
	if !(Actor{Role: RoleAdmin}).IsAdmin() {
		t.Error("Expected admin")
	}
}
