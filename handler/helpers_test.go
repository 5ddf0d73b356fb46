package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/middleware"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	venue    = model.Actor{UserID: "venue-1", Name: "Blue Room", Role: model.RoleVenue}
	artist   = model.Actor{UserID: "artist-1", Name: "The Band", Role: model.RoleArtist}
	stranger = model.Actor{UserID: "venue-2", Name: "Other Venue", Role: model.RoleVenue}
	admin    = model.Actor{UserID: "admin-1", Name: "Admin", Role: model.RoleAdmin}
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []service.Email
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg service.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("sendgrid: 503 service unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string]int
}

func (a *memoryArchive) Put(_ context.Context, name string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = map[string]int{}
	}
	a.objects[name] = len(data)
	return nil
}

func (a *memoryArchive) PresignedURL(_ context.Context, name string) (string, error) {
	return "https://archive.example.com/" + name + "?X-Amz-Expires=604800", nil
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	mailer *recordingMailer
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{BaseURL: "https://ologywood.example.com"},
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenExpireHours: 1,
			SessionDays:      365,
			CookieName:       "app_session_id",
		},
		OAuth: config.OAuthConfig{TimeoutSeconds: 5, DefaultRole: model.RoleUser},
		PDF: config.PDFConfig{
			Brand:      "OLOGYWOOD",
			Tagline:    "Artist Booking Platform",
			Disclaimer: "This is a legally binding contract. Please review carefully before signing.",
		},
		Contracts: config.ContractsConfig{ExecutionPolicy: service.PolicyAllParties, ShareExpiresDays: 7},
	}
}

// newTestServer wires the full API against a private in-memory database.
// archive may be nil.
func newTestServer(t *testing.T, cfg *config.Config, archive service.DocumentArchive) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	db, err := service.OpenDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := []*model.User{
		{ID: venue.UserID, OpenID: "open-venue-1", Name: venue.Name, Email: "bookings@blueroom.example.com", Role: venue.Role},
		{ID: artist.UserID, OpenID: "open-artist-1", Name: artist.Name, Email: "band@example.com", Role: artist.Role},
		{ID: stranger.UserID, OpenID: "open-venue-2", Name: stranger.Name, Email: "other@example.com", Role: stranger.Role},
		{ID: admin.UserID, OpenID: "open-admin-1", Name: admin.Name, Email: "admin@example.com", Role: admin.Role},
	}
	for _, u := range users {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("Failed to seed user %s: %v", u.ID, err)
		}
	}

	mailer := &recordingMailer{}
	router := newRouter(cfg, db, mailer, archive)
	return &testServer{router: router, db: db, cfg: cfg, mailer: mailer}
}

func newRouter(cfg *config.Config, db *gorm.DB, mailer service.Mailer, archive service.DocumentArchive) *gin.Engine {
	store := service.NewContractStore(db)
	userStore := service.NewUserStore(db)
	locker := service.NewLocalLocker()
	versions := service.NewVersionService(store, locker)
	contracts := service.NewContractService(store, userStore, versions)
	exporter := service.NewPDFExporter(store, userStore, service.NewPDFRenderer(&cfg.PDF))
	sharing := service.NewSharingService(store, userStore, exporter, mailer, archive, service.SharingOptions{
		BaseURL:          cfg.App.BaseURL,
		ShareExpiresDays: cfg.Contracts.ShareExpiresDays,
	})
	engine := service.NewTransitionEngine(store, locker, sharing, cfg.Contracts.ExecutionPolicy)

	h := &Handlers{
		Auth:      NewAuthHandler(cfg, userStore),
		OAuth:     NewOAuthHandler(service.NewOAuthService(&cfg.OAuth, userStore), cfg),
		Contracts: NewContractHandler(contracts, engine, sharing),
		Versions:  NewVersionHandler(versions),
		Shares:    NewShareHandler(sharing),
		Documents: NewDocumentHandler(exporter, archive),
	}

	router := gin.New()
	h.Register(router, middleware.AuthMiddleware(&cfg.Auth))
	return router
}

// do sends a request as actor, or anonymously when actor is nil.
func (s *testServer) do(t *testing.T, method, path string, actor *model.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, _, err := middleware.GenerateToken(*actor, s.cfg.Auth.JWTSecret, time.Hour)
		if err != nil {
			t.Fatalf("Failed to sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

// createContract creates a draft between venue and artist through the API.
func (s *testServer) createContract(t *testing.T) *model.Contract {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/contracts", &venue, gin.H{
		"title":         "Friday Night Show",
		"description":   "Two sets",
		"contract_type": model.TypePerformanceContract,
		"terms":         "Load in at 6pm\nSet at 9pm",
		"artist_id":     artist.UserID,
		"venue_id":      venue.UserID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[*model.Contract](t, w)
}

func (s *testServer) shareToken(t *testing.T, shareID string) string {
	t.Helper()
	var share model.ContractShare
	if err := s.db.First(&share, "id = ?", shareID).Error; err != nil {
		t.Fatalf("Failed to load share: %v", err)
	}
	return share.Token
}
