package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every goroutine on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db        *gorm.DB
	store     *ContractStore
	users     *UserStore
	versions  *VersionService
	contracts *ContractService

	artist   model.Actor
	venue    model.Actor
	admin    model.Actor
	stranger model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	store := NewContractStore(db)
	users := NewUserStore(db)
	versions := NewVersionService(store, NewLocalLocker())

	f := &fixture{
		db:        db,
		store:     store,
		users:     users,
		versions:  versions,
		contracts: NewContractService(store, users, versions),
	}
	f.artist = f.addUser(t, "artist-1", "The Band", "band@example.com", model.RoleArtist)
	f.venue = f.addUser(t, "venue-1", "Blue Room", "bookings@blueroom.example.com", model.RoleVenue)
	f.admin = f.addUser(t, "admin-1", "Admin", "admin@example.com", model.RoleAdmin)
	f.stranger = f.addUser(t, "venue-2", "Other Venue", "other@example.com", model.RoleVenue)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name, email, role string) model.Actor {
	t.Helper()
	u := &model.User{ID: id, OpenID: "open-" + id, Name: name, Email: email, Role: role}
	require.NoError(t, f.db.Create(u).Error)
	return model.Actor{UserID: id, Name: name, Role: role}
}

// createContract creates a draft between the fixture's venue and artist.
func (f *fixture) createContract(t *testing.T, terms string) *model.Contract {
	t.Helper()
	artistID := f.artist.UserID
	c, err := f.contracts.Create(context.Background(), f.venue, CreateContractInput{
		Title:        "Friday Night Show",
		Description:  "Two sets",
		ContractType: model.TypePerformanceContract,
		Terms:        terms,
		ArtistID:     &artistID,
	})
	require.NoError(t, err)
	return c
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string
	signed   []string
	executed []string
	err      error
}

func (n *fakeNotifier) ContractSent(_ context.Context, c *model.Contract, _ model.Actor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c.ID)
	return n.err
}

func (n *fakeNotifier) ContractSigned(_ context.Context, c *model.Contract, _ model.Actor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signed = append(n.signed, c.ID)
	return n.err
}

func (n *fakeNotifier) ContractExecuted(_ context.Context, c *model.Contract, _ model.Actor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.executed = append(n.executed, c.ID)
	return n.err
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(_ context.Context, name string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[name] = data
	return nil
}

func (a *fakeArchive) PresignedURL(_ context.Context, name string) (string, error) {
	return "https://archive.example.com/" + name, nil
}
