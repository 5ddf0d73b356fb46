package service

import (
	"context"
	"testing"
	"time"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.createContract(t, "A\nB")

	assert.Equal(t, model.StatusDraft, c.Status)
	require.NotNil(t, c.VenueID, "venue creator is assigned as the venue")
	assert.Equal(t, f.venue.UserID, *c.VenueID)
	assert.Nil(t, c.BookingID)

	history, err := f.versions.History(ctx, f.venue, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].VersionNumber)
	assert.Equal(t, "A\nB", history[0].Terms)
	assert.Equal(t, model.TypePerformanceContract, history[0].ContractType)
}

func TestCreateContractValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.contracts.Create(context.Background(), f.venue, CreateContractInput{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.contracts.Create(context.Background(), f.venue, CreateContractInput{Title: "x", ContractType: "lease"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := f.contracts.Create(context.Background(), f.venue, CreateContractInput{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.TypeRider, c.Data().Type, "type defaults to rider")
}

func TestCreateContractForBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking := &model.Booking{ArtistID: f.artist.UserID, VenueID: f.venue.UserID, EventDate: time.Now()}
	require.NoError(t, f.users.CreateBooking(ctx, booking))

	c, err := f.contracts.Create(ctx, f.artist, CreateContractInput{Title: "Gig", BookingID: &booking.ID})
	require.NoError(t, err)
	require.NotNil(t, c.ArtistID)
	require.NotNil(t, c.VenueID)
	assert.Equal(t, f.artist.UserID, *c.ArtistID)
	assert.Equal(t, f.venue.UserID, *c.VenueID)

	got, err := f.contracts.GetByBooking(ctx, f.venue, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.contracts.Create(ctx, f.stranger, CreateContractInput{Title: "Gig", BookingID: &booking.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	missing := "no-such-booking"
	_, err = f.contracts.Create(ctx, f.artist, CreateContractInput{Title: "Gig", BookingID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateContractRequiresParty(t *testing.T) {
	f := newFixture(t)
	user := model.Actor{UserID: "user-9", Role: model.RoleUser}

	_, err := f.contracts.Create(context.Background(), user, CreateContractInput{Title: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.contracts.Create(context.Background(), f.admin, CreateContractInput{Title: "x"})
	require.NoError(t, err)
	assert.Nil(t, c.ArtistID)
	assert.Nil(t, c.VenueID)
}

func TestGetHidesOtherContracts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createContract(t, "A")

	for _, actor := range []model.Actor{f.artist, f.venue, f.admin} {
		got, err := f.contracts.Get(ctx, actor, c.ID)
		require.NoError(t, err, actor.UserID)
		assert.Equal(t, c.ID, got.ID)
	}

	_, err := f.contracts.Get(ctx, f.stranger, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.contracts.GetByBooking(ctx, f.stranger, "anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListContracts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createContract(t, "A")
	f.createContract(t, "B")
	_, err := f.contracts.Create(ctx, f.stranger, CreateContractInput{Title: "theirs"})
	require.NoError(t, err)

	own, err := f.contracts.List(ctx, f.artist)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	all, err := f.contracts.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createContract(t, "A")

	data := c.Data()
	updated, v, err := f.contracts.UpdateContent(ctx, f.venue, c.ID, data, "")
	require.NoError(t, err)
	assert.Nil(t, v, "unchanged content does not create a version")
	assert.Equal(t, c.ID, updated.ID)

	data.Description = "Three sets"
	updated, v, err = f.contracts.UpdateContent(ctx, f.artist, c.ID, data, "longer show")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "longer show", v.ChangesSummary)
	assert.Equal(t, "Three sets", updated.Data().Description)

	_, _, err = f.contracts.UpdateContent(ctx, f.stranger, c.ID, data, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.contracts.UpdateContent(ctx, f.venue, "missing", data, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createContract(t, "A\nB")

	_, _, err := f.contracts.PatchContent(ctx, f.stranger, c.ID, ContentPatch{Terms: strPtr("mine")}, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.contracts.PatchContent(ctx, f.venue, c.ID, ContentPatch{Title: strPtr("  ")}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, v, err := f.contracts.PatchContent(ctx, f.artist, c.ID, ContentPatch{Terms: strPtr("A\nC")}, "")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 2, v.VersionNumber)
	assert.Equal(t, "Friday Night Show", updated.Data().Title)
	assert.Equal(t, "Two sets", updated.Data().Description)
	assert.Equal(t, "A\nC", updated.Data().Terms)
	assert.NotEqual(t, "No changes", v.ChangesSummary)

	_, v, err = f.contracts.PatchContent(ctx, f.venue, c.ID, ContentPatch{Terms: strPtr("A\nC")}, "")
	require.NoError(t, err)
	assert.Nil(t, v, "patch matching the head does not create a version")
}

func TestConcurrentIdenticalPatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createContract(t, "A")

	const writers = 6
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, _, err := f.contracts.PatchContent(gctx, f.venue, c.ID, ContentPatch{Terms: strPtr("A\nB")}, "")
			return err
		})
	}
	require.NoError(t, g.Wait())

	history, err := f.versions.History(ctx, f.venue, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2, "only the first edit differs from the head")
	assert.Equal(t, "A\nB", history[1].Terms)
}
