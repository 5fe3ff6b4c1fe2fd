package board_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/lostfound/internal/apitest"
	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/cache"
	"github.com/mdouchement/lostfound/internal/listing"
	"github.com/mdouchement/lostfound/internal/reconcile"
	"github.com/mdouchement/lostfound/internal/session"
	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend *apitest.Backend
	session *session.Session
	board   *board.Board
	items   []liblf.Item
}

func setup(t *testing.T) (*fixture, func()) {
	backend := apitest.New([]byte("secret"))
	backend.AddAccount("owner@nowhere.lan", "Password", "Owner")
	backend.AddAccount("finder@nowhere.lan", "Password", "Finder")

	items := backend.SeedItems(
		liblf.Item{PostType: "lost", Category: "Keys", Date: date("2024-01-01"), Title: "Car keys", Location: "Parking", ContactName: "Owner", ContactEmail: "owner@nowhere.lan"},
		liblf.Item{PostType: "found", Category: "Electronics", Date: date("2024-02-01"), Title: "Phone", Location: "Library", ContactName: "Owner", ContactEmail: "owner@nowhere.lan"},
		liblf.Item{PostType: "lost", Category: "Bags", Date: date("2024-03-01"), Title: "Backpack", Location: "Gym", ContactName: "Finder", ContactEmail: "finder@nowhere.lan", Status: liblf.StatusRecovered},
	)

	server := httptest.NewServer(backend.Engine())
	client, err := liblf.NewDefaultClient(server.URL)
	require.NoError(t, err)

	identity := liblf.NewIdentity(http.DefaultClient, apitest.APIKey,
		apitest.IdentityEndpoint(server.URL), apitest.SecureTokenEndpoint(server.URL))

	log, _ := test.NewNullLogger()
	s := session.New(identity, client, log)

	store, err := cache.New(0, 0)
	require.NoError(t, err)

	b := board.New(client, s, store, log)
	b.SetClock(func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) })

	return &fixture{backend: backend, session: s, board: b, items: items}, func() {
		b.Close()
		server.Close()
	}
}

func date(s string) liblf.Date {
	d, err := liblf.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func titles(p board.Page) []string {
	titles := []string{}
	for _, e := range p.Entries {
		titles = append(titles, e.Item.Title)
	}
	return titles
}

func TestBoardReads(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	p, err := f.board.Browse(ctx, listing.Query{Sort: listing.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "Car keys"}, titles(p))
	assert.Equal(t, []string{"Bags", "Electronics", "Keys"}, p.Categories)
	assert.Equal(t, reconcile.Action{Label: reconcile.LabelThisIsMine, RequiresSignIn: true}, p.Entries[0].State.Action)

	p, err = f.board.Recovered(ctx, listing.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Backpack"}, titles(p))
	assert.Equal(t, reconcile.StatusRecovered, p.Entries[0].State.Status)

	p, err = f.board.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, listing.LatestPageSize, p.PageSize)
	assert.Len(t, p.Entries, 2)

	_, err = f.board.Mine(ctx, listing.Query{})
	assert.ErrorIs(t, err, liblf.ErrNotSignedIn)

	categories, locations, err := f.board.Options(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)
	assert.Equal(t, []string{"Gym", "Library", "Parking"}, locations)

	assert.Equal(t, 1, f.backend.Requests("GET /inventory"), "collection must be cached")

	_, err = f.board.Detail(ctx, "unknown")
	assert.ErrorIs(t, err, board.ErrItemNotFound)

	entry, err := f.board.Detail(ctx, f.items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Car keys", entry.Item.Title)
	assert.Equal(t, reconcile.StatusActive, entry.State.Status)

	f.backend.SeedHighlights(liblf.Highlight{Title: "Welcome"})
	highlights, err := f.board.Highlights(ctx)
	require.NoError(t, err)
	assert.Len(t, highlights, 1)
}

func TestBoardMine(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := f.session.SignIn(ctx, "finder@nowhere.lan", "Password")
	require.NoError(t, err)

	p, err := f.board.Mine(ctx, listing.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Backpack"}, titles(p))
}

func TestBoardReport(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	report := liblf.ItemReport{
		PostType:    liblf.PostTypeFound,
		Title:       "Umbrella",
		Description: "Blue",
		Category:    "Others",
		Location:    "Entrance",
		Thumbnail:   "https://nowhere.lan/umbrella.png",
	}

	_, err := f.board.Report(ctx, report)
	var fe submission.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "contactEmail")
	assert.Equal(t, 0, f.backend.Requests("POST /inventory"))

	_, err = f.session.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)

	_, err = f.board.Browse(ctx, listing.Query{})
	require.NoError(t, err)

	item, err := f.board.Report(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, "Owner", item.ContactName)
	assert.Equal(t, "owner@nowhere.lan", item.ContactEmail)
	assert.Equal(t, "Item reported successfully", f.board.Feedback())

	p, err := f.board.Browse(ctx, listing.Query{Filters: listing.Filters{Search: "umbrella"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Umbrella"}, titles(p))
	assert.Equal(t, 2, f.backend.Requests("GET /inventory"), "collection must be invalidated")
}

func TestBoardUpdateDelete(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	title := "Smartphone"
	patch := liblf.ItemPatch{Title: &title}

	_, err := f.board.Update(ctx, f.items[1].ID, patch)
	assert.ErrorIs(t, err, liblf.ErrNotSignedIn)

	_, err = f.session.SignIn(ctx, "finder@nowhere.lan", "Password")
	require.NoError(t, err)

	_, err = f.board.Update(ctx, f.items[1].ID, patch)
	assert.ErrorIs(t, err, board.ErrNotOwner)
	assert.ErrorIs(t, f.board.Delete(ctx, f.items[1].ID), board.ErrNotOwner)

	_, err = f.session.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)

	entry, err := f.board.Detail(ctx, f.items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", entry.Item.Title)

	item, err := f.board.Update(ctx, f.items[1].ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", item.Title)

	entry, err = f.board.Detail(ctx, f.items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", entry.Item.Title, "detail must be invalidated")

	require.NoError(t, f.board.Delete(ctx, f.items[1].ID))
	_, err = f.board.Detail(ctx, f.items[1].ID)
	assert.ErrorIs(t, err, board.ErrItemNotFound)
}

func TestBoardRecoveryFlow(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	phone := f.items[1]

	form := board.RecoveryForm{RecoveredLocation: "Library desk", RecoveredDate: date("2024-03-05")}

	_, err := f.board.Recover(ctx, phone.ID, form)
	assert.ErrorIs(t, err, liblf.ErrNotSignedIn)

	_, err = f.session.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)
	_, err = f.board.Recover(ctx, phone.ID, form)
	assert.ErrorIs(t, err, board.ErrOwnItem)

	_, err = f.session.SignIn(ctx, "finder@nowhere.lan", "Password")
	require.NoError(t, err)

	_, err = f.board.Recover(ctx, f.items[2].ID, form)
	assert.ErrorIs(t, err, board.ErrAlreadyRecovered)

	future := form
	future.RecoveredDate = date("2024-04-01")
	_, err = f.board.Recover(ctx, phone.ID, future)
	var fe submission.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Date cannot be in the future", fe["recoveredDate"])

	// Cancelled confirmation sends nothing.
	_, err = f.board.Recover(ctx, phone.ID, form)
	require.NoError(t, err)
	assert.Equal(t, submission.AwaitingConfirmation, f.board.RecoveryState())
	assert.True(t, f.board.CancelRecovery())
	assert.Equal(t, 0, f.backend.Requests("POST /inventory/"+phone.ID+"/recover"))

	pending, err := f.board.Recover(ctx, phone.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "finder@nowhere.lan", pending.RecoveredBy.Email)
	assert.Equal(t, "owner@nowhere.lan", pending.OriginalOwner.Email)
	assert.Equal(t, "Phone", pending.ItemDetails.Title)

	created, err := f.board.ConfirmRecovery(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, f.backend.Requests("POST /inventory/"+phone.ID+"/recover"))
	assert.Equal(t, submission.Idle, f.board.RecoveryState())
	assert.Equal(t, "Recovery submitted successfully", f.board.RecoveryFeedback())

	_, err = f.board.ConfirmRecovery(ctx)
	assert.ErrorIs(t, err, submission.ErrNothingToConfirm)

	entry, err := f.board.Detail(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusPendingConfirmation, entry.State.Status)

	entries, err := f.board.Recoveries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, reconcile.TypeFound, entries[0].Type)
	assert.Equal(t, "You Found This", entries[0].Label)
	assert.False(t, entries[0].CanConfirm)

	_, err = f.board.MarkFullyRecovered(ctx, created.ID)
	assert.ErrorIs(t, err, board.ErrCannotConfirm)

	// The original owner confirms.
	_, err = f.session.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)

	entries, err = f.board.Recoveries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Item Returned", entries[0].Label)
	assert.True(t, entries[0].CanConfirm)

	entry, err = f.board.Detail(ctx, phone.ID)
	require.NoError(t, err)
	assert.True(t, entry.State.CanConfirm)

	updated, err := f.board.MarkFullyRecovered(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, updated.FullyRecovered())

	entry, err = f.board.Detail(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusRecovered, entry.State.Status)
	assert.Equal(t, reconcile.LabelAlreadyRecovered, entry.State.Action.Label)

	p, err := f.board.Recovered(ctx, listing.Query{Sort: listing.SortTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Backpack", "Phone"}, titles(p))
}

func TestBoardRecoverOwnRecoveredItem(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := f.session.SignIn(ctx, "finder@nowhere.lan", "Password")
	require.NoError(t, err)

	// The backpack belongs to the finder and is already recovered.
	form := board.RecoveryForm{RecoveredLocation: "Gym", RecoveredDate: date("2024-03-05")}
	_, err = f.board.Recover(ctx, f.items[2].ID, form)
	assert.ErrorIs(t, err, board.ErrAlreadyRecovered)
}

func TestBoardConfirmRecoveryConcurrently(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	phone := f.items[1]

	_, err := f.session.SignIn(ctx, "finder@nowhere.lan", "Password")
	require.NoError(t, err)

	form := board.RecoveryForm{RecoveredLocation: "Library desk", RecoveredDate: date("2024-03-05")}
	_, err = f.board.Recover(ctx, phone.ID, form)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.board.ConfirmRecovery(ctx)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, submission.ErrInFlight) || errors.Is(err, submission.ErrNothingToConfirm), err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.backend.Requests("POST /inventory/"+phone.ID+"/recover"))
}

func TestBoardConfirmUnknownRecoveryStatus(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	phone := f.items[1]

	recoveries := f.backend.SeedRecoveries(liblf.Recovery{
		ItemID:        phone.ID,
		OriginalOwner: liblf.Contact{Name: "Owner", Email: "owner@nowhere.lan"},
		RecoveredBy:   liblf.Recoverer{Name: "Finder", Email: "finder@nowhere.lan"},
		Status:        "in-review",
	})

	_, err := f.session.SignIn(ctx, "owner@nowhere.lan", "Password")
	require.NoError(t, err)

	entry, err := f.board.Detail(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusPendingConfirmation, entry.State.Status)
	assert.True(t, entry.State.CanConfirm)

	entries, err := f.board.Recoveries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].CanConfirm)

	updated, err := f.board.MarkFullyRecovered(ctx, recoveries[0].ID)
	require.NoError(t, err)
	assert.True(t, updated.FullyRecovered())
}
