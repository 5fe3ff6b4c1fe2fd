// Package board is the listing and recovery state manager.
// It reads the backend through a cache, derives the pages with listing and reconcile,
// and sends the mutations through submission workflows.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/mdouchement/lostfound/internal/cache"
	"github.com/mdouchement/lostfound/internal/listing"
	"github.com/mdouchement/lostfound/internal/reconcile"
	"github.com/mdouchement/lostfound/internal/session"
	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrItemNotFound is returned when the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrNotOwner is returned when a mutation is reserved to the item's owner.
	ErrNotOwner = errors.New("you are not the owner of this item")
	// ErrOwnItem is returned when the viewer tries to recover its own item.
	ErrOwnItem = errors.New("you cannot recover your own item")
	// ErrAlreadyRecovered is returned when the item has already been recovered.
	ErrAlreadyRecovered = errors.New("item already recovered")
	// ErrCannotConfirm is returned when the viewer cannot mark the recovery as fully recovered.
	ErrCannotConfirm = errors.New("only the original owner can confirm a pending recovery")
)

type (
	// A Viewer is the identity looking at the board.
	Viewer interface {
		Email() string
		Profile() liblf.Profile
	}

	subscriber interface {
		Subscribe(l session.Listener) (unsubscribe func())
	}

	// An Entry is an item with its derived state.
	Entry struct {
		Item  liblf.Item
		State reconcile.State
	}

	// A Page is a rendered listing.
	Page struct {
		Entries    []Entry
		Total      int
		Page       int
		PageSize   int
		TotalPages int
		Categories []string
		Locations  []string
	}

	// A RecoveryEntry is a recovery with its type relative to the viewer.
	RecoveryEntry struct {
		Recovery liblf.Recovery
		Type     string
		Label    string
		// CanConfirm is set when the viewer can mark the recovery as fully recovered.
		CanConfirm bool
	}

	// A Board is the entry point of the pages.
	Board struct {
		client   liblf.Client
		viewer   Viewer
		cache    *cache.Store
		log      logrus.FieldLogger
		mutation *submission.Workflow
		recovery *submission.Workflow
		stop     func()

		mu      sync.Mutex
		created *liblf.Recovery // set by the recovery workflow, taken by ConfirmRecovery
	}
)

// New returns a new Board.
// When the viewer is a session, the cached recoveries are dropped on sign-in and sign-out.
func New(client liblf.Client, viewer Viewer, store *cache.Store, log logrus.FieldLogger) *Board {
	b := &Board{
		client:   client,
		viewer:   viewer,
		cache:    store,
		log:      log,
		mutation: submission.New(store, log),
		recovery: submission.NewConfirmed(store, log),
		stop:     func() {},
	}

	if s, ok := viewer.(subscriber); ok {
		b.stop = s.Subscribe(func(e session.Event, _ liblf.Profile) {
			log.WithField("event", e).Debug("session changed, dropping recoveries")
			store.Invalidate(cache.Recoveries)
		})
	}
	return b
}

// Close stops watching the session.
func (b *Board) Close() {
	b.stop()
}

// SetClock overrides the time used by the validation rules.
func (b *Board) SetClock(now func() time.Time) {
	b.mutation.SetClock(now)
	b.recovery.SetClock(now)
}

///// Reads
////
//

// Browse returns the active items.
func (b *Board) Browse(ctx context.Context, q listing.Query) (Page, error) {
	q.View = listing.ViewActive
	return b.page(ctx, q)
}

// Recovered returns the recovered items.
func (b *Board) Recovered(ctx context.Context, q listing.Query) (Page, error) {
	q.View = listing.ViewRecovered
	return b.page(ctx, q)
}

// Mine returns all the items reported by the signed in user.
func (b *Board) Mine(ctx context.Context, q listing.Query) (Page, error) {
	email := b.viewer.Email()
	if email == "" {
		return Page{}, liblf.ErrNotSignedIn
	}

	q.View = listing.ViewAll
	q.Filters.Owner = email
	return b.page(ctx, q)
}

// Latest returns the preview of the newest active items.
func (b *Board) Latest(ctx context.Context) (Page, error) {
	return b.page(ctx, listing.Query{
		View:     listing.ViewActive,
		Sort:     listing.SortNewest,
		Page:     1,
		PageSize: listing.LatestPageSize,
	})
}

// Options returns the filter options derived from the whole collection.
func (b *Board) Options(ctx context.Context) (categories, locations []string, err error) {
	items, err := b.items(ctx)
	if err != nil {
		return nil, nil, err
	}

	categories, locations = listing.Options(items)
	return categories, locations, nil
}

// Detail returns the item for the given id.
// ErrItemNotFound is returned when the item does not exist.
func (b *Board) Detail(ctx context.Context, id string) (Entry, error) {
	item, err := cache.Fetch(ctx, b.cache, cache.Item(id), func(ctx context.Context) (liblf.Item, error) {
		return b.client.Item(ctx, id)
	})
	if liblf.IsNotFound(err) {
		return Entry{}, errors.Wrap(ErrItemNotFound, id)
	}
	if err != nil {
		return Entry{}, err
	}

	recoveries, err := b.recoveries(ctx)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Item:  item,
		State: reconcile.Reconcile(item, recoveries, b.viewer.Email()),
	}, nil
}

// Recoveries returns the recoveries involving the signed in user.
func (b *Board) Recoveries(ctx context.Context) ([]RecoveryEntry, error) {
	email := b.viewer.Email()
	if email == "" {
		return nil, liblf.ErrNotSignedIn
	}

	recoveries, err := b.recoveries(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]RecoveryEntry, 0, len(recoveries))
	for _, r := range recoveries {
		typ := reconcile.TypeOf(r, email)
		entries = append(entries, RecoveryEntry{
			Recovery:   r,
			Type:       typ,
			Label:      reconcile.TypeLabel(typ),
			CanConfirm: !r.FullyRecovered() && r.OriginalOwner.Email == email,
		})
	}
	return entries, nil
}

// Highlights returns the promotional slides.
func (b *Board) Highlights(ctx context.Context) ([]liblf.Highlight, error) {
	return cache.Fetch(ctx, b.cache, cache.Highlights, b.client.Highlights)
}

func (b *Board) page(ctx context.Context, q listing.Query) (Page, error) {
	items, err := b.items(ctx)
	if err != nil {
		return Page{}, err
	}

	recoveries, err := b.recoveries(ctx)
	if err != nil {
		return Page{}, err
	}

	if orphans := reconcile.Orphans(items, recoveries); len(orphans) > 0 {
		b.log.Debugf("ignoring %d recoveries of unknown items", len(orphans))
	}

	r := listing.Apply(items, q)
	idx := reconcile.NewIndex(recoveries)
	email := b.viewer.Email()

	p := Page{
		Entries:    make([]Entry, 0, len(r.Items)),
		Total:      r.Total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: r.TotalPages,
	}
	for _, item := range r.Items {
		p.Entries = append(p.Entries, Entry{
			Item:  item,
			State: idx.Reconcile(item, email),
		})
	}
	p.Categories, p.Locations = listing.Options(items)
	return p, nil
}

func (b *Board) items(ctx context.Context) ([]liblf.Item, error) {
	return cache.Fetch(ctx, b.cache, cache.Items, b.client.Items)
}

// recoveries returns nothing for anonymous viewers.
func (b *Board) recoveries(ctx context.Context) ([]liblf.Recovery, error) {
	if b.viewer.Email() == "" {
		return nil, nil
	}

	recoveries, err := cache.Fetch(ctx, b.cache, cache.Recoveries, b.client.Recoveries)
	if liblf.IsUnauthorized(err) {
		b.log.WithError(err).Warn("recoveries are not available")
		return nil, nil
	}
	return recoveries, err
}
