package board

import (
	"context"
	"time"

	"github.com/mdouchement/lostfound/internal/cache"
	"github.com/mdouchement/lostfound/internal/reconcile"
	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

// A RecoveryForm is what the recoverer fills in.
type RecoveryForm struct {
	RecoveredLocation string
	RecoveredDate     liblf.Date
	Notes             string
}

// Report creates an item.
// The contact defaults to the signed in user.
func (b *Board) Report(ctx context.Context, r liblf.ItemReport) (liblf.Item, error) {
	profile := b.viewer.Profile()
	if r.ContactName == "" {
		r.ContactName = profile.Name
	}
	if r.ContactEmail == "" {
		r.ContactEmail = profile.Email
	}

	var item liblf.Item
	err := b.mutation.Submit(ctx, submission.Submission{
		Name: "report",
		Validate: func(now time.Time) submission.FieldErrors {
			return submission.ValidateItem(r, now)
		},
		Send: func(ctx context.Context) (err error) {
			item, err = b.client.CreateItem(ctx, r)
			return err
		},
		Invalidate:     []string{cache.Items},
		SuccessMessage: "Item reported successfully",
	})
	return item, err
}

// Update partially updates an item of the signed in user.
func (b *Board) Update(ctx context.Context, id string, patch liblf.ItemPatch) (liblf.Item, error) {
	entry, err := b.owned(ctx, id)
	if err != nil {
		return liblf.Item{}, err
	}

	item := entry.Item
	err = b.mutation.Submit(ctx, submission.Submission{
		Name: "update",
		Validate: func(now time.Time) submission.FieldErrors {
			return submission.ValidateItemPatch(patch, now)
		},
		Send: func(ctx context.Context) (err error) {
			item, err = b.client.UpdateItem(ctx, id, patch)
			return err
		},
		Invalidate:     []string{cache.Items, cache.Item(id)},
		SuccessMessage: "Item updated successfully",
	})
	return item, err
}

// Delete deletes an item of the signed in user.
func (b *Board) Delete(ctx context.Context, id string) error {
	if _, err := b.owned(ctx, id); err != nil {
		return err
	}

	return b.mutation.Submit(ctx, submission.Submission{
		Name: "delete",
		Send: func(ctx context.Context) error {
			return b.client.DeleteItem(ctx, id)
		},
		Invalidate:     []string{cache.Items, cache.Item(id), cache.Recoveries},
		SuccessMessage: "Item deleted successfully",
	})
}

// Recover validates a recovery of the given item.
// Nothing is sent until ConfirmRecovery is called.
func (b *Board) Recover(ctx context.Context, id string, form RecoveryForm) (liblf.Recovery, error) {
	entry, err := b.Detail(ctx, id)
	if err != nil {
		return liblf.Recovery{}, err
	}

	if !entry.State.Action.Enabled {
		switch {
		case entry.State.Action.RequiresSignIn:
			return liblf.Recovery{}, liblf.ErrNotSignedIn
		case entry.State.Status == reconcile.StatusRecovered:
			return liblf.Recovery{}, ErrAlreadyRecovered
		default:
			return liblf.Recovery{}, ErrOwnItem
		}
	}
	if entry.State.Status == reconcile.StatusPendingConfirmation {
		b.log.WithField("item", id).Info("item already has a pending recovery")
	}

	item := entry.Item
	recovery := liblf.Recovery{
		ItemID:            item.ID,
		RecoveredLocation: form.RecoveredLocation,
		RecoveredDate:     form.RecoveredDate,
		Notes:             form.Notes,
		ItemDetails:       liblf.Snapshot(item),
		OriginalOwner: liblf.Contact{
			Name:  item.ContactName,
			Email: item.ContactEmail,
		},
		RecoveredBy: b.viewer.Profile().Recoverer(),
		Status:      liblf.RecoveryPending,
	}

	err = b.recovery.Submit(ctx, submission.Submission{
		Name: "recover",
		Validate: func(now time.Time) submission.FieldErrors {
			recovery.SubmittedAt = liblf.NewDate(now.UTC())
			return submission.ValidateRecovery(recovery, now)
		},
		Send: func(ctx context.Context) error {
			created, err := b.client.Recover(ctx, item.ID, recovery)
			if err != nil {
				return err
			}
			b.mu.Lock()
			b.created = &created
			b.mu.Unlock()
			return nil
		},
		Invalidate:     []string{cache.Items, cache.Item(item.ID), cache.Recoveries},
		SuccessMessage: "Recovery submitted successfully",
	})
	return recovery, err
}

// ConfirmRecovery sends the recovery validated by Recover.
func (b *Board) ConfirmRecovery(ctx context.Context) (liblf.Recovery, error) {
	if err := b.recovery.Confirm(ctx); err != nil {
		return liblf.Recovery{}, err
	}

	b.mu.Lock()
	created := b.created
	b.created = nil
	b.mu.Unlock()

	b.recovery.Reset()
	if created == nil {
		return liblf.Recovery{}, submission.ErrNothingToConfirm
	}
	return *created, nil
}

// CancelRecovery drops the recovery validated by Recover.
func (b *Board) CancelRecovery() bool {
	return b.recovery.Cancel()
}

// RecoveryState returns the state of the recovery workflow.
func (b *Board) RecoveryState() submission.State {
	return b.recovery.State()
}

// MarkFullyRecovered is used by the original owner to confirm a pending recovery.
func (b *Board) MarkFullyRecovered(ctx context.Context, recoveryID string) (liblf.Recovery, error) {
	entries, err := b.Recoveries(ctx)
	if err != nil {
		return liblf.Recovery{}, err
	}

	var recovery *liblf.Recovery
	for _, e := range entries {
		if e.Recovery.ID == recoveryID {
			if !e.CanConfirm {
				return liblf.Recovery{}, ErrCannotConfirm
			}
			recovery = &e.Recovery
			break
		}
	}
	if recovery == nil {
		return liblf.Recovery{}, errors.Wrapf(ErrCannotConfirm, "unknown recovery %s", recoveryID)
	}

	updated := *recovery
	err = b.mutation.Submit(ctx, submission.Submission{
		Name: "mark-recovered",
		Send: func(ctx context.Context) (err error) {
			updated, err = b.client.UpdateRecoveryStatus(ctx, recoveryID, liblf.RecoveryFullyRecovered)
			return err
		},
		Invalidate:     []string{cache.Items, cache.Item(recovery.ItemID), cache.Recoveries},
		SuccessMessage: "Item marked as fully recovered",
	})
	return updated, err
}

// Feedback returns the message of the last mutation.
func (b *Board) Feedback() string {
	return b.mutation.Feedback()
}

// RecoveryFeedback returns the message of the last recovery submission.
func (b *Board) RecoveryFeedback() string {
	return b.recovery.Feedback()
}

func (b *Board) owned(ctx context.Context, id string) (Entry, error) {
	if b.viewer.Email() == "" {
		return Entry{}, liblf.ErrNotSignedIn
	}

	entry, err := b.Detail(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if !entry.State.IsOwner {
		return Entry{}, ErrNotOwner
	}
	return entry, nil
}
