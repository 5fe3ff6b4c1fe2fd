package submission_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type invalidator struct {
	mu   sync.Mutex
	keys []string
}

func (i *invalidator) Invalidate(keys ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys = append(i.keys, keys...)
}

func logger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func valid(time.Time) submission.FieldErrors {
	return submission.FieldErrors{}
}

func TestWorkflowValidationFailure(t *testing.T) {
	w := submission.New(nil, logger())

	var calls int
	err := w.Submit(context.Background(), submission.Submission{
		Validate: func(now time.Time) submission.FieldErrors {
			return submission.ValidateItem(liblf.ItemReport{}, now)
		},
		Send: func(context.Context) error {
			calls++
			return nil
		},
	})

	var fe submission.FieldErrors
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "Title is required", fe["title"])
	assert.Equal(t, fe, w.FieldErrors())
	assert.Equal(t, submission.Idle, w.State())
	assert.Equal(t, 0, calls)
}

func TestWorkflowItemPath(t *testing.T) {
	cache := &invalidator{}
	w := submission.New(cache, logger())

	var calls int
	var succeeded bool
	err := w.Submit(context.Background(), submission.Submission{
		Validate: valid,
		Send: func(context.Context) error {
			calls++
			return nil
		},
		Invalidate:     []string{"items", "item:1"},
		OnSuccess:      func() { succeeded = true },
		SuccessMessage: "Item reported",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, succeeded)
	assert.Equal(t, submission.Succeeded, w.State())
	assert.Equal(t, "Item reported", w.Feedback())
	assert.Equal(t, []string{"items", "item:1"}, cache.keys)

	assert.ErrorIs(t, w.Confirm(context.Background()), submission.ErrNothingToConfirm)

	w.Reset()
	assert.Equal(t, submission.Idle, w.State())
}

func TestWorkflowConfirmation(t *testing.T) {
	cache := &invalidator{}
	w := submission.NewConfirmed(cache, logger())

	var calls int
	s := submission.Submission{
		Validate: valid,
		Send: func(context.Context) error {
			calls++
			return nil
		},
		Invalidate: []string{"recoveries"},
	}

	assert.NoError(t, w.Submit(context.Background(), s))
	assert.Equal(t, submission.AwaitingConfirmation, w.State())
	assert.Equal(t, 0, calls)

	assert.True(t, w.Cancel())
	assert.Equal(t, submission.Idle, w.State())
	assert.False(t, w.Cancel())
	assert.ErrorIs(t, w.Confirm(context.Background()), submission.ErrNothingToConfirm)
	assert.Equal(t, 0, calls)
	assert.Empty(t, cache.keys)

	assert.NoError(t, w.Submit(context.Background(), s))
	assert.NoError(t, w.Confirm(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, submission.Succeeded, w.State())
	assert.Equal(t, []string{"recoveries"}, cache.keys)

	assert.ErrorIs(t, w.Confirm(context.Background()), submission.ErrNothingToConfirm)
	assert.Equal(t, 1, calls)
}

func TestWorkflowFailure(t *testing.T) {
	cache := &invalidator{}
	w := submission.New(cache, logger())

	failure := errors.Wrap(&liblf.LFError{StatusCode: http.StatusConflict, Message: "Item already recovered"}, "could not submit recovery")
	err := w.Submit(context.Background(), submission.Submission{
		Validate:   valid,
		Send:       func(context.Context) error { return failure },
		Invalidate: []string{"items"},
	})

	assert.Equal(t, failure, err)
	assert.Equal(t, submission.Idle, w.State())
	assert.Equal(t, failure, w.LastError())
	assert.Equal(t, "Item already recovered", w.Feedback())
	assert.Empty(t, cache.keys)
}

func TestWorkflowDoubleSubmit(t *testing.T) {
	w := submission.New(nil, logger())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	s := submission.Submission{
		Validate: valid,
		Send: func(context.Context) error {
			calls++
			close(started)
			<-release
			return nil
		},
	}

	done := make(chan error)
	go func() {
		done <- w.Submit(context.Background(), s)
	}()

	<-started
	assert.Equal(t, submission.Submitting, w.State())
	assert.ErrorIs(t, w.Submit(context.Background(), s), submission.ErrInFlight)
	assert.ErrorIs(t, w.Confirm(context.Background()), submission.ErrInFlight)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, calls)
}

func TestWorkflowCanceledContext(t *testing.T) {
	w := submission.NewConfirmed(nil, logger())

	var calls int
	assert.NoError(t, w.Submit(context.Background(), submission.Submission{
		Validate: valid,
		Send: func(context.Context) error {
			calls++
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Confirm(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
	assert.Equal(t, submission.Idle, w.State())
	assert.Equal(t, submission.GenericFailureMessage, w.Feedback())
}

func TestWorkflowClock(t *testing.T) {
	w := submission.New(nil, logger())
	w.SetClock(func() time.Time { return now })

	var seen time.Time
	assert.NoError(t, w.Submit(context.Background(), submission.Submission{
		Validate: func(now time.Time) submission.FieldErrors {
			seen = now
			return nil
		},
	}))
	assert.Equal(t, now, seen)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "", submission.FailureMessage(nil))
	assert.Equal(t, submission.SignInMessage, submission.FailureMessage(errors.Wrap(liblf.ErrNotSignedIn, "could not get ID token")))
	assert.Equal(t, submission.SignInMessage, submission.FailureMessage(&liblf.LFError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized access"}))
	assert.Equal(t, "You can only update your own items", submission.FailureMessage(&liblf.LFError{StatusCode: http.StatusForbidden, Message: "You can only update your own items"}))
	assert.Equal(t, submission.GenericFailureMessage, submission.FailureMessage(errors.New("connection refused")))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-confirmation", submission.AwaitingConfirmation.String())
	assert.Equal(t, "failed", submission.Failed.String())
}
