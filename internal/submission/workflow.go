// Package submission validates and dispatches the mutations triggered by the forms.
//
// A Workflow performs at most one mutation per confirmation:
//
//	Idle -> Validating -> (AwaitingConfirmation) -> Submitting -> Succeeded
//	                  \-> Idle (field errors)                  \-> Failed -> Idle
package submission

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Workflow states.
const (
	Idle State = iota
	Validating
	AwaitingConfirmation
	Submitting
	Succeeded
	Failed
)

const (
	// GenericFailureMessage is displayed when the server gives no reason.
	GenericFailureMessage = "Something went wrong. Please try again."
	// SignInMessage is displayed when the mutation requires a session.
	SignInMessage = "Please sign in to continue."
)

var (
	// ErrInFlight is returned when a mutation is already being sent.
	ErrInFlight = errors.New("a submission is already in progress")
	// ErrNothingToConfirm is returned when there is no validated submission waiting for confirmation.
	ErrNothingToConfirm = errors.New("nothing to confirm")
)

type (
	// A State is a step of the Workflow.
	State int

	// An Invalidator discards cached resources.
	Invalidator interface {
		Invalidate(keys ...string)
	}

	// A Submission is one mutation with its validation rules.
	Submission struct {
		// Name is used for logging.
		Name string
		// Validate checks the form before any network call.
		Validate func(now time.Time) FieldErrors
		// Send performs the mutation.
		Send func(ctx context.Context) error
		// Invalidate lists the cache keys made stale by the mutation.
		Invalidate []string
		// OnSuccess is called once the mutation succeeded.
		OnSuccess func()
		// SuccessMessage is the feedback displayed on success.
		SuccessMessage string
	}

	// A Workflow drives submissions.
	Workflow struct {
		mu       sync.Mutex
		state    State
		confirm  bool
		pending  *Submission
		fields   FieldErrors
		lastErr  error
		feedback string

		cache Invalidator
		log   logrus.FieldLogger
		now   func() time.Time
	}
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// New returns a Workflow sending submissions as soon as they are valid.
func New(cache Invalidator, log logrus.FieldLogger) *Workflow {
	return &Workflow{
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// NewConfirmed returns a Workflow waiting for an explicit confirmation before sending a submission.
func NewConfirmed(cache Invalidator, log logrus.FieldLogger) *Workflow {
	w := New(cache, log)
	w.confirm = true
	return w
}

// SetClock overrides the time used by the validation rules.
func (w *Workflow) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// FieldErrors returns the errors of the last validation.
func (w *Workflow) FieldErrors() FieldErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fields
}

// LastError returns the error of the last failed mutation.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Feedback returns the message to display after the last mutation.
func (w *Workflow) Feedback() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feedback
}

// Submit validates the submission and sends it unless a confirmation is required.
// A FieldErrors is returned when the validation fails.
func (w *Workflow) Submit(ctx context.Context, s Submission) error {
	w.mu.Lock()
	if w.state == Submitting {
		w.mu.Unlock()
		return ErrInFlight
	}

	w.state = Validating
	w.pending = nil
	w.lastErr = nil
	w.feedback = ""
	w.fields = nil
	if s.Validate != nil {
		w.fields = s.Validate(w.now())
	}

	if !w.fields.Empty() {
		w.state = Idle
		fields := w.fields
		w.mu.Unlock()

		w.log.WithField("submission", s.Name).Debugf("rejected: %s", fields)
		return fields
	}

	if w.confirm {
		w.state = AwaitingConfirmation
		w.pending = &s
		w.mu.Unlock()
		return nil
	}

	return w.send(ctx, s) // Unlocks
}

// Confirm sends the submission awaiting confirmation.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case Submitting:
		w.mu.Unlock()
		return ErrInFlight
	case AwaitingConfirmation:
	default:
		w.mu.Unlock()
		return ErrNothingToConfirm
	}

	s := *w.pending
	w.pending = nil
	return w.send(ctx, s) // Unlocks
}

// Cancel drops the submission awaiting confirmation.
// It returns false if there was nothing to cancel.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != AwaitingConfirmation {
		return false
	}
	w.state = Idle
	w.pending = nil
	return true
}

// Reset goes back to Idle after a success.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Succeeded {
		w.state = Idle
	}
}

// send must be called with the lock held, it is released during the network call.
func (w *Workflow) send(ctx context.Context, s Submission) error {
	w.state = Submitting
	w.mu.Unlock()

	log := w.log.WithField("submission", s.Name)
	log.Debug("sending")

	err := ctx.Err()
	if err == nil && s.Send != nil {
		err = s.Send(ctx)
	}

	if err != nil {
		w.mu.Lock()
		w.state = Failed
		w.lastErr = err
		w.feedback = FailureMessage(err)
		w.state = Idle
		w.mu.Unlock()

		log.WithError(err).Warn("failed")
		return err
	}

	if w.cache != nil && len(s.Invalidate) > 0 {
		w.cache.Invalidate(s.Invalidate...)
	}
	if s.OnSuccess != nil {
		s.OnSuccess()
	}

	w.mu.Lock()
	w.state = Succeeded
	w.feedback = s.SuccessMessage
	w.mu.Unlock()

	log.Debug("succeeded")
	return nil
}

// FailureMessage returns the message displayed to the user for the given mutation error.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, liblf.ErrNotSignedIn) || liblf.StatusCode(err) == http.StatusUnauthorized {
		return SignInMessage
	}
	if m := liblf.Message(err); m != "" {
		return m
	}
	return GenericFailureMessage
}
