package contact

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RevertDelay is the fixed time between an accepted submission and the
// automatic return to the editable form. It is not configurable.
const RevertDelay = 5000 * time.Millisecond

// State is the lifecycle position of a contact form.
type State int

const (
	Editing State = iota
	Submitting
	SubmittedConfirmation
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case SubmittedConfirmation:
		return "submitted_confirmation"
	}
	return "unknown"
}

// Timer is the handle of a scheduled callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Clock supplies time to a Controller. AfterFunc must run f on its own
// goroutine (or later from a test driver), never synchronously.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RevertCause says why a confirmation returned to the editable form.
type RevertCause string

const (
	RevertExpired    RevertCause = "expired"
	RevertDismissed  RevertCause = "dismissed"
	RevertSuperseded RevertCause = "superseded"
)

// Observer receives controller events, typically to feed metrics.
type Observer interface {
	Attempted(res Result)
	Reverted(cause RevertCause)
}

type nopObserver struct{}

func (nopObserver) Attempted(Result)     {}
func (nopObserver) Reverted(RevertCause) {}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock (tests use a manual clock).
func WithClock(clk Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithRecorder sets where accepted submissions are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDFunc overrides how submission IDs are generated.
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Controller validates submission attempts for one form and drives its View
// through Editing → Submitting → SubmittedConfirmation and back.
// All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	view     View
	clock    Clock
	recorder Recorder
	observer Observer
	logger   *zap.Logger
	newID    func() string

	state   State
	gen     uint64
	pending *Reversion
}

// NewController binds a controller to the view it owns.
func NewController(view View, opts ...Option) *Controller {
	c := &Controller{
		view:     view,
		clock:    systemClock{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
		state:    Editing,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.recorder == nil {
		c.recorder = NewLogRecorder(c.logger)
	}
	return c
}

// State returns the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the scheduled reversion of the current confirmation, or
// nil when none is pending.
func (c *Controller) Pending() *Reversion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Remaining reports how long the pending reversion has left on the
// controller's clock. ok is false when nothing is pending.
func (c *Controller) Remaining() (left time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0, false
	}
	return max(c.pending.at.Sub(c.clock.Now()), 0), true
}

// SubmitAttempt handles one submission of the form. raw values are shown
// back to the user as typed; validation and recording use trimmed values.
//
// On failure every error is written to its slot and the form stays in
// Editing. On success the submission is recorded, the form is hidden, the
// success message is shown and a reversion is scheduled after RevertDelay.
//
// An attempt made during a confirmation supersedes it: the old timer still
// fires but no longer affects the form.
func (c *Controller) SubmitAttempt(ctx context.Context, raw Fields) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == SubmittedConfirmation {
		c.revertLocked(RevertSuperseded)
	}

	c.view.ClearErrors()
	c.view.SetValues(raw)

	fields := raw.Trimmed()
	res := Validate(fields)
	for _, f := range AllFields {
		if e := res.Errors[f]; e != nil {
			c.view.ShowError(f, e.Message)
		}
	}
	c.observer.Attempted(res)
	if !res.Valid {
		return res
	}

	c.state = Submitting
	now := c.clock.Now()
	sub := Submission{ID: c.newID(), Fields: fields, ReceivedAt: now}
	if err := c.recorder.Record(ctx, sub); err != nil {
		// The visitor still gets the confirmation; recording is best effort.
		c.logger.Warn("contact submission not recorded",
			zap.String("submission_id", sub.ID), zap.Error(err))
	}

	c.view.SetFormVisible(false)
	c.view.SetSuccessVisible(true)
	c.state = SubmittedConfirmation

	c.gen++
	gen := c.gen
	rev := &Reversion{c: c, gen: gen, at: now.Add(RevertDelay)}
	rev.timer = c.clock.AfterFunc(RevertDelay, func() { c.expire(gen) })
	c.pending = rev

	return res
}

// Dismiss ends the current confirmation immediately, cancelling its pending
// reversion. It reports false when no confirmation is showing.
func (c *Controller) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != SubmittedConfirmation {
		return false
	}
	if c.pending != nil {
		c.pending.timer.Stop()
	}
	c.revertLocked(RevertDismissed)
	return true
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.gen != gen {
		c.logger.Debug("stale contact reversion ignored", zap.Uint64("generation", gen))
		return
	}
	c.revertLocked(RevertExpired)
}

// revertLocked restores the editable form. c.mu must be held.
func (c *Controller) revertLocked(cause RevertCause) {
	c.pending = nil
	c.view.ResetValues()
	c.view.SetFormVisible(true)
	c.view.SetSuccessVisible(false)
	c.state = Editing
	c.observer.Reverted(cause)
}

// Reversion is the scheduled return of a confirmation to the editable form.
type Reversion struct {
	c     *Controller
	gen   uint64
	at    time.Time
	timer Timer
}

// At returns when the reversion is due.
func (r *Reversion) At() time.Time {
	return r.at
}

// Cancel stops the reversion if it is still pending. The form stays in the
// confirmation state; callers that want the form back use Dismiss.
func (r *Reversion) Cancel() bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.pending != r {
		return false
	}
	r.c.pending = nil
	r.timer.Stop()
	return true
}
