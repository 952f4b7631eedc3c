package contact_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/caligben/internal/contact"
	"github.com/dalemusser/caligben/internal/contact/contacttest"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	attempts []bool
	reverts  []contact.RevertCause
}

func (o *recordingObserver) Attempted(res contact.Result)       { o.attempts = append(o.attempts, res.Valid) }
func (o *recordingObserver) Reverted(cause contact.RevertCause) { o.reverts = append(o.reverts, cause) }

type memRecorder struct {
	subs []contact.Submission
	err  error
}

func (m *memRecorder) Record(_ context.Context, sub contact.Submission) error {
	m.subs = append(m.subs, sub)
	return m.err
}

func acceptedFields() contact.Fields {
	return contact.Fields{
		Name:    "Alice",
		Email:   "alice@example.com",
		Service: "tutoring",
		Message: "Please contact me soon",
	}
}

type fixture struct {
	page  *contact.Page
	clock *contacttest.Clock
	rec   *memRecorder
	obs   *recordingObserver
	ctrl  *contact.Controller
}

func newFixture(opts ...contact.Option) *fixture {
	f := &fixture{
		page:  contact.NewPage(),
		clock: contacttest.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		rec:   &memRecorder{},
		obs:   &recordingObserver{},
	}
	base := []contact.Option{
		contact.WithClock(f.clock),
		contact.WithRecorder(f.rec),
		contact.WithObserver(f.obs),
		contact.WithIDFunc(func() string { return "sub-1" }),
	}
	f.ctrl = contact.NewController(f.page, append(base, opts...)...)
	return f
}

func TestSubmitAttempt_Invalid(t *testing.T) {
	f := newFixture()
	raw := contact.Fields{Name: " A ", Email: "a@b.co", Service: "tutoring", Message: "short"}

	res := f.ctrl.SubmitAttempt(context.Background(), raw)
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if got := f.ctrl.State(); got != contact.Editing {
		t.Errorf("State = %v, want %v", got, contact.Editing)
	}

	snap := f.page.Snapshot()
	if !snap.FormVisible || snap.SuccessVisible {
		t.Errorf("form/success visible = %v/%v, want true/false", snap.FormVisible, snap.SuccessVisible)
	}
	if diff := cmp.Diff(raw, snap.Values); diff != "" {
		t.Errorf("raw values should be displayed back (-want +got):\n%s", diff)
	}
	wantSlots := map[contact.Field]contact.Slot{
		contact.FieldName:    {ID: "nameError", Text: "Name must be at least 2 characters", Visible: true},
		contact.FieldEmail:   {ID: "emailError"},
		contact.FieldPhone:   {ID: "phoneError"},
		contact.FieldService: {ID: "serviceError"},
		contact.FieldMessage: {ID: "messageError", Text: "Message must be at least 10 characters", Visible: true},
	}
	if diff := cmp.Diff(wantSlots, snap.Slots); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
	if len(f.rec.subs) != 0 {
		t.Errorf("invalid attempt recorded %d submissions", len(f.rec.subs))
	}
	if f.ctrl.Pending() != nil {
		t.Error("invalid attempt scheduled a reversion")
	}
}

func TestSubmitAttempt_ReplacesPreviousErrors(t *testing.T) {
	f := newFixture()
	f.ctrl.SubmitAttempt(context.Background(), contact.Fields{})
	f.ctrl.SubmitAttempt(context.Background(), contact.Fields{Name: "Alice", Email: "bad", Service: "tutoring", Message: "Please contact me soon"})

	snap := f.page.Snapshot()
	for _, field := range contact.AllFields {
		visible := snap.Slots[field].Visible
		if field == contact.FieldEmail && !visible {
			t.Errorf("%s slot should be visible", field)
		}
		if field != contact.FieldEmail && visible {
			t.Errorf("%s slot should be hidden after resubmission", field)
		}
	}
}

func TestSubmitAttempt_ConfirmationCycle(t *testing.T) {
	f := newFixture()
	raw := contact.Fields{Name: "  Alice ", Email: "alice@example.com", Service: "tutoring", Message: "Please contact me soon"}

	res := f.ctrl.SubmitAttempt(context.Background(), raw)
	if !res.Valid {
		t.Fatalf("expected valid result, got %v", res.Messages())
	}
	if got := f.ctrl.State(); got != contact.SubmittedConfirmation {
		t.Fatalf("State = %v, want %v", got, contact.SubmittedConfirmation)
	}

	snap := f.page.Snapshot()
	if snap.FormVisible || !snap.SuccessVisible {
		t.Fatalf("after submit form/success visible = %v/%v, want false/true", snap.FormVisible, snap.SuccessVisible)
	}

	wantSub := contact.Submission{
		ID:         "sub-1",
		Fields:     raw.Trimmed(),
		ReceivedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff([]contact.Submission{wantSub}, f.rec.subs); diff != "" {
		t.Errorf("recorded submissions mismatch (-want +got):\n%s", diff)
	}

	rev := f.ctrl.Pending()
	if rev == nil {
		t.Fatal("expected a pending reversion")
	}
	if want := wantSub.ReceivedAt.Add(5000 * time.Millisecond); !rev.At().Equal(want) {
		t.Errorf("reversion at %v, want %v", rev.At(), want)
	}

	f.clock.Advance(4999 * time.Millisecond)
	if snap := f.page.Snapshot(); snap.FormVisible {
		t.Fatal("form reappeared before 5000ms")
	}

	f.clock.Advance(time.Millisecond)
	snap = f.page.Snapshot()
	if !snap.FormVisible || snap.SuccessVisible {
		t.Errorf("after delay form/success visible = %v/%v, want true/false", snap.FormVisible, snap.SuccessVisible)
	}
	if diff := cmp.Diff(contact.Fields{}, snap.Values); diff != "" {
		t.Errorf("fields not cleared (-want +got):\n%s", diff)
	}
	if got := f.ctrl.State(); got != contact.Editing {
		t.Errorf("State = %v, want %v", got, contact.Editing)
	}
	if f.ctrl.Pending() != nil {
		t.Error("pending reversion should be cleared")
	}
	if diff := cmp.Diff([]contact.RevertCause{contact.RevertExpired}, f.obs.reverts); diff != "" {
		t.Errorf("reverts mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitAttempt_StaleTimerDoesNotCorruptNewCycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ok := acceptedFields()

	f.ctrl.SubmitAttempt(ctx, ok)
	f.clock.Advance(3 * time.Second)

	// A second accepted submission before the first timer fires.
	f.ctrl.SubmitAttempt(ctx, ok)
	second := f.ctrl.Pending()

	f.clock.Advance(2 * time.Second) // first timer fires here
	if f.clock.Fired() != 1 {
		t.Fatalf("fired = %d, want 1", f.clock.Fired())
	}
	if got := f.ctrl.State(); got != contact.SubmittedConfirmation {
		t.Fatalf("stale timer changed state to %v", got)
	}
	if f.ctrl.Pending() != second {
		t.Fatal("stale timer replaced the pending reversion")
	}

	f.clock.Advance(3 * time.Second)
	if got := f.ctrl.State(); got != contact.Editing {
		t.Errorf("State = %v, want %v", got, contact.Editing)
	}
	want := []contact.RevertCause{contact.RevertSuperseded, contact.RevertExpired}
	if diff := cmp.Diff(want, f.obs.reverts); diff != "" {
		t.Errorf("reverts mismatch (-want +got):\n%s", diff)
	}
}

func TestReversion_Cancel(t *testing.T) {
	f := newFixture()
	f.ctrl.SubmitAttempt(context.Background(), acceptedFields())

	rev := f.ctrl.Pending()
	if !rev.Cancel() {
		t.Fatal("Cancel() = false on a pending reversion")
	}
	if rev.Cancel() {
		t.Error("second Cancel() should report false")
	}

	f.clock.Advance(10 * time.Second)
	if got := f.ctrl.State(); got != contact.SubmittedConfirmation {
		t.Errorf("cancelled reversion still ran; State = %v", got)
	}
	if f.clock.Fired() != 0 {
		t.Errorf("fired = %d, want 0", f.clock.Fired())
	}
}

func TestDismiss(t *testing.T) {
	f := newFixture()
	if f.ctrl.Dismiss() {
		t.Error("Dismiss() while editing should report false")
	}

	f.ctrl.SubmitAttempt(context.Background(), acceptedFields())
	if !f.ctrl.Dismiss() {
		t.Fatal("Dismiss() during confirmation should report true")
	}
	snap := f.page.Snapshot()
	if !snap.FormVisible || snap.SuccessVisible {
		t.Errorf("form/success visible = %v/%v, want true/false", snap.FormVisible, snap.SuccessVisible)
	}
	f.clock.Advance(contact.RevertDelay)
	if f.clock.Fired() != 0 {
		t.Error("dismissed reversion timer still fired")
	}
	if diff := cmp.Diff([]contact.RevertCause{contact.RevertDismissed}, f.obs.reverts); diff != "" {
		t.Errorf("reverts mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitAttempt_RecorderErrorStillConfirms(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(contact.WithLogger(zap.New(core)))
	f.rec.err = errors.New("disk full")

	res := f.ctrl.SubmitAttempt(context.Background(), acceptedFields())
	if !res.Valid {
		t.Fatal("expected valid result")
	}
	if got := f.ctrl.State(); got != contact.SubmittedConfirmation {
		t.Errorf("State = %v, want %v", got, contact.SubmittedConfirmation)
	}
	if n := logs.FilterMessage("contact submission not recorded").Len(); n != 1 {
		t.Errorf("warn logs = %d, want 1", n)
	}
}

func TestObserver_SeesEveryAttempt(t *testing.T) {
	f := newFixture()
	f.ctrl.SubmitAttempt(context.Background(), contact.Fields{})
	f.ctrl.SubmitAttempt(context.Background(), acceptedFields())
	if diff := cmp.Diff([]bool{false, true}, f.obs.attempts); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestRemaining(t *testing.T) {
	f := newFixture()
	if _, ok := f.ctrl.Remaining(); ok {
		t.Fatal("Remaining() ok while editing")
	}

	f.ctrl.SubmitAttempt(context.Background(), acceptedFields())
	f.clock.Advance(1200 * time.Millisecond)
	left, ok := f.ctrl.Remaining()
	if !ok || left != 3800*time.Millisecond {
		t.Errorf("Remaining() = %v, %v; want 3.8s, true", left, ok)
	}

	f.clock.Advance(3800 * time.Millisecond)
	if _, ok := f.ctrl.Remaining(); ok {
		t.Error("Remaining() ok after the reversion ran")
	}
}
