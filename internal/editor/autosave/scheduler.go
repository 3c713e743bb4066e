// Package autosave persists store edits after a quiet period, with at most
// one save in flight per document.
package autosave

import (
	"context"
	"sync"
	"time"

	"resume-studio/internal/editor/gateway"
	"resume-studio/internal/editor/store"
	"resume-studio/internal/resume"
	"resume-studio/internal/shared/telemetry"
)

// DefaultDebounce is the quiet period before a save fires.
const DefaultDebounce = 600 * time.Millisecond

// State is the scheduler's position in the save cycle.
type State int

const (
	// Idle: no timer armed and nothing in flight.
	Idle State = iota
	// Pending: a debounce timer is armed.
	Pending
	// InFlight: a save is running.
	InFlight
	// InFlightQueued: the timer fired while a save was running; another save
	// follows as soon as it settles.
	InFlightQueued
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case InFlightQueued:
		return "in_flight_queued"
	default:
		return "unknown"
	}
}

// Saver writes content for a document. gateway.Gateway satisfies it.
type Saver interface {
	SaveContent(ctx context.Context, ownerID, docID string, content resume.Content) (gateway.SaveResult, error)
}

// Options configures a Scheduler.
type Options struct {
	Debounce time.Duration
	Clock    Clock
	// OnError is called once per failed save.
	OnError func(error)
	// OnSaved is called after each successful save with the server timestamp.
	OnSaved func(updatedAt time.Time)
}

type job struct {
	ownerID  string
	docID    string
	content  resume.Content
	snapshot string
}

// Scheduler watches a store and saves divergent content.
type Scheduler struct {
	store *store.Store
	saver Saver
	opts  Options

	mu          sync.Mutex
	timer       Timer
	timerGen    uint64
	deadline    time.Time
	inFlight    bool
	flightDoc   string
	queued      bool
	closed      bool
	changed     chan struct{}
	unsubscribe func()
}

// New attaches a scheduler to st.
func New(st *store.Store, saver Saver, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	s := &Scheduler{
		store:   st,
		saver:   saver,
		opts:    opts,
		changed: make(chan struct{}),
	}
	s.unsubscribe = st.Subscribe(s.onStoreEvent)
	return s
}

// State reports the current phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Deadline returns when the armed timer fires; zero when none is armed.
func (s *Scheduler) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}
	}
	return s.deadline
}

func (s *Scheduler) stateLocked() State {
	switch {
	case s.inFlight && s.queued:
		return InFlightQueued
	case s.inFlight:
		return InFlight
	case s.timer != nil:
		return Pending
	default:
		return Idle
	}
}

func (s *Scheduler) onStoreEvent(ev store.Event) {
	if !ev.ContentChanged {
		return
	}
	doc := s.store.Document()
	if doc.ID == "" || doc.OwnerID == "" {
		return
	}
	synced := s.store.SaveState().LastSyncedSnapshot
	matchesSynced := synced != nil && *synced == resume.Fingerprint(doc.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	// While a save is in flight the synced snapshot is about to move, so a
	// revert to it still needs a save of its own.
	if s.closed || (matchesSynced && !(s.inFlight && s.flightDoc == doc.ID)) {
		return
	}
	s.armLocked(s.opts.Debounce)
}

func (s *Scheduler) armLocked(d time.Duration) {
	s.stopTimerLocked()
	gen := s.timerGen
	s.deadline = s.opts.Clock.Now().Add(d)
	s.timer = s.opts.Clock.AfterFunc(d, func() { s.fire(gen) })
	s.signalLocked()
}

// stopTimerLocked cancels the armed timer. Bumping the generation makes a
// callback that already started ignore itself.
func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	j := s.triggerLocked()
	s.mu.Unlock()
	s.start(j)
}

// Flush saves now instead of waiting for the debounce. It is the manual retry
// after a failed save.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	j := s.triggerLocked()
	s.mu.Unlock()
	s.start(j)
}

// triggerLocked queues behind an in-flight save or prepares a new one.
func (s *Scheduler) triggerLocked() *job {
	defer s.signalLocked()
	if s.inFlight {
		s.queued = true
		return nil
	}
	return s.prepareLocked()
}

// prepareLocked reads the latest content and claims the in-flight slot if it
// still differs from what was last synced.
func (s *Scheduler) prepareLocked() *job {
	doc := s.store.Document()
	if doc.ID == "" || doc.OwnerID == "" {
		return nil
	}
	snapshot := resume.Fingerprint(doc.Content)
	if synced := s.store.SaveState().LastSyncedSnapshot; synced != nil && *synced == snapshot {
		return nil
	}
	s.inFlight = true
	s.flightDoc = doc.ID
	return &job{
		ownerID:  doc.OwnerID,
		docID:    doc.ID,
		content:  doc.Content.Clone(),
		snapshot: snapshot,
	}
}

func (s *Scheduler) start(j *job) {
	if j == nil {
		return
	}
	s.store.MarkSaving(true)
	telemetry.Debug("autosave.dispatch", map[string]any{"resume_id": j.docID})
	go s.run(j)
}

func (s *Scheduler) run(j *job) {
	res, err := s.saver.SaveContent(context.Background(), j.ownerID, j.docID, j.content)
	s.settle(j, res, err)
}

func (s *Scheduler) settle(j *job, res gateway.SaveResult, err error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	apply := !closed
	if current := s.store.Document(); apply && (current.ID != j.docID || current.OwnerID != j.ownerID) {
		// The store moved to another document; its save state is not ours.
		telemetry.Debug("autosave.stale_result", map[string]any{"resume_id": j.docID, "current_id": current.ID, "err": err})
		apply = false
	}

	if apply {
		if err != nil {
			s.store.MarkSaving(false)
			telemetry.Debug("autosave.failed", map[string]any{"resume_id": j.docID, "err": err})
			if s.opts.OnError != nil {
				s.opts.OnError(err)
			}
		} else {
			s.store.MarkSynced(j.snapshot)
			s.store.MarkSaved(s.opts.Clock.Now())
			s.store.MarkSaving(false)
			if s.opts.OnSaved != nil {
				s.opts.OnSaved(res.UpdatedAt)
			}
		}
	}

	s.mu.Lock()
	s.inFlight = false
	s.flightDoc = ""
	var next *job
	if !s.closed && s.queued {
		s.queued = false
		next = s.prepareLocked()
	}
	s.signalLocked()
	s.mu.Unlock()
	s.start(next)
}

func (s *Scheduler) signalLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// WaitIdle blocks until nothing is armed or in flight, or ctx ends.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed || s.stateLocked() == Idle {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels any armed timer without saving and detaches from the store.
// A save that settles afterwards is ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.queued = false
	s.signalLocked()
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
