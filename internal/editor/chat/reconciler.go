// Package chat keeps the editor's chat transcript, showing a sent message and
// a placeholder reply right away and swapping in the server's turns once the
// send settles.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-studio/internal/editor/gateway"
	"resume-studio/internal/shared/telemetry"
)

const (
	// HistoryLimit is how many turns are loaded on first access.
	HistoryLimit = 50
	// Placeholder is shown in place of the reply while a send is pending.
	Placeholder = "Thinking through a helpful response…"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	// ErrSendPending rejects a send while another one is outstanding.
	ErrSendPending = errors.New("a message is already being sent")
	// ErrClosed is returned once the transcript has been closed.
	ErrClosed = errors.New("chat closed")
)

// Turn is one entry of the transcript. Pending entries carry temporary ids.
type Turn struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
	Pending   bool
}

// Phase tracks whether an optimistic pair is outstanding.
type Phase int

const (
	Idle Phase = iota
	Optimistic
)

// Client is the gateway surface the transcript needs.
type Client interface {
	ListChatTurns(ctx context.Context, ownerID, docID string, limit int) ([]gateway.Turn, error)
	SendChatTurn(ctx context.Context, ownerID, docID, text string) (gateway.Exchange, error)
}

// Observer receives a copy of the transcript after every change.
type Observer func([]Turn)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the time used to stamp optimistic turns.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDs sets the generator for temporary user-turn ids.
func WithIDs(next func() string) Option {
	return func(r *Reconciler) {
		if next != nil {
			r.newID = next
		}
	}
}

// Reconciler owns the transcript of one document.
type Reconciler struct {
	client  Client
	ownerID string
	docID   string
	now     func() time.Time
	newID   func() string

	mu        sync.Mutex
	turns     []Turn
	index     map[string]int // temp id -> position at insertion
	phase     Phase
	loaded    bool
	loading   bool
	closed    bool
	nextObs   int
	observers map[int]Observer
}

// New returns an empty transcript for docID.
func New(client Client, ownerID, docID string, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:    client,
		ownerID:   ownerID,
		docID:     docID,
		now:       time.Now,
		newID:     uuid.NewString,
		index:     map[string]int{},
		observers: map[int]Observer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Turns returns a copy of the transcript.
func (r *Reconciler) Turns() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Pending reports whether a send is outstanding.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == Optimistic
}

// Phase reports the current phase.
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Subscribe registers fn and returns a function that removes it.
func (r *Reconciler) Subscribe(fn Observer) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}
	}
	r.nextObs++
	id := r.nextObs
	r.observers[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// Close drops observers. Results that arrive later are discarded.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.observers = map[int]Observer{}
}

// LoadHistory fetches the stored transcript the first time it is called and
// places it ahead of any optimistic entries. A failed load may be retried.
func (r *Reconciler) LoadHistory(ctx context.Context) error {
	if r.ownerID == "" || r.docID == "" {
		return nil
	}
	r.mu.Lock()
	if r.closed || r.loaded || r.loading {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.mu.Unlock()

	history, err := r.client.ListChatTurns(ctx, r.ownerID, r.docID, HistoryLimit)

	r.mu.Lock()
	r.loading = false
	if err != nil {
		r.mu.Unlock()
		telemetry.Warn("chat.history.load_failed", map[string]any{"resume_id": r.docID, "err": err})
		return err
	}
	r.loaded = true
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	seeded := make([]Turn, 0, len(history)+len(r.turns))
	for _, t := range history {
		if r.findLocked(t.ID) >= 0 || containsID(seeded, t.ID) {
			continue
		}
		seeded = append(seeded, fromGateway(t))
	}
	shift := len(seeded)
	r.turns = append(seeded, r.turns...)
	for id := range r.index {
		r.index[id] += shift
	}
	r.notifyAndUnlock()
	return nil
}

// Send posts text and blocks until the server answers. Meanwhile the message
// and a placeholder reply are visible as pending turns.
func (r *Reconciler) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &gateway.Error{Kind: gateway.KindValidation, Message: "Message content is required."}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.phase == Optimistic {
		r.mu.Unlock()
		return &gateway.Error{Kind: gateway.KindValidation, Message: "Please wait for the current reply.", Err: ErrSendPending}
	}
	userID := r.newID()
	assistantID := userID + "-assistant"
	at := r.now()
	r.index[userID] = len(r.turns)
	r.turns = append(r.turns, Turn{ID: userID, Role: RoleUser, Content: text, CreatedAt: at, Pending: true})
	r.index[assistantID] = len(r.turns)
	r.turns = append(r.turns, Turn{ID: assistantID, Role: RoleAssistant, Content: Placeholder, CreatedAt: at, Pending: true})
	r.phase = Optimistic
	r.notifyAndUnlock()

	ex, err := r.client.SendChatTurn(ctx, r.ownerID, r.docID, text)

	r.mu.Lock()
	r.phase = Idle
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		r.removeLocked(userID)
		r.removeLocked(assistantID)
		r.notifyAndUnlock()
		return err
	}
	r.confirmLocked(userID, ex.UserTurn)
	r.confirmLocked(assistantID, ex.AssistantTurn)
	r.notifyAndUnlock()
	return nil
}

// confirmLocked swaps a temporary entry for the server's turn.
func (r *Reconciler) confirmLocked(tempID string, server gateway.Turn) {
	pos, ok := r.index[tempID]
	delete(r.index, tempID)
	if !ok || pos >= len(r.turns) || r.turns[pos].ID != tempID {
		pos = r.findLocked(tempID)
	}
	existing := r.findLocked(server.ID)
	switch {
	case pos >= 0 && existing >= 0 && existing != pos:
		r.removeAt(pos)
	case pos >= 0:
		r.turns[pos] = fromGateway(server)
	case existing < 0:
		r.turns = append(r.turns, fromGateway(server))
	}
}

func (r *Reconciler) removeLocked(id string) {
	delete(r.index, id)
	if pos := r.findLocked(id); pos >= 0 {
		r.removeAt(pos)
	}
}

func (r *Reconciler) removeAt(pos int) {
	r.turns = append(r.turns[:pos], r.turns[pos+1:]...)
	for id, p := range r.index {
		if p > pos {
			r.index[id] = p - 1
		}
	}
}

func (r *Reconciler) findLocked(id string) int {
	for i := range r.turns {
		if r.turns[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) snapshotLocked() []Turn {
	out := make([]Turn, len(r.turns))
	copy(out, r.turns)
	return out
}

// notifyAndUnlock releases mu and then calls observers with a snapshot.
func (r *Reconciler) notifyAndUnlock() {
	snap := r.snapshotLocked()
	observers := make([]Observer, 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	r.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func fromGateway(t gateway.Turn) Turn {
	return Turn{ID: t.ID, Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt}
}

func containsID(turns []Turn, id string) bool {
	for _, t := range turns {
		if t.ID == id {
			return true
		}
	}
	return false
}
