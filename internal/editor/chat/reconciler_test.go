package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-studio/internal/editor/gateway"
)

type sendCall struct {
	text   string
	result chan sendResult
}

type sendResult struct {
	ex  gateway.Exchange
	err error
}

type fakeClient struct {
	mu           sync.Mutex
	history      []gateway.Turn
	historyErr   error
	historyCalls int
	sendCount    int
	sends        chan sendCall
}

func newFakeClient() *fakeClient {
	return &fakeClient{sends: make(chan sendCall)}
}

func (f *fakeClient) ListChatTurns(ctx context.Context, ownerID, docID string, limit int) ([]gateway.Turn, error) {
	f.mu.Lock()
	f.historyCalls++
	history, err := f.history, f.historyErr
	f.mu.Unlock()
	return history, err
}

func (f *fakeClient) SendChatTurn(ctx context.Context, ownerID, docID, text string) (gateway.Exchange, error) {
	f.mu.Lock()
	f.sendCount++
	f.mu.Unlock()
	call := sendCall{text: text, result: make(chan sendResult)}
	f.sends <- call
	res := <-call.result
	return res.ex, res.err
}

var base = time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

func serverTurn(id, role, content string, offset int) gateway.Turn {
	return gateway.Turn{ID: id, Role: role, Content: content, CreatedAt: base.Add(time.Duration(offset) * time.Second)}
}

func exchange(n int, text string) gateway.Exchange {
	return gateway.Exchange{
		UserTurn:      serverTurn(fmt.Sprintf("u%d", n), RoleUser, text, n*2),
		AssistantTurn: serverTurn(fmt.Sprintf("a%d", n), RoleAssistant, "reply to "+text, n*2+1),
	}
}

func newReconciler(client Client) *Reconciler {
	n := 0
	return New(client, "u-1", "r-1",
		WithClock(func() time.Time { return base }),
		WithIDs(func() string { n++; return fmt.Sprintf("tmp-%d", n) }),
	)
}

// sendAsync starts a send and returns the call the client received plus the
// channel carrying Send's result.
func sendAsync(t *testing.T, r *Reconciler, f *fakeClient, text string) (sendCall, <-chan error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Send(context.Background(), text) }()
	select {
	case call := <-f.sends:
		return call, done
	case <-time.After(2 * time.Second):
		t.Fatalf("send never reached the client")
		return sendCall{}, nil
	}
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("send did not settle")
		return nil
	}
}

func ids(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.ID)
	}
	return out
}

func TestSendShowsOptimisticPairThenConfirms(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)

	call, done := sendAsync(t, r, f, "  tighten my summary  ")
	assert.Equal(t, "tighten my summary", call.text)

	turns := r.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{ID: "tmp-1", Role: RoleUser, Content: "tighten my summary", CreatedAt: base, Pending: true}, turns[0])
	assert.Equal(t, "tmp-1-assistant", turns[1].ID)
	assert.Equal(t, Placeholder, turns[1].Content)
	assert.True(t, turns[1].Pending)
	assert.True(t, r.Pending())
	assert.Equal(t, Optimistic, r.Phase())

	call.result <- sendResult{ex: exchange(1, "tighten my summary")}
	require.NoError(t, wait(t, done))

	turns = r.Turns()
	assert.Equal(t, []string{"u1", "a1"}, ids(turns))
	assert.False(t, turns[0].Pending)
	assert.Equal(t, "reply to tighten my summary", turns[1].Content)
	assert.False(t, r.Pending())
}

func TestSendRejectsEmptyText(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)

	err := r.Send(context.Background(), " \n\t ")
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
	assert.Empty(t, r.Turns())
	assert.Zero(t, f.sendCount)
}

func TestSecondSendWhilePendingIsRejected(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)

	call, done := sendAsync(t, r, f, "first")
	err := r.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSendPending)
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
	assert.Len(t, r.Turns(), 2)

	call.result <- sendResult{ex: exchange(1, "first")}
	require.NoError(t, wait(t, done))
	assert.Equal(t, 1, f.sendCount)
}

func TestFailedSendRemovesOptimisticPair(t *testing.T) {
	f := newFakeClient()
	f.history = []gateway.Turn{
		serverTurn("A", RoleUser, "earlier question", -10),
		serverTurn("B", RoleAssistant, "earlier answer", -9),
	}
	r := newReconciler(f)
	require.NoError(t, r.LoadHistory(context.Background()))
	boom := &gateway.Error{Kind: gateway.KindUnavailable, Message: "assistant down"}

	call, done := sendAsync(t, r, f, "hello")
	assert.Equal(t, []string{"A", "B", "tmp-1", "tmp-1-assistant"}, ids(r.Turns()))
	call.result <- sendResult{err: boom}
	err := wait(t, done)

	assert.ErrorIs(t, err, boom)
	assert.True(t, gateway.IsRetryable(err))
	assert.Equal(t, []string{"A", "B"}, ids(r.Turns()))
	assert.Equal(t, "earlier answer", r.Turns()[1].Content)
	assert.Equal(t, Idle, r.Phase())

	call, done = sendAsync(t, r, f, "hello again")
	call.result <- sendResult{ex: exchange(1, "hello again")}
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"A", "B", "u1", "a1"}, ids(r.Turns()))
}

func TestSendAfterHistoryAppendsConfirmedPair(t *testing.T) {
	f := newFakeClient()
	f.history = []gateway.Turn{
		serverTurn("A", RoleUser, "earlier question", -10),
		serverTurn("B", RoleAssistant, "earlier answer", -9),
	}
	r := newReconciler(f)
	require.NoError(t, r.LoadHistory(context.Background()))

	call, done := sendAsync(t, r, f, "next question")
	call.result <- sendResult{ex: exchange(7, "next question")}
	require.NoError(t, wait(t, done))

	turns := r.Turns()
	assert.Equal(t, []string{"A", "B", "u7", "a7"}, ids(turns))
	for _, turn := range turns {
		assert.False(t, turn.Pending, turn.ID)
	}
	assert.Equal(t, "reply to next question", turns[3].Content)
}

func TestLoadHistorySeedsAheadOfOptimisticTurns(t *testing.T) {
	f := newFakeClient()
	f.history = []gateway.Turn{
		serverTurn("h1", RoleUser, "old question", -10),
		serverTurn("h2", RoleAssistant, "old answer", -9),
	}
	r := newReconciler(f)

	call, done := sendAsync(t, r, f, "new question")
	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Equal(t, []string{"h1", "h2", "tmp-1", "tmp-1-assistant"}, ids(r.Turns()))

	call.result <- sendResult{ex: exchange(1, "new question")}
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"h1", "h2", "u1", "a1"}, ids(r.Turns()))
}

func TestLoadHistoryRunsOnce(t *testing.T) {
	f := newFakeClient()
	f.history = []gateway.Turn{serverTurn("h1", RoleUser, "hi", 0)}
	r := newReconciler(f)

	require.NoError(t, r.LoadHistory(context.Background()))
	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Equal(t, 1, f.historyCalls)
	assert.Equal(t, []string{"h1"}, ids(r.Turns()))
}

func TestLoadHistoryRetriesAfterFailure(t *testing.T) {
	f := newFakeClient()
	f.historyErr = errors.New("offline")
	r := newReconciler(f)

	require.Error(t, r.LoadHistory(context.Background()))
	f.mu.Lock()
	f.historyErr = nil
	f.history = []gateway.Turn{serverTurn("h1", RoleUser, "hi", 0)}
	f.mu.Unlock()

	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Equal(t, []string{"h1"}, ids(r.Turns()))
}

func TestLoadHistorySkipsTurnsAlreadyShown(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)

	call, done := sendAsync(t, r, f, "q")
	call.result <- sendResult{ex: exchange(1, "q")}
	require.NoError(t, wait(t, done))

	ex := exchange(1, "q")
	f.history = []gateway.Turn{serverTurn("h1", RoleUser, "older", -5), ex.UserTurn, ex.AssistantTurn}
	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Equal(t, []string{"h1", "u1", "a1"}, ids(r.Turns()))
}

func TestConfirmationDoesNotDuplicateTurnsFromHistory(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)
	ex := exchange(1, "q")

	call, done := sendAsync(t, r, f, "q")
	// the server already committed the pair when history was read
	f.history = []gateway.Turn{ex.UserTurn, ex.AssistantTurn}
	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Equal(t, []string{"u1", "a1", "tmp-1", "tmp-1-assistant"}, ids(r.Turns()))

	call.result <- sendResult{ex: ex}
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"u1", "a1"}, ids(r.Turns()))
}

func TestConfirmLockedFallsBackToScanAndAppend(t *testing.T) {
	r := newReconciler(newFakeClient())
	r.turns = []Turn{{ID: "x"}, {ID: "tmp-1", Pending: true}}
	r.index["tmp-1"] = 0
	r.index["tmp-1-assistant"] = 5

	ex := exchange(1, "q")
	r.confirmLocked("tmp-1", ex.UserTurn)
	r.confirmLocked("tmp-1-assistant", ex.AssistantTurn)
	assert.Equal(t, []string{"x", "u1", "a1"}, ids(r.turns))
	assert.Empty(t, r.index)

	r.confirmLocked("tmp-9", ex.AssistantTurn)
	assert.Equal(t, []string{"x", "u1", "a1"}, ids(r.turns))
}

func TestObserversSeeEveryChange(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)

	var mu sync.Mutex
	var seen [][]string
	cancel := r.Subscribe(func(turns []Turn) {
		mu.Lock()
		seen = append(seen, ids(turns))
		mu.Unlock()
	})

	call, done := sendAsync(t, r, f, "q")
	call.result <- sendResult{ex: exchange(1, "q")}
	require.NoError(t, wait(t, done))

	mu.Lock()
	assert.Equal(t, [][]string{{"tmp-1", "tmp-1-assistant"}, {"u1", "a1"}}, seen)
	mu.Unlock()

	cancel()
	call, done = sendAsync(t, r, f, "q2")
	call.result <- sendResult{ex: exchange(2, "q2")}
	require.NoError(t, wait(t, done))
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
}

func TestCloseDropsLateResults(t *testing.T) {
	f := newFakeClient()
	r := newReconciler(f)
	notified := 0
	r.Subscribe(func([]Turn) { notified++ })

	call, done := sendAsync(t, r, f, "q")
	r.Close()
	call.result <- sendResult{ex: exchange(1, "q")}

	assert.ErrorIs(t, wait(t, done), ErrClosed)
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"tmp-1", "tmp-1-assistant"}, ids(r.Turns()))
	assert.ErrorIs(t, r.Send(context.Background(), "again"), ErrClosed)
}

func TestMissingIdentityLoadsNothing(t *testing.T) {
	f := newFakeClient()
	r := New(f, "", "r-1")
	require.NoError(t, r.LoadHistory(context.Background()))
	assert.Zero(t, f.historyCalls)
}
