package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulativeOnce(t *testing.T) {
	h := newHistogram([]float64{10, 100, 1000})
	h.Observe(5)
	h.Observe(50)
	h.Observe(5000)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	want := []uint64{1, 1, 0}
	for i, c := range snap.counts {
		if c != want[i] {
			t.Fatalf("bucket %d: expected %d, got %d", i, want[i], c)
		}
	}
}

func TestRenderIncludesDomainCounters(t *testing.T) {
	IncChatSendStarted()
	IncContentSave()
	out := Render()
	for _, name := range []string{
		"chat_send_started_total",
		"resume_content_saves_total",
		"llm_latency_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}
