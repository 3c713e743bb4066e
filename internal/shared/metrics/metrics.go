package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	chatSendStartedTotal   atomic.Uint64
	chatSendCompletedTotal atomic.Uint64
	chatSendFailedTotal    atomic.Uint64
	chatPruneFailedTotal   atomic.Uint64
	contentSavesTotal      atomic.Uint64
	uploadsTotal           atomic.Uint64
	uploadsRejectedTotal   atomic.Uint64
	exportsTotal           atomic.Uint64

	llmLatency = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

func IncChatSendStarted()   { chatSendStartedTotal.Add(1) }
func IncChatSendCompleted() { chatSendCompletedTotal.Add(1) }
func IncChatSendFailed()    { chatSendFailedTotal.Add(1) }
func IncChatPruneFailed()   { chatPruneFailedTotal.Add(1) }
func IncContentSave()       { contentSavesTotal.Add(1) }
func IncUpload()            { uploadsTotal.Add(1) }
func IncUploadRejected()    { uploadsRejectedTotal.Add(1) }
func IncExport()            { exportsTotal.Add(1) }

// ObserveLLMLatency records one completion round trip.
func ObserveLLMLatency(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	llmLatency.Observe(ms)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "chat_send_started_total", "Chat sends started", chatSendStartedTotal.Load())
	writeCounter(&buf, "chat_send_completed_total", "Chat sends answered by the assistant", chatSendCompletedTotal.Load())
	writeCounter(&buf, "chat_send_failed_total", "Chat sends that failed", chatSendFailedTotal.Load())
	writeCounter(&buf, "chat_prune_failed_total", "Chat history prune tasks that failed", chatPruneFailedTotal.Load())
	writeCounter(&buf, "resume_content_saves_total", "Resume content saves", contentSavesTotal.Load())
	writeCounter(&buf, "resume_uploads_total", "Resume attachments stored", uploadsTotal.Load())
	writeCounter(&buf, "resume_uploads_rejected_total", "Resume attachments rejected", uploadsRejectedTotal.Load())
	writeCounter(&buf, "resume_exports_total", "Resume PDF exports", exportsTotal.Load())
	writeHistogram(&buf, "llm_latency_ms", "LLM completion latency in milliseconds", llmLatency.Snapshot())
	return buf.String()
}

// histogram keeps per-bucket counts; Render accumulates them.
type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
