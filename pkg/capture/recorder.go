package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

const DefaultPollInterval = 50 * time.Millisecond

// ErrTimeout is returned by WaitForTraces when the context expires before
// the expected number of traces has been recorded.
var ErrTimeout = errors.New("timed out waiting for traces")

// Recorder accumulates spans reported by an instrumented client and groups
// them into traces ordered by first arrival. A trace is identified by its
// insertion index in the capture buffer.
type Recorder interface {
	Record(spans []model.Span) error
	Traces() []model.Trace
	TraceCount() int
	WaitForTraces(ctx context.Context, count int) ([]model.Trace, error)
	Reset()
}

type RecorderImpl struct {
	sessionId    string
	cache        WriteBehindCache[model.Span]
	arrivalOrder []string
	arrivalIndex map[string]int
	pollInterval time.Duration
	mu           sync.RWMutex
	logger       *zap.Logger
}

func NewRecorderImpl(
	cache WriteBehindCache[model.Span],
	pollInterval time.Duration,
	logger *zap.Logger,
) *RecorderImpl {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	sessionId := uuid.NewString()
	logger.Info("Creating new RecorderImpl", zap.String("sessionId", sessionId))
	return &RecorderImpl{
		sessionId:    sessionId,
		cache:        cache,
		arrivalIndex: make(map[string]int),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

func (r *RecorderImpl) SessionId() string {
	return r.sessionId
}

func (r *RecorderImpl) Record(spans []model.Span) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, span := range spans {
		if _, seen := r.arrivalIndex[span.TraceID]; !seen {
			r.arrivalIndex[span.TraceID] = len(r.arrivalOrder)
			r.arrivalOrder = append(r.arrivalOrder, span.TraceID)
		}
		err := r.cache.Put(span.TraceID, []model.Span{span})
		if err != nil && !errors.Is(err, ErrSetFailed) {
			return fmt.Errorf("failed to record span for trace %s: %w", span.TraceID, err)
		}
	}
	return nil
}

// Traces returns a snapshot of the captured traces in arrival order, spans
// within each trace sorted by start time so parents precede their children.
func (r *RecorderImpl) Traces() []model.Trace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	traces := make([]model.Trace, 0, len(r.arrivalOrder))
	for _, traceId := range r.arrivalOrder {
		spans, err := r.cache.Get(traceId)
		if err != nil {
			r.logger.Error("Failed to get spans from the grouping cache",
				zap.String("sessionId", r.sessionId),
				zap.String("traceId", traceId),
				zap.Error(err),
			)
			continue
		}
		sortedSpans := make([]model.Span, len(spans))
		copy(sortedSpans, spans)
		sort.SliceStable(sortedSpans, func(i, j int) bool {
			return sortedSpans[i].StartTime.Before(sortedSpans[j].StartTime)
		})
		traces = append(traces, model.Trace{TraceID: traceId, Spans: sortedSpans})
	}
	return traces
}

func (r *RecorderImpl) TraceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arrivalOrder)
}

// WaitForTraces polls until count traces have been recorded and returns the
// first count of them in arrival order. It fails with ErrTimeout when ctx
// expires first.
func (r *RecorderImpl) WaitForTraces(ctx context.Context, count int) ([]model.Trace, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		if r.TraceCount() >= count {
			traces := r.Traces()
			return traces[:count], nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf(
				"%w: expected %d traces, got %d", ErrTimeout, count, r.TraceCount(),
			)
		case <-ticker.C:
		}
	}
}

// Reset drops all recorded traces so the recorder can be reused between
// scenarios.
func (r *RecorderImpl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrivalOrder = nil
	r.arrivalIndex = make(map[string]int)
	r.cache.Reset()
}
