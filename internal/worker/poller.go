// Package worker contains the task poller and the tracker that supervises
// one poller per conversation.
package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/domain/task"
	"agent-server/services/conversation-sync/internal/infrastructure/cache"
	"agent-server/services/conversation-sync/internal/infrastructure/metrics"
	"agent-server/services/conversation-sync/internal/infrastructure/observability"
)

// TaskFetcher reads the current snapshot of a start task from the agent
// backend.
type TaskFetcher interface {
	GetStartTask(ctx context.Context, taskID string) (*task.Task, error)
}

// Snapshot is the read-only view a poller exposes for rendering. Loading is
// true until the first round completes either way; Err carries the most
// recent fetch failure and is cleared by the next successful fetch.
type Snapshot struct {
	Task            *task.Task
	Status          task.Status
	Detail          string
	ResultReference string
	Err             error
	Loading         bool
	Settled         bool
}

// Poller repeatedly fetches a task until it observes a terminal status, then
// performs exactly one settlement: clear the in-flight task id in the
// persisted and live stores, and on success invalidate the parent
// conversation's cache entry. A poller serves a single (taskID,
// parentConversationID) pair; a superseding task gets a fresh poller.
type Poller struct {
	taskID               string
	parentConversationID string

	fetcher  TaskFetcher
	states   conversation.StateStore
	live     conversation.LiveStore
	queries  cache.QueryCache
	interval time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	snap Snapshot

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewPoller creates a poller. Empty taskID or parentConversationID puts it in
// inert mode: Run returns without fetching or writing anything.
func NewPoller(
	taskID string,
	parentConversationID string,
	fetcher TaskFetcher,
	states conversation.StateStore,
	live conversation.LiveStore,
	queries cache.QueryCache,
	interval time.Duration,
	log zerolog.Logger,
) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		taskID:               taskID,
		parentConversationID: parentConversationID,
		fetcher:              fetcher,
		states:               states,
		live:                 live,
		queries:              queries,
		interval:             interval,
		log: log.With().
			Str("component", "task-poller").
			Str("task_id", taskID).
			Str("conversation_id", parentConversationID).
			Logger(),
		snap:     Snapshot{Loading: true},
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls until a terminal status is observed, the context is cancelled, or
// Stop is called. The timer re-arms only after each round completes, so
// polling is self-terminating without an external cancellation signal.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)

	if p.taskID == "" || p.parentConversationID == "" {
		return
	}

	metrics.ActivePollers.Inc()
	defer metrics.ActivePollers.Dec()

	p.log.Info().Msg("polling started")

	timer := time.NewTimer(0) // first round fires immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("polling cancelled by context")
			return
		case <-p.stopChan:
			p.log.Info().Msg("polling stopped")
			return
		case <-timer.C:
		}

		if p.poll(ctx) {
			return
		}
		timer.Reset(p.interval)
	}
}

// Stop revokes the poller. Safe to call multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// Done is closed once the polling loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Snapshot returns the current read-only view.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// poll runs one fetch round and returns true once settled.
func (p *Poller) poll(ctx context.Context) bool {
	spanCtx, span := observability.StartPollSpan(ctx, p.taskID, p.parentConversationID)
	defer span.End()

	record, err := p.fetcher.GetStartTask(spanCtx, p.taskID)
	if err != nil {
		// Treated as "no data this round": surfaced to readers, no state
		// transition, the interval retries.
		observability.RecordError(span, err)
		metrics.PollsTotal.WithLabelValues("fetch_error").Inc()
		p.log.Warn().Err(err).Msg("task fetch failed")

		p.mu.Lock()
		p.snap.Err = err
		p.snap.Loading = false
		p.mu.Unlock()
		return false
	}

	metrics.PollsTotal.WithLabelValues(outcomeLabel(record.Status)).Inc()

	p.mu.Lock()
	p.snap = Snapshot{
		Task:            record,
		Status:          record.Status,
		Detail:          record.DetailText(),
		ResultReference: record.ResultReference(),
	}
	p.mu.Unlock()

	if !record.Status.IsTerminal() {
		return false
	}

	// A Stop that raced this fetch revokes the settlement; the conversation
	// belongs to the superseding poller now.
	select {
	case <-ctx.Done():
		return true
	case <-p.stopChan:
		return true
	default:
	}

	p.settle(spanCtx, record)
	return true
}

// settle applies the one-time settlement for the observed terminal snapshot.
// The persisted clear compares against this poller's task id, so a poller
// superseded mid-fetch cannot settle over the newer task.
func (p *Poller) settle(ctx context.Context, record *task.Task) {
	settleCtx, span := observability.StartSettlementSpan(ctx, p.taskID, p.parentConversationID, record.Status.String())
	defer span.End()

	cleared, err := p.states.ClearTaskID(settleCtx, p.parentConversationID, p.taskID)
	if err != nil {
		// Both stores keep the marker, so restart recovery re-polls this
		// task and settles it on a later round.
		observability.RecordError(span, err)
		p.log.Error().Err(err).Msg("failed to clear persisted task id")
		return
	}
	if !cleared {
		p.log.Info().Msg("task superseded before settlement, state untouched")
		return
	}

	if record.Status.IsSuccess() && record.ResultReference() != "" {
		// Dependent views must refetch the parent and observe the newly
		// linked sub-conversation before the live marker disappears.
		p.queries.Invalidate(cache.ConversationKey(p.parentConversationID))
		p.log.Info().
			Str("sub_conversation_id", record.ResultReference()).
			Msg("sub-conversation ready, parent cache invalidated")
	}

	p.live.ClearTaskID(p.parentConversationID, p.taskID)

	metrics.SettlementsTotal.WithLabelValues(outcomeLabel(record.Status)).Inc()

	p.mu.Lock()
	p.snap.Settled = true
	p.mu.Unlock()

	if record.Status == task.StatusError {
		p.log.Warn().Str("detail", record.DetailText()).Msg("task failed, tracking cleared for retry")
	}
}

func outcomeLabel(status task.Status) string {
	return strings.ToLower(status.String())
}
