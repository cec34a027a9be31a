package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/cache"
)

// Config contains tracker configuration.
type Config struct {
	PollInterval time.Duration
}

// Tracker supervises at most one poller per conversation. Tracking a new
// task id for a conversation supersedes and stops the previous poller, so a
// stale task can never settle over a fresh one.
type Tracker struct {
	fetcher  TaskFetcher
	states   conversation.StateStore
	live     conversation.LiveStore
	queries  cache.QueryCache
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	runCtx  context.Context
	pollers map[string]*Poller
	wg      sync.WaitGroup
}

// NewTracker creates a tracker.
func NewTracker(
	fetcher TaskFetcher,
	states conversation.StateStore,
	live conversation.LiveStore,
	queries cache.QueryCache,
	cfg Config,
	log zerolog.Logger,
) *Tracker {
	return &Tracker{
		fetcher:  fetcher,
		states:   states,
		live:     live,
		queries:  queries,
		interval: cfg.PollInterval,
		log:      log.With().Str("component", "task-tracker").Logger(),
		runCtx:   context.Background(),
		pollers:  make(map[string]*Poller),
	}
}

// Start anchors poller lifetimes to ctx and resumes tracking for any task
// ids persisted before a restart.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	t.runCtx = ctx
	t.mu.Unlock()

	inflight, err := t.states.InFlight(ctx)
	if err != nil {
		return fmt.Errorf("list in-flight tasks: %w", err)
	}
	for conversationID, taskID := range inflight {
		if err := t.Track(ctx, conversationID, taskID); err != nil {
			return fmt.Errorf("resume tracking %s: %w", conversationID, err)
		}
		t.log.Info().
			Str("conversation_id", conversationID).
			Str("task_id", taskID).
			Msg("resumed tracking persisted task")
	}

	t.log.Info().Int("resumed", len(inflight)).Msg("tracker started")
	return nil
}

// Track records the in-flight task id in both stores and starts a poller for
// it, superseding any poller already running for the conversation.
func (t *Tracker) Track(ctx context.Context, conversationID, taskID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	if taskID == "" {
		return fmt.Errorf("task id is required")
	}

	if _, err := t.states.Merge(ctx, conversationID, conversation.SetTaskIDPatch(taskID)); err != nil {
		return fmt.Errorf("persist task id: %w", err)
	}
	t.live.SetSubConversationTaskID(conversationID, &taskID)

	t.mu.Lock()
	if previous, ok := t.pollers[conversationID]; ok {
		previous.Stop()
	}
	poller := NewPoller(taskID, conversationID, t.fetcher, t.states, t.live, t.queries, t.interval, t.log)
	t.pollers[conversationID] = poller
	runCtx := t.runCtx
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		poller.Run(runCtx)

		// Drop the registry entry once the loop exits, unless a newer
		// poller already replaced it.
		t.mu.Lock()
		if t.pollers[conversationID] == poller {
			delete(t.pollers, conversationID)
		}
		t.mu.Unlock()
	}()

	return nil
}

// Untrack stops any poller for the conversation and clears the in-flight
// task id from both stores. Clearing an already-clear record is a no-op.
func (t *Tracker) Untrack(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}

	t.mu.Lock()
	if poller, ok := t.pollers[conversationID]; ok {
		poller.Stop()
		delete(t.pollers, conversationID)
	}
	t.mu.Unlock()

	if _, err := t.states.Merge(ctx, conversationID, conversation.ClearTaskIDPatch()); err != nil {
		return fmt.Errorf("clear task id: %w", err)
	}
	t.live.SetSubConversationTaskID(conversationID, nil)
	return nil
}

// Snapshot returns the poller view for a conversation, if one is active.
func (t *Tracker) Snapshot(conversationID string) (Snapshot, bool) {
	t.mu.Lock()
	poller, ok := t.pollers[conversationID]
	t.mu.Unlock()

	if !ok {
		return Snapshot{}, false
	}
	return poller.Snapshot(), true
}

// Stop gracefully shuts down all pollers.
func (t *Tracker) Stop() {
	t.mu.Lock()
	for _, poller := range t.pollers {
		poller.Stop()
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Info().Msg("all pollers stopped gracefully")
	case <-time.After(30 * time.Second):
		t.log.Warn().Msg("tracker shutdown timed out")
	}
}
