package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/domain/task"
	"agent-server/services/conversation-sync/internal/infrastructure/livestore"
	"agent-server/services/conversation-sync/internal/infrastructure/statestore"
)

type trackerFixture struct {
	fetcher *scriptedFetcher
	states  *statestore.MemoryStore
	live    *livestore.Store
	queries *recordingCache
	tracker *Tracker
}

func newTrackerFixture(results ...fetchResult) *trackerFixture {
	f := &trackerFixture{
		fetcher: &scriptedFetcher{results: results},
		states:  statestore.NewMemoryStore(),
		live:    livestore.New(),
		queries: newRecordingCache(),
	}
	f.tracker = NewTracker(f.fetcher, f.states, f.live, f.queries, Config{PollInterval: testInterval}, zerolog.Nop())
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTracker_TrackPersistsAndSettles(t *testing.T) {
	f := newTrackerFixture(
		fetchResult{task: taskSnap("task-123", task.StatusWorking, "", "")},
		fetchResult{task: taskSnap("task-123", task.StatusReady, "sub-conv-456", "")},
	)
	ctx := context.Background()
	defer f.tracker.Stop()

	if err := f.tracker.Track(ctx, "parent-conv-123", "task-123"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}

	// The in-flight marker is visible in both stores right away.
	if got := f.live.SubConversationTaskID("parent-conv-123"); got == nil || *got != "task-123" {
		t.Errorf("live task id = %v, want task-123", got)
	}

	waitFor(t, "settlement", func() bool {
		state, err := f.states.Get(ctx, "parent-conv-123")
		return err == nil && state.SubConversationTaskID == nil
	})

	if got := f.live.SubConversationTaskID("parent-conv-123"); got != nil {
		t.Errorf("live task id = %q after settlement, want nil", *got)
	}
	if got := f.queries.total(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestTracker_TrackValidatesIDs(t *testing.T) {
	f := newTrackerFixture(fetchResult{task: taskSnap("task-123", task.StatusWorking, "", "")})
	defer f.tracker.Stop()

	if err := f.tracker.Track(context.Background(), "", "task-123"); err == nil {
		t.Error("expected error for empty conversation id")
	}
	if err := f.tracker.Track(context.Background(), "conv-1", ""); err == nil {
		t.Error("expected error for empty task id")
	}
	if got := f.fetcher.callCount(); got != 0 {
		t.Errorf("fetch calls = %d, want 0", got)
	}
}

func TestTracker_NewTaskSupersedesOld(t *testing.T) {
	f := newTrackerFixture(fetchResult{task: taskSnap("task-old", task.StatusWorking, "", "")})
	ctx := context.Background()
	defer f.tracker.Stop()

	if err := f.tracker.Track(ctx, "parent-conv-123", "task-old"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}
	if err := f.tracker.Track(ctx, "parent-conv-123", "task-new"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}

	if got := f.live.SubConversationTaskID("parent-conv-123"); got == nil || *got != "task-new" {
		t.Errorf("live task id = %v, want task-new", got)
	}
	state, err := f.states.Get(ctx, "parent-conv-123")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if state.SubConversationTaskID == nil || *state.SubConversationTaskID != "task-new" {
		t.Errorf("persisted task id = %v, want task-new", state.SubConversationTaskID)
	}

	snap, ok := f.tracker.Snapshot("parent-conv-123")
	if !ok {
		t.Fatal("no active poller after supersede")
	}
	_ = snap
}

// blockingFetcher parks the first fetch for one task id until released; that
// fetch then reports terminal READY. Every other task id reports WORKING.
type blockingFetcher struct {
	gatedTask string
	entered   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func newBlockingFetcher(gatedTask string) *blockingFetcher {
	return &blockingFetcher{
		gatedTask: gatedTask,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (f *blockingFetcher) GetStartTask(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == f.gatedTask {
		f.once.Do(func() { close(f.entered) })
		<-f.release
		return taskSnap(taskID, task.StatusReady, "sub-conv-456", ""), nil
	}
	return taskSnap(taskID, task.StatusWorking, "", ""), nil
}

func TestTracker_SupersededMidFetchDoesNotSettle(t *testing.T) {
	fetcher := newBlockingFetcher("task-old")
	states := statestore.NewMemoryStore()
	live := livestore.New()
	queries := newRecordingCache()
	tracker := NewTracker(fetcher, states, live, queries, Config{PollInterval: testInterval}, zerolog.Nop())
	ctx := context.Background()
	defer tracker.Stop()

	if err := tracker.Track(ctx, "parent-conv-123", "task-old"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}
	// The old poller is parked inside its fetch when the new task arrives.
	<-fetcher.entered

	if err := tracker.Track(ctx, "parent-conv-123", "task-new"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}

	// The parked fetch now returns terminal READY for the stale task. Its
	// settlement must not clear the superseding task or touch the cache.
	close(fetcher.release)
	time.Sleep(10 * testInterval)

	state, err := states.Get(ctx, "parent-conv-123")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if state.SubConversationTaskID == nil || *state.SubConversationTaskID != "task-new" {
		t.Errorf("persisted task id = %v, want task-new", state.SubConversationTaskID)
	}
	if got := live.SubConversationTaskID("parent-conv-123"); got == nil || *got != "task-new" {
		t.Errorf("live task id = %v, want task-new", got)
	}
	if got := queries.total(); got != 0 {
		t.Errorf("invalidations = %d, want 0 from a stale READY", got)
	}

	inflight, err := states.InFlight(ctx)
	if err != nil {
		t.Fatalf("InFlight() error: %v", err)
	}
	if inflight["parent-conv-123"] != "task-new" {
		t.Errorf("InFlight = %v, want parent-conv-123 -> task-new", inflight)
	}
}

func TestTracker_Untrack(t *testing.T) {
	f := newTrackerFixture(fetchResult{task: taskSnap("task-123", task.StatusWorking, "", "")})
	ctx := context.Background()
	defer f.tracker.Stop()

	if err := f.tracker.Track(ctx, "parent-conv-123", "task-123"); err != nil {
		t.Fatalf("Track() error: %v", err)
	}
	if err := f.tracker.Untrack(ctx, "parent-conv-123"); err != nil {
		t.Fatalf("Untrack() error: %v", err)
	}

	state, err := f.states.Get(ctx, "parent-conv-123")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if state.SubConversationTaskID != nil {
		t.Errorf("persisted task id = %q, want nil", *state.SubConversationTaskID)
	}
	if got := f.live.SubConversationTaskID("parent-conv-123"); got != nil {
		t.Errorf("live task id = %q, want nil", *got)
	}
	if _, ok := f.tracker.Snapshot("parent-conv-123"); ok {
		t.Error("poller still registered after Untrack")
	}
}

func TestTracker_StartResumesPersistedTasks(t *testing.T) {
	f := newTrackerFixture(
		fetchResult{task: taskSnap("task-123", task.StatusReady, "sub-conv-456", "")},
	)
	ctx := context.Background()
	defer f.tracker.Stop()

	// A task id persisted before a restart.
	if _, err := f.states.Merge(ctx, "parent-conv-123", conversation.SetTaskIDPatch("task-123")); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := f.tracker.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	waitFor(t, "resumed settlement", func() bool {
		state, err := f.states.Get(ctx, "parent-conv-123")
		return err == nil && state.SubConversationTaskID == nil
	})
	if got := f.queries.total(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestTracker_SnapshotReportsMissing(t *testing.T) {
	f := newTrackerFixture(fetchResult{task: taskSnap("task-123", task.StatusWorking, "", "")})
	defer f.tracker.Stop()

	if _, ok := f.tracker.Snapshot("parent-conv-123"); ok {
		t.Error("snapshot reported an active poller for an untracked conversation")
	}
}
