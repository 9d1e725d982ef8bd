package queue_test

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/chillspider/jetx-marketing/internal/queue"
)

// blockingExecutor counts calls and holds each job until released.
type blockingExecutor struct {
    mu      sync.Mutex
    calls   map[string]int
    started chan string
    release chan struct{}
}

func newBlockingExecutor() *blockingExecutor {
    return &blockingExecutor{
        calls:   make(map[string]int),
        started: make(chan string, 10),
        release: make(chan struct{}),
    }
}

func (e *blockingExecutor) Execute(ctx context.Context, campaignID string) error {
    e.mu.Lock()
    e.calls[campaignID]++
    e.mu.Unlock()
    e.started <- campaignID
    <-e.release
    return nil
}

func (e *blockingExecutor) count(campaignID string) int {
    e.mu.Lock()
    defer e.mu.Unlock()
    return e.calls[campaignID]
}

func TestInMemoryQueueMergesDuplicateKeys(t *testing.T) {
    exec := newBlockingExecutor()
    q := queue.NewInMemoryQueue(exec)

    assert.NoError(t, q.Enqueue(context.Background(), "c1"))
    <-exec.started // job is now in flight

    // Second enqueue for the same key while the first is pending must merge.
    assert.NoError(t, q.Enqueue(context.Background(), "c1"))

    select {
    case <-exec.started:
        t.Fatal("duplicate job started for a pending key")
    case <-time.After(50 * time.Millisecond):
    }

    close(exec.release)
    q.Wait()
    assert.Equal(t, 1, exec.count("c1"))
}

func TestInMemoryQueueAllowsReenqueueAfterCompletion(t *testing.T) {
    exec := newBlockingExecutor()
    close(exec.release) // jobs complete immediately
    q := queue.NewInMemoryQueue(exec)

    assert.NoError(t, q.Enqueue(context.Background(), "c1"))
    <-exec.started
    q.Wait()

    assert.NoError(t, q.Enqueue(context.Background(), "c1"))
    <-exec.started
    q.Wait()

    assert.Equal(t, 2, exec.count("c1"))
}

func TestInMemoryQueueRunsDistinctKeysConcurrently(t *testing.T) {
    exec := newBlockingExecutor()
    q := queue.NewInMemoryQueue(exec)

    assert.NoError(t, q.Enqueue(context.Background(), "c1"))
    assert.NoError(t, q.Enqueue(context.Background(), "c2"))

    seen := map[string]bool{}
    for i := 0; i < 2; i++ {
        select {
        case id := <-exec.started:
            seen[id] = true
        case <-time.After(time.Second):
            t.Fatal("jobs for distinct keys did not run concurrently")
        }
    }
    assert.True(t, seen["c1"] && seen["c2"])

    close(exec.release)
    q.Wait()
}
