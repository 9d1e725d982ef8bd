// Package queue decouples "decide to send" from "actually send": a durable,
// at-least-once work queue keyed by campaign id, with at most one pending job
// per key.
package queue

import (
    "context"
    "sync"

    "github.com/sirupsen/logrus"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
)

// Queue accepts dispatch jobs keyed by campaign id. Implementations must
// merge duplicate jobs sharing the same key so at most one pending dispatch
// exists per campaign at a time.
type Queue interface {
    Enqueue(ctx context.Context, campaignID string) error
}

// Executor is the worker-side entry point a queue delivers jobs to.
type Executor interface {
    Execute(ctx context.Context, campaignID string) error
}

// InMemoryQueue runs jobs on in-process goroutines. It backs tests and the
// single-process deployment mode; production uses the AMQP queue.
type InMemoryQueue struct {
    Exec Executor

    mu      sync.Mutex
    pending map[string]bool
    wg      sync.WaitGroup
}

func NewInMemoryQueue(exec Executor) *InMemoryQueue {
    return &InMemoryQueue{
        Exec:    exec,
        pending: make(map[string]bool),
    }
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, campaignID string) error {
    q.mu.Lock()
    if q.pending[campaignID] {
        q.mu.Unlock()
        logrus.WithField("campaign_id", campaignID).Info("dispatch already pending, merged")
        return nil
    }
    q.pending[campaignID] = true
    q.mu.Unlock()

    q.wg.Add(1)
    go func() {
        defer q.wg.Done()
        defer func() {
            q.mu.Lock()
            delete(q.pending, campaignID)
            q.mu.Unlock()
        }()

        if err := q.Exec.Execute(context.Background(), campaignID); err != nil {
            if appErrors.IsTerminal(err) {
                logrus.WithField("campaign_id", campaignID).WithError(err).Warn("dispatch ended terminally")
            } else {
                logrus.WithField("campaign_id", campaignID).WithError(err).Error("dispatch failed")
            }
        }
    }()
    return nil
}

// Wait blocks until all in-flight jobs complete.
func (q *InMemoryQueue) Wait() {
    q.wg.Wait()
}
