// Package scheduler keeps a registry of named, cancellable one-shot timers,
// one per pending scheduled campaign. Timers are an in-memory cache of
// "activated campaign with a future schedule_time"; the campaign store is
// ground truth and the registry is rebuilt from it on startup.
package scheduler

import (
    "sync"
    "time"

    "github.com/sirupsen/logrus"
)

type Scheduler struct {
    mu     sync.Mutex
    timers map[string]*time.Timer
}

func New() *Scheduler {
    return &Scheduler{
        timers: make(map[string]*time.Timer),
    }
}

// Schedule registers fn to run once at fireAt. Idempotent per id: when a
// live timer already exists the call is a no-op and the fire time is NOT
// reset. Returns whether a new timer was registered.
func (s *Scheduler) Schedule(id string, fireAt time.Time, fn func()) bool {
    s.mu.Lock()
    defer s.mu.Unlock()

    if _, ok := s.timers[id]; ok {
        return false
    }

    delay := time.Until(fireAt)
    if delay < 0 {
        delay = 0
    }

    s.timers[id] = time.AfterFunc(delay, func() {
        // Unregister before running so the callback sees its own id as
        // no longer pending. A fire racing Cancel is harmless: callbacks
        // only enqueue, and the send-event gate stops duplicates.
        s.mu.Lock()
        delete(s.timers, id)
        s.mu.Unlock()
        fn()
    })

    logrus.WithFields(logrus.Fields{"campaign_id": id, "fire_at": fireAt}).Debug("timer registered")
    return true
}

// Cancel stops and removes the timer for id. Cancelling an unknown id is a
// no-op.
func (s *Scheduler) Cancel(id string) {
    s.mu.Lock()
    defer s.mu.Unlock()

    if t, ok := s.timers[id]; ok {
        t.Stop()
        delete(s.timers, id)
    }
}

func (s *Scheduler) Exists(id string) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.timers[id]
    return ok
}

// Len reports the number of live timers.
func (s *Scheduler) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.timers)
}

// Stop cancels every live timer. Used on shutdown; pending campaigns are
// rehydrated from the store on the next start.
func (s *Scheduler) Stop() {
    s.mu.Lock()
    defer s.mu.Unlock()

    for id, t := range s.timers {
        t.Stop()
        delete(s.timers, id)
    }
}
