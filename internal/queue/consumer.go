package queue

import (
    "context"
    "encoding/json"
    "sync"

    "github.com/sirupsen/logrus"
    "github.com/streadway/amqp"

    appErrors "github.com/chillspider/jetx-marketing/internal/errors"
    "github.com/chillspider/jetx-marketing/internal/repository"
)

// Consumer pops dispatch jobs off RabbitMQ and hands them to the executor.
// Jobs for different campaigns run on a small worker pool; jobs sharing a
// campaign id are serialized through a per-key lock so no two dispatch
// attempts for the same campaign ever run concurrently.
type Consumer struct {
    Ch         Channel
    Jobs       repository.JobRepositoryInterface
    Name       string
    Exec       Executor
    Workers    int
    MaxRetries int

    keys keyedLock
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
    msgs, err := c.Ch.Consume(
        c.Name,
        "",    // consumer tag
        false, // manual ack
        false,
        false,
        false,
        nil,
    )
    if err != nil {
        return err
    }

    workers := c.Workers
    if workers < 1 {
        workers = 1
    }

    var wg sync.WaitGroup
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case d, ok := <-msgs:
                    if !ok {
                        return
                    }
                    c.handle(ctx, d)
                }
            }
        }()
    }
    wg.Wait()
    return ctx.Err()
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
    var job dispatchJob
    if err := json.Unmarshal(d.Body, &job); err != nil {
        logrus.WithError(err).Error("invalid dispatch job, dropping")
        d.Ack(false)
        return
    }

    log := logrus.WithField("campaign_id", job.CampaignID)

    // Once a dispatch starts it runs to completion: a shutdown signal must
    // not cancel mid-flight gateway calls after the send event is written,
    // or a graceful stop would mark the campaign failed.
    execCtx := context.WithoutCancel(ctx)

    unlock := c.keys.lock(job.CampaignID)
    err := c.Exec.Execute(execCtx, job.CampaignID)
    unlock()

    if err == nil {
        c.clearJob(job.CampaignID)
        d.Ack(false)
        return
    }

    if appErrors.IsTerminal(err) {
        // The campaign was marked failed; retrying cannot change the outcome.
        log.WithError(err).Warn("dispatch ended terminally")
        c.clearJob(job.CampaignID)
        d.Ack(false)
        return
    }

    // Infrastructure failure: redeliver with a bounded attempt count. Safe,
    // because the send-event gate stops duplicate sends on retry.
    retries := retryCount(d.Headers)
    if retries < c.MaxRetries {
        log.WithError(err).Warnf("dispatch attempt %d failed, requeueing", retries+1)
        if pubErr := c.republish(d.Body, retries+1); pubErr != nil {
            log.WithError(pubErr).Error("requeue failed, nacking for redelivery")
            d.Nack(false, true)
            return
        }
        d.Ack(false)
        return
    }

    log.WithError(err).Errorf("dispatch abandoned after %d attempts", retries+1)
    c.clearJob(job.CampaignID)
    d.Ack(false)
}

func (c *Consumer) republish(body []byte, retries int) error {
    return c.Ch.Publish("", c.Name, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Headers:      amqp.Table{retryCountHeader: int32(retries)},
        Body:         body,
    })
}

// clearJob frees the campaign's slot in the job-key registry so a future
// enqueue can publish again.
func (c *Consumer) clearJob(campaignID string) {
    if err := c.Jobs.Release(campaignID); err != nil {
        logrus.WithField("campaign_id", campaignID).WithError(err).Error("failed to clear dispatch job")
    }
}

func retryCount(headers amqp.Table) int {
    switch v := headers[retryCountHeader].(type) {
    case int32:
        return int(v)
    case int64:
        return int(v)
    case int:
        return v
    }
    return 0
}

// keyedLock hands out one mutex per key, dropping entries when the last
// holder releases.
type keyedLock struct {
    mu    sync.Mutex
    locks map[string]*keyEntry
}

type keyEntry struct {
    mu   sync.Mutex
    refs int
}

func (k *keyedLock) lock(key string) (unlock func()) {
    k.mu.Lock()
    if k.locks == nil {
        k.locks = make(map[string]*keyEntry)
    }
    e, ok := k.locks[key]
    if !ok {
        e = &keyEntry{}
        k.locks[key] = e
    }
    e.refs++
    k.mu.Unlock()

    e.mu.Lock()
    return func() {
        e.mu.Unlock()
        k.mu.Lock()
        e.refs--
        if e.refs == 0 {
            delete(k.locks, key)
        }
        k.mu.Unlock()
    }
}
