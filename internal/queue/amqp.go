package queue

import (
    "context"
    "encoding/json"

    "github.com/sirupsen/logrus"
    "github.com/streadway/amqp"

    "github.com/chillspider/jetx-marketing/internal/repository"
)

type dispatchJob struct {
    CampaignID string `json:"campaign_id"`
}

const retryCountHeader = "x-retry-count"

// Channel is the slice of *amqp.Channel the queue layer uses.
type Channel interface {
    Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// Declare sets up the durable dispatch queue on the given channel.
func Declare(ch Channel, name string) (amqp.Queue, error) {
    return ch.QueueDeclare(
        name,
        true,  // durable
        false, // delete when unused
        false, // exclusive
        false, // no-wait
        nil,
    )
}

// AmqpQueue publishes dispatch jobs to RabbitMQ. The job repository is the
// job-key registry: a row per campaign with a pending job, so duplicate
// enqueues for the same campaign are merged instead of published twice.
type AmqpQueue struct {
    Ch   Channel
    Jobs repository.JobRepositoryInterface
    Name string
}

func (q *AmqpQueue) Enqueue(ctx context.Context, campaignID string) error {
    fresh, err := q.Jobs.Claim(campaignID)
    if err != nil {
        return err
    }
    if !fresh {
        logrus.WithField("campaign_id", campaignID).Info("dispatch already pending, merged")
        return nil
    }

    if err := q.publish(campaignID); err != nil {
        // Release the claim, otherwise every later enqueue for this
        // campaign would merge against a message that never reached the
        // broker and the campaign would stay wedged.
        if relErr := q.Jobs.Release(campaignID); relErr != nil {
            logrus.WithField("campaign_id", campaignID).WithError(relErr).
                Error("failed to release claim after publish failure")
        }
        return err
    }
    return nil
}

// Recover republishes every claimed job on startup. A claim can outlive its
// broker message when the process died between claim and publish; duplicates
// on the other side are harmless behind the send-event gate.
func (q *AmqpQueue) Recover() error {
    ids, err := q.Jobs.ListPending()
    if err != nil {
        return err
    }
    for _, id := range ids {
        if err := q.publish(id); err != nil {
            return err
        }
    }
    if len(ids) > 0 {
        logrus.WithField("count", len(ids)).Info("republished pending dispatch jobs")
    }
    return nil
}

func (q *AmqpQueue) publish(campaignID string) error {
    body, err := json.Marshal(dispatchJob{CampaignID: campaignID})
    if err != nil {
        return err
    }
    return q.Ch.Publish(
        "",     // default exchange
        q.Name, // routing key
        false,
        false,
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Body:         body,
        },
    )
}

var _ Queue = (*AmqpQueue)(nil)
