package queue

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "testing"

    "github.com/streadway/amqp"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// fakeChannel records publishes and can be told to fail them.
type fakeChannel struct {
    mu         sync.Mutex
    published  []amqp.Publishing
    publishErr error
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.publishErr != nil {
        return f.publishErr
    }
    f.published = append(f.published, msg)
    return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
    return nil, errors.New("not consumable")
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
    return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) publishedIDs(t *testing.T) []string {
    t.Helper()
    f.mu.Lock()
    defer f.mu.Unlock()
    ids := []string{}
    for _, msg := range f.published {
        var job dispatchJob
        require.NoError(t, json.Unmarshal(msg.Body, &job))
        ids = append(ids, job.CampaignID)
    }
    return ids
}

// mockJobRepo is an in-memory job-key registry.
type mockJobRepo struct {
    mu       sync.Mutex
    claimed  map[string]bool
    released []string
    claimErr error
}

func newMockJobRepo(pending ...string) *mockJobRepo {
    m := &mockJobRepo{claimed: map[string]bool{}}
    for _, id := range pending {
        m.claimed[id] = true
    }
    return m
}

func (m *mockJobRepo) Claim(campaignID string) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.claimErr != nil {
        return false, m.claimErr
    }
    if m.claimed[campaignID] {
        return false, nil
    }
    m.claimed[campaignID] = true
    return true, nil
}

func (m *mockJobRepo) Release(campaignID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.claimed, campaignID)
    m.released = append(m.released, campaignID)
    return nil
}

func (m *mockJobRepo) ListPending() ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    ids := []string{}
    for id := range m.claimed {
        ids = append(ids, id)
    }
    return ids, nil
}

func (m *mockJobRepo) isClaimed(campaignID string) bool {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.claimed[campaignID]
}

func TestAmqpEnqueuePublishesFreshClaim(t *testing.T) {
    ch := &fakeChannel{}
    jobs := newMockJobRepo()
    q := &AmqpQueue{Ch: ch, Jobs: jobs, Name: "dispatch"}

    require.NoError(t, q.Enqueue(context.Background(), "c1"))

    assert.Equal(t, []string{"c1"}, ch.publishedIDs(t))
    assert.True(t, jobs.isClaimed("c1"))
}

func TestAmqpEnqueueMergesPendingClaim(t *testing.T) {
    ch := &fakeChannel{}
    jobs := newMockJobRepo("c1")
    q := &AmqpQueue{Ch: ch, Jobs: jobs, Name: "dispatch"}

    require.NoError(t, q.Enqueue(context.Background(), "c1"))

    assert.Empty(t, ch.publishedIDs(t))
}

func TestAmqpEnqueueReleasesClaimOnPublishFailure(t *testing.T) {
    ch := &fakeChannel{publishErr: errors.New("broker gone")}
    jobs := newMockJobRepo()
    q := &AmqpQueue{Ch: ch, Jobs: jobs, Name: "dispatch"}

    err := q.Enqueue(context.Background(), "c1")
    require.Error(t, err)

    // The claim must not survive the failed publish, or the campaign
    // would merge against a message the broker never saw.
    assert.False(t, jobs.isClaimed("c1"))

    ch.publishErr = nil
    require.NoError(t, q.Enqueue(context.Background(), "c1"))
    assert.Equal(t, []string{"c1"}, ch.publishedIDs(t))
}

func TestAmqpRecoverRepublishesPendingJobs(t *testing.T) {
    ch := &fakeChannel{}
    jobs := newMockJobRepo("c1", "c2")
    q := &AmqpQueue{Ch: ch, Jobs: jobs, Name: "dispatch"}

    require.NoError(t, q.Recover())

    assert.ElementsMatch(t, []string{"c1", "c2"}, ch.publishedIDs(t))
    // Claims stay live; the consumer releases them when the jobs finish.
    assert.True(t, jobs.isClaimed("c1"))
    assert.True(t, jobs.isClaimed("c2"))
}

func TestAmqpRecoverWithNothingPending(t *testing.T) {
    ch := &fakeChannel{}
    q := &AmqpQueue{Ch: ch, Jobs: newMockJobRepo(), Name: "dispatch"}

    require.NoError(t, q.Recover())
    assert.Empty(t, ch.publishedIDs(t))
}
