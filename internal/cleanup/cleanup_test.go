package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/mq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *recordingDeleter) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, key)
	return d.err
}

func (d *recordingDeleter) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

type recordingBroker struct {
	mu      sync.Mutex
	channel string
	data    [][]byte
	err     error
	// release, when set, holds every Publish until it is closed.
	release chan struct{}
}

func (b *recordingBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if b.release != nil {
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	b.channel = channel
	b.data = append(b.data, data)
	return "msg-1", nil
}

func (b *recordingBroker) published() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

func TestScheduleInProcess(t *testing.T) {
	deleter := &recordingDeleter{}
	q := NewQueue(deleter, nil, "image-cleanup", logger.Discard())

	q.Schedule(context.Background(), "news/a.png", "replaced")
	q.Schedule(context.Background(), "", "ignored")
	q.Wait()

	assert.Equal(t, []string{"news/a.png"}, deleter.keys())
}

func TestScheduleSwallowsDeleteFailures(t *testing.T) {
	deleter := &recordingDeleter{err: errors.New("boom")}
	q := NewQueue(deleter, nil, "image-cleanup", logger.Discard())

	q.Schedule(context.Background(), "doctors/x.webp", "deleted")
	q.Wait()

	assert.Equal(t, []string{"doctors/x.webp"}, deleter.keys())
}

func TestSchedulePublishesWhenBrokerConfigured(t *testing.T) {
	deleter := &recordingDeleter{}
	broker := &recordingBroker{}
	q := NewQueue(deleter, broker, "image-cleanup", logger.Discard())

	q.Schedule(context.Background(), "departments/d.jpg", "replaced")
	q.Wait()

	assert.Empty(t, deleter.keys())
	require.Len(t, broker.data, 1)
	assert.Equal(t, "image-cleanup", broker.channel)

	var job Job
	require.NoError(t, json.Unmarshal(broker.data[0], &job))
	assert.Equal(t, Job{PublicID: "departments/d.jpg", Reason: "replaced"}, job)
}

func TestScheduleDoesNotWaitForBroker(t *testing.T) {
	broker := &recordingBroker{release: make(chan struct{})}
	q := NewQueue(&recordingDeleter{}, broker, "image-cleanup", logger.Discard())

	returned := make(chan struct{})
	go func() {
		q.Schedule(context.Background(), "news/slow.png", "replaced")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule blocked on the broker")
	}
	assert.Zero(t, broker.published())

	close(broker.release)
	q.Wait()
	assert.Equal(t, 1, broker.published())
}

func TestScheduleSurvivesCanceledRequest(t *testing.T) {
	broker := &recordingBroker{}
	q := NewQueue(&recordingDeleter{}, broker, "image-cleanup", logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	q.Schedule(ctx, "news/gone.png", "deleted")
	cancel()
	q.Wait()

	assert.Equal(t, 1, broker.published())
}

func TestScheduleFallsBackWhenPublishFails(t *testing.T) {
	deleter := &recordingDeleter{}
	broker := &recordingBroker{err: errors.New("broker down")}
	q := NewQueue(deleter, broker, "image-cleanup", logger.Discard())

	q.Schedule(context.Background(), "news/b.png", "deleted")
	q.Wait()

	assert.Equal(t, []string{"news/b.png"}, deleter.keys())
}

func TestWorkerHandle(t *testing.T) {
	deleter := &recordingDeleter{}
	w := NewWorker(deleter, nil, "image-cleanup", logger.Discard())

	data, err := json.Marshal(Job{PublicID: "news/c.png"})
	require.NoError(t, err)

	assert.NoError(t, w.Handle(context.Background(), mq.Message{ID: "1", Data: data}))
	assert.NoError(t, w.Handle(context.Background(), mq.Message{ID: "2", Data: []byte("{")}))
	assert.Equal(t, []string{"news/c.png"}, deleter.keys())
}

func TestObserverReceivesOutcomes(t *testing.T) {
	var mu sync.Mutex
	var outcomes []string
	observe := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, outcome)
	}

	q := NewQueue(&recordingDeleter{err: errors.New("boom")}, nil, "image-cleanup", logger.Discard())
	q.Observe(observe)
	q.Schedule(context.Background(), "doctors/x.png", "deleted")
	q.Wait()

	w := NewWorker(&recordingDeleter{}, nil, "image-cleanup", logger.Discard())
	w.Observe(observe)
	require.NoError(t, w.Handle(context.Background(), mq.Message{ID: "1", Data: []byte("not json")}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{OutcomeFailed, OutcomeMalformed}, outcomes)
}
