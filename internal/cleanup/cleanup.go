// Package cleanup deletes stale images from object storage in the background.
//
// Deletions are best-effort: callers never wait on them and failures are only
// logged. When a broker is configured, jobs are published and a Worker
// consumes them; otherwise they run in a goroutine of the current process.
package cleanup

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/mq"
)

const defaultDeleteTimeout = 30 * time.Second

// Outcomes reported to observers.
const (
	OutcomePublished = "published"
	OutcomeDeleted   = "deleted"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)

// Job is the payload published for each object to delete.
type Job struct {
	PublicID string `json:"public_id"`
	Reason   string `json:"reason,omitempty"`
}

// Deleter removes objects from storage.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Publisher is the sending side of a broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Subscriber is the receiving side of a broker.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Queue schedules image deletions.
type Queue struct {
	deleter Deleter
	broker  Publisher
	channel string
	log     *logger.Logger
	timeout time.Duration
	observe func(outcome string)
	wg      sync.WaitGroup
}

// NewQueue constructs a Queue. broker may be nil.
func NewQueue(deleter Deleter, broker Publisher, channel string, log *logger.Logger) *Queue {
	return &Queue{
		deleter: deleter,
		broker:  broker,
		channel: channel,
		log:     log,
		timeout: defaultDeleteTimeout,
	}
}

// Observe registers fn to receive the outcome of every deletion attempt.
func (q *Queue) Observe(fn func(outcome string)) {
	q.observe = fn
}

// Schedule queues publicID for deletion and returns immediately. Publishing
// to the broker and in-process deletes both run on a tracked goroutine.
func (q *Queue) Schedule(ctx context.Context, publicID, reason string) {
	if publicID == "" || (q.broker == nil && q.deleter == nil) {
		return
	}
	job := Job{PublicID: publicID, Reason: reason}
	ctx = context.WithoutCancel(ctx)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()

		if q.broker != nil {
			err := q.publish(ctx, job)
			if err == nil {
				record(q.observe, OutcomePublished)
				return
			}
			q.log.WithComponent("cleanup").WithError(err).
				WithField("public_id", publicID).
				Warn("publish cleanup job failed, deleting in-process")
		}
		if q.deleter == nil {
			return
		}
		record(q.observe, deleteObject(ctx, q.deleter, q.log, job))
	}()
}

func (q *Queue) publish(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.broker.Publish(ctx, q.channel, data, map[string]string{"reason": job.Reason})
	return err
}

// Wait blocks until scheduled publishes and in-process deletions have
// finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Worker consumes cleanup jobs from a broker.
type Worker struct {
	deleter Deleter
	broker  Subscriber
	channel string
	log     *logger.Logger
	observe func(outcome string)
}

func NewWorker(deleter Deleter, broker Subscriber, channel string, log *logger.Logger) *Worker {
	return &Worker{deleter: deleter, broker: broker, channel: channel, log: log}
}

// Observe registers fn to receive the outcome of every handled job.
func (w *Worker) Observe(fn func(outcome string)) {
	w.observe = fn
}

// Run consumes jobs until ctx is done or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithComponent("cleanup").WithField("channel", w.channel).Info("cleanup worker started")
	return w.broker.Subscribe(ctx, w.channel, w.Handle)
}

// Handle processes one job. Jobs are always acknowledged; a failed delete
// is logged and dropped.
func (w *Worker) Handle(ctx context.Context, msg mq.Message) error {
	var job Job
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.PublicID == "" {
		w.log.WithComponent("cleanup").WithField("message_id", msg.ID).Warn("dropping malformed cleanup job")
		record(w.observe, OutcomeMalformed)
		return nil
	}
	record(w.observe, deleteObject(ctx, w.deleter, w.log, job))
	return nil
}

func record(observe func(string), outcome string) {
	if observe != nil {
		observe(outcome)
	}
}

func deleteObject(ctx context.Context, deleter Deleter, log *logger.Logger, job Job) string {
	entry := log.WithComponent("cleanup").WithField("public_id", job.PublicID).WithField("reason", job.Reason)
	if err := deleter.Delete(ctx, job.PublicID); err != nil {
		entry.WithError(err).Warn("image cleanup failed")
		return OutcomeFailed
	}
	entry.Debug("image deleted")
	return OutcomeDeleted
}
