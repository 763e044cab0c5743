// Package queue is a durable named-job queue on Redis. Each job name gets a
// pending list and a processing list; jobs move between them with
// BRPOPLPUSH so delivery is at-least-once. A job carries its own retry
// budget; a handler error requeues it until the budget is spent, then the
// job is dropped with a job-failed event. Completed jobs are removed, so
// neither list grows without bound.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const popTimeout = 5 * time.Second

// Job is the envelope stored on the queue
type Job struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Payload      json.RawMessage `json:"payload"`
	AttemptsLeft int             `json:"attempts_left"`
	EnqueuedAt   time.Time       `json:"enqueued_at"`
}

// Handler processes one job payload. A nil return completes the job; an
// error spends one attempt and requeues it if any attempts remain.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Queue is a Redis-backed job queue for a single worker process
type Queue struct {
	client   *redis.Client
	handlers map[string]Handler
	mu       sync.Mutex

	// OnError is called for infrastructure errors (Redis, decode). Optional.
	OnError func(err error)
	// OnJobFailed is called when a job exhausts its retry budget. Optional.
	OnJobFailed func(job Job, err error)
}

// New creates a queue on an existing Redis client. The caller owns the
// client's lifecycle.
func New(client *redis.Client) *Queue {
	return &Queue{
		client:   client,
		handlers: make(map[string]Handler),
	}
}

// Enqueue adds one job with the given retry budget. attempts is the total
// number of tries the job gets, including the first.
func (q *Queue) Enqueue(ctx context.Context, name string, payload any, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for job %s: %w", name, err)
	}

	job := Job{
		ID:           uuid.NewString(),
		Name:         name,
		Payload:      raw,
		AttemptsLeft: attempts,
		EnqueuedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", name, err)
	}

	if err := q.client.LPush(ctx, pendingKey(name), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", name, err)
	}
	return nil
}

// Subscribe registers the handler for a job name. Must be called before
// Start.
func (q *Queue) Subscribe(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Start reclaims jobs stranded by a previous crash, then consumes each
// subscribed job name until the context is cancelled. It blocks.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	names := make([]string, 0, len(q.handlers))
	for name := range q.handlers {
		names = append(names, name)
	}
	q.mu.Unlock()

	for _, name := range names {
		if err := q.reclaim(ctx, name); err != nil {
			return fmt.Errorf("failed to reclaim jobs for %s: %w", name, err)
		}
	}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			q.consume(ctx, name)
		}(name)
	}
	wg.Wait()
	return nil
}

// reclaim moves jobs left on the processing list back to pending. Only safe
// before the consume loops start; a stranded entry means a previous process
// died mid-job, and redelivering it is the at-least-once contract.
func (q *Queue) reclaim(ctx context.Context, name string) error {
	for {
		err := q.client.RPopLPush(ctx, processingKey(name), pendingKey(name)).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (q *Queue) consume(ctx context.Context, name string) {
	log.Printf("queue: consumer started for %s", name)

	for {
		select {
		case <-ctx.Done():
			log.Printf("queue: consumer for %s shutting down", name)
			return
		default:
			data, err := q.client.BRPopLPush(ctx, pendingKey(name), processingKey(name), popTimeout).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.reportError(fmt.Errorf("failed to pop job for %s: %w", name, err))
				time.Sleep(time.Second)
				continue
			}
			q.process(ctx, name, data)
		}
	}
}

func (q *Queue) process(ctx context.Context, name, data string) {
	// The raw entry is removed from processing whatever happens below;
	// retries go back as a fresh envelope with one attempt fewer.
	defer func() {
		if err := q.client.LRem(context.WithoutCancel(ctx), processingKey(name), 1, data).Err(); err != nil {
			q.reportError(fmt.Errorf("failed to ack job for %s: %w", name, err))
		}
	}()

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		q.reportError(fmt.Errorf("failed to decode job for %s: %w", name, err))
		return
	}

	q.mu.Lock()
	handler := q.handlers[name]
	q.mu.Unlock()
	if handler == nil {
		q.reportError(fmt.Errorf("no handler registered for job %s", name))
		return
	}

	err := handler(ctx, job.Payload)
	if err == nil {
		return
	}

	job.AttemptsLeft--
	if job.AttemptsLeft <= 0 {
		log.Printf("queue: job %s (%s) failed permanently: %v", job.ID, name, err)
		if q.OnJobFailed != nil {
			q.OnJobFailed(job, err)
		}
		return
	}

	log.Printf("queue: job %s (%s) failed, %d attempt(s) left: %v", job.ID, name, job.AttemptsLeft, err)
	requeued, merr := json.Marshal(job)
	if merr != nil {
		q.reportError(fmt.Errorf("failed to re-marshal job %s: %w", job.ID, merr))
		return
	}
	if err := q.client.LPush(context.WithoutCancel(ctx), pendingKey(name), requeued).Err(); err != nil {
		q.reportError(fmt.Errorf("failed to requeue job %s: %w", job.ID, err))
	}
}

func (q *Queue) reportError(err error) {
	log.Printf("queue: %v", err)
	if q.OnError != nil {
		q.OnError(err)
	}
}

// PendingCount returns the number of jobs waiting for a job name
func (q *Queue) PendingCount(ctx context.Context, name string) (int64, error) {
	n, err := q.client.LLen(ctx, pendingKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs for %s: %w", name, err)
	}
	return n, nil
}

func pendingKey(name string) string    { return "jobs:" + name + ":pending" }
func processingKey(name string) string { return "jobs:" + name + ":processing" }
