package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testPayload struct {
	Value string `json:"value"`
}

// setupTestQueue starts a Redis container and returns a connected client
func setupTestQueue(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
	return client
}

func startQueue(t *testing.T, q *Queue) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("queue did not stop in time")
		}
	})
	return cancel
}

func TestQueueDeliversJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := setupTestQueue(t)
	q := New(client)

	received := make(chan testPayload, 1)
	q.Subscribe("test-job", func(ctx context.Context, payload json.RawMessage) error {
		var p testPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		received <- p
		return nil
	})
	startQueue(t, q)

	err := q.Enqueue(context.Background(), "test-job", testPayload{Value: "hello"}, 2)
	require.NoError(t, err)

	select {
	case p := <-received:
		assert.Equal(t, "hello", p.Value)
	case <-time.After(15 * time.Second):
		t.Fatal("job was not delivered")
	}

	// Completed jobs leave both lists empty
	assert.Eventually(t, func() bool {
		pending, _ := client.LLen(context.Background(), pendingKey("test-job")).Result()
		processing, _ := client.LLen(context.Background(), processingKey("test-job")).Result()
		return pending == 0 && processing == 0
	}, 10*time.Second, 100*time.Millisecond, "completed jobs must be removed")
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := setupTestQueue(t)
	q := New(client)

	var attempts atomic.Int32
	done := make(chan struct{}, 1)
	q.Subscribe("flaky-job", func(ctx context.Context, payload json.RawMessage) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		done <- struct{}{}
		return nil
	})
	startQueue(t, q)

	require.NoError(t, q.Enqueue(context.Background(), "flaky-job", testPayload{}, 3))

	select {
	case <-done:
		assert.Equal(t, int32(2), attempts.Load())
	case <-time.After(15 * time.Second):
		t.Fatal("job was not retried to success")
	}
}

func TestQueueExhaustsRetryBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := setupTestQueue(t)
	q := New(client)

	var attempts atomic.Int32
	failed := make(chan Job, 1)
	q.OnJobFailed = func(job Job, err error) {
		failed <- job
	}
	q.Subscribe("doomed-job", func(ctx context.Context, payload json.RawMessage) error {
		attempts.Add(1)
		return errors.New("permanent failure")
	})
	startQueue(t, q)

	require.NoError(t, q.Enqueue(context.Background(), "doomed-job", testPayload{}, 2))

	select {
	case job := <-failed:
		assert.Equal(t, "doomed-job", job.Name)
		assert.Equal(t, int32(2), attempts.Load(), "a budget of 2 means exactly 2 attempts")
	case <-time.After(15 * time.Second):
		t.Fatal("job-failed event was not emitted")
	}

	// Exhausted jobs are dropped, not left on any list
	assert.Eventually(t, func() bool {
		pending, _ := client.LLen(context.Background(), pendingKey("doomed-job")).Result()
		processing, _ := client.LLen(context.Background(), processingKey("doomed-job")).Result()
		return pending == 0 && processing == 0
	}, 10*time.Second, 100*time.Millisecond)
}

func TestQueueReclaimsStrandedJobs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := setupTestQueue(t)
	ctx := context.Background()

	// Simulate a crashed worker: a job sitting on the processing list
	job := Job{ID: "stranded", Name: "reclaim-job", Payload: json.RawMessage(`{}`), AttemptsLeft: 1}
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, client.LPush(ctx, processingKey("reclaim-job"), data).Err())

	q := New(client)
	received := make(chan struct{}, 1)
	q.Subscribe("reclaim-job", func(ctx context.Context, payload json.RawMessage) error {
		received <- struct{}{}
		return nil
	})
	startQueue(t, q)

	select {
	case <-received:
	case <-time.After(15 * time.Second):
		t.Fatal("stranded job was not redelivered")
	}
}

func TestQueuePendingCount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := setupTestQueue(t)
	q := New(client)
	ctx := context.Background()

	// No consumer running; jobs accumulate
	require.NoError(t, q.Enqueue(ctx, "idle-job", testPayload{}, 1))
	require.NoError(t, q.Enqueue(ctx, "idle-job", testPayload{}, 1))

	n, err := q.PendingCount(ctx, "idle-job")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
