// Package queue implements the Redis-backed build-request intake queue
// the Build Orchestrator workers poll.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waterinstitute/metget/internal/model"
)

const defaultQueueName = "metget_build_requests"

// Queue wraps a Redis list used as a FIFO job queue: RPush to enqueue,
// BLPop to dequeue (grounded on the teacher's RPush-based job queue,
// generalized to a blocking pop for worker polling).
type Queue struct {
	client *redis.Client
	name   string
}

// New connects to redisURL ("redis://host:port/db") and validates
// connectivity.
func New(ctx context.Context, redisURL, queueName string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, model.NewError(model.ErrValidation, "queue.New", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, model.NewError(model.ErrTransientIO, "queue.New", err)
	}

	if queueName == "" {
		queueName = defaultQueueName
	}
	return &Queue{client: client, name: queueName}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue pushes a request ID onto the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, requestID string) error {
	if err := q.client.RPush(ctx, q.name, requestID).Err(); err != nil {
		return model.NewError(model.ErrTransientIO, "queue.Enqueue", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next queued payload, returning
// ("", nil) on timeout (no work available) rather than an error.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", model.NewError(model.ErrTransientIO, "queue.Dequeue", err)
	}
	// BLPop returns [key, value]; we queried a single key.
	return res[1], nil
}

// EnqueueInputRequest marshals an InputRequest and pushes it directly
// (for callers that bypass the request table).
func (q *Queue) EnqueueInputRequest(ctx context.Context, req *model.InputRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return model.NewError(model.ErrValidation, "queue.EnqueueInputRequest", err)
	}
	if err := q.client.RPush(ctx, q.name, data).Err(); err != nil {
		return model.NewError(model.ErrTransientIO, "queue.EnqueueInputRequest", err)
	}
	return nil
}
