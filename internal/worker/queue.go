package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"caption-search-backend/internal/models"
)

const (
	SearchQueue = "queue:caption-search"

	cancelFlagTTL = 24 * time.Hour
)

func lockKey(jobID uuid.UUID) string   { return "job_lock:" + jobID.String() }
func cancelKey(jobID uuid.UUID) string { return "search_cancel:" + jobID.String() }
func userChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// Queue is the Redis side of the job lifecycle shared by the API and the
// workers: enqueueing, cancel flags and progress fan-out.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job models.QueuedSearch) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.redis.RPush(ctx, SearchQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue search %s: %w", job.JobID, err)
	}
	return nil
}

// Requeue releases the job lock and puts the job back at the tail of the
// queue in one transaction.
func (q *Queue) Requeue(ctx context.Context, job models.QueuedSearch) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, lockKey(job.JobID))
		pipe.RPush(ctx, SearchQueue, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to requeue search %s: %w", job.JobID, err)
	}
	return nil
}

// RequestCancel flags a job; the worker running it stops before the next
// reference.
func (q *Queue) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	return q.redis.Set(ctx, cancelKey(jobID), "1", cancelFlagTTL).Err()
}

func (q *Queue) CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	n, err := q.redis.Exists(ctx, cancelKey(jobID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Queue) ClearCancel(ctx context.Context, jobID uuid.UUID) {
	q.redis.Del(ctx, cancelKey(jobID))
}

// Publish sends a WebSocket update via Redis pub/sub.
func (q *Queue) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	q.redis.Publish(ctx, userChannel(userID), string(data))
}
