package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/services/workqueue"
)

const jobKeyPrefix = "pitwall:job:"

// JobTracker answers job-status polls. Live tasks are read straight from the
// queue; every state change is also mirrored into Redis (when configured)
// with a TTL, so finished jobs survive process restarts and other replicas
// can answer for jobs they did not run.
type JobTracker struct {
	queue   *workqueue.Queue
	redis   *redis.Client // nil disables the mirror
	ttl     time.Duration
	updates chan workqueue.TaskSnapshot
	logger  *zap.Logger
}

// NewJobTracker wires a tracker to the queue's update callback. A nil Redis
// client keeps tracking in-memory only.
func NewJobTracker(queue *workqueue.Queue, redisClient *redis.Client, logger *zap.Logger) *JobTracker {
	t := &JobTracker{
		queue:   queue,
		redis:   redisClient,
		ttl:     24 * time.Hour,
		updates: make(chan workqueue.TaskSnapshot, 256),
		logger:  logger.Named("jobs"),
	}

	// The queue invokes the callback under its own lock, so the mirror
	// write happens on a separate goroutine fed through a channel.
	queue.SetOnUpdate(func(snapshots []workqueue.TaskSnapshot) {
		for _, snap := range snapshots {
			select {
			case t.updates <- snap:
			default:
				// Mirror lags behind; the queue stays authoritative.
			}
		}
	})
	if t.redis != nil {
		go t.mirrorLoop()
	}

	return t
}

// Enqueue submits a task and returns its job ID.
func (t *JobTracker) Enqueue(task workqueue.Task) string {
	return t.queue.Enqueue(task)
}

// Get returns the snapshot for a job ID, checking the live queue first and
// the Redis mirror second. Unknown IDs yield apperrors.ErrJobNotFound.
func (t *JobTracker) Get(ctx context.Context, id string) (workqueue.TaskSnapshot, error) {
	if snap, ok := t.queue.GetTask(id); ok {
		return snap, nil
	}

	if t.redis != nil {
		payload, err := t.redis.Get(ctx, jobKeyPrefix+id).Bytes()
		if err == nil {
			var snap workqueue.TaskSnapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return workqueue.TaskSnapshot{}, fmt.Errorf("decode mirrored job %s: %w", id, err)
			}
			return snap, nil
		}
		if err != redis.Nil {
			return workqueue.TaskSnapshot{}, fmt.Errorf("read mirrored job %s: %w", id, err)
		}
	}

	return workqueue.TaskSnapshot{}, apperrors.ErrJobNotFound
}

func (t *JobTracker) mirrorLoop() {
	ctx := context.Background()
	for snap := range t.updates {
		payload, err := json.Marshal(snap)
		if err != nil {
			t.logger.Warn("failed to encode job snapshot", zap.String("job_id", snap.ID), zap.Error(err))
			continue
		}
		if err := t.redis.Set(ctx, jobKeyPrefix+snap.ID, payload, t.ttl).Err(); err != nil {
			t.logger.Warn("failed to mirror job snapshot", zap.String("job_id", snap.ID), zap.Error(err))
		}
	}
}
