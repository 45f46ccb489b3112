package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

// Job is the unit of delayed work. Payload carries handler-specific data.
type Job struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes a fired job. A returned error requeues the job after the
// configured retry delay; delivery is at-least-once, so handlers must treat a
// duplicate firing as a no-op.
type Handler func(ctx context.Context, job Job) error

// Scheduler is a Redis-backed delayed job queue. Jobs live in a sorted set
// scored by fire-at time, so they survive process restarts.
type Scheduler struct {
	client       *redis.Client
	logger       *zap.Logger
	queueKey     string
	pollInterval time.Duration
	retryDelay   time.Duration
}

// New builds a scheduler over an existing Redis client.
func New(client *redis.Client, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		client:       client,
		logger:       logger,
		queueKey:     cfg.QueueKey,
		pollInterval: cfg.PollInterval,
		retryDelay:   cfg.RetryDelay,
	}
}

// ScheduleAfter enqueues a job to fire no earlier than now+delay.
func (s *Scheduler) ScheduleAfter(ctx context.Context, delay time.Duration, jobID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	member, err := json.Marshal(Job{ID: jobID, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	fireAt := time.Now().Add(delay)
	if err := s.client.ZAdd(ctx, s.queueKey, redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: string(member),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}

	s.logger.Debug("job scheduled",
		zap.String("job_id", jobID),
		zap.Time("fire_at", fireAt))
	return nil
}

// Run polls for due jobs until ctx is cancelled. One Run loop processes jobs
// sequentially; running several instances only adds duplicate firings, which
// handlers already tolerate.
func (s *Scheduler) Run(ctx context.Context, handler Handler) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx, handler)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context, handler Handler) {
	now := time.Now().Unix()
	members, err := s.client.ZRangeByScore(ctx, s.queueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		s.logger.Warn("poll delayed jobs", zap.Error(err))
		return
	}

	for _, member := range members {
		job, err := decodeJob([]byte(member))
		if err != nil {
			s.logger.Error("drop undecodable job", zap.Error(err))
			_ = s.client.ZRem(ctx, s.queueKey, member).Err()
			continue
		}

		// Run first, remove after: a crash mid-handler leaves the job due,
		// so it fires again rather than getting lost.
		if err := handler(ctx, job); err != nil {
			s.logger.Warn("job failed, requeueing",
				zap.String("job_id", job.ID),
				zap.Error(err))
			_ = s.client.ZAdd(ctx, s.queueKey, redis.Z{
				Score:  float64(time.Now().Add(s.retryDelay).Unix()),
				Member: member,
			}).Err()
			continue
		}

		if err := s.client.ZRem(ctx, s.queueKey, member).Err(); err != nil {
			s.logger.Warn("remove completed job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func decodeJob(member []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(member, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
