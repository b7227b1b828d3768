package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_backend/internal/pipeline"
	"claims_backend/platform/config"
	"claims_backend/platform/redisclient"

	"github.com/hibiken/asynq"
)

// Client enqueues pipeline jobs on asynq. It implements pipeline.Enqueuer.
type Client struct {
	client *asynq.Client
	queue  string
	limits retryLimits
}

type retryLimits struct {
	stageMaxRetry    int
	paymentMaxRetry  int
	paymentRetention time.Duration
	staleRetention   time.Duration
}

func (l retryLimits) retentionFor(job pipeline.Job) time.Duration {
	if _, ok := job.(pipeline.ProcessPaymentTask); ok {
		return l.paymentRetention
	}
	if l.staleRetention > 0 {
		return l.staleRetention
	}
	return defaultStaleAfter
}

var _ pipeline.Enqueuer = (*Client)(nil)

// NewClient creates an asynq client for the configured Redis and queue.
func NewClient(cfg config.SchedulerConfig, pcfg config.PipelineConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
		limits: retryLimits{
			stageMaxRetry:    pcfg.GetStageMaxRetry(),
			paymentMaxRetry:  pcfg.GetPaymentMaxRetry(),
			paymentRetention: pcfg.GetPaymentRetention(),
			staleRetention:   pcfg.GetStaleAfter(),
		},
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enqueue queues job for immediate processing.
func (c *Client) Enqueue(ctx context.Context, job pipeline.Job) error {
	return c.EnqueueIn(ctx, job, 0)
}

// EnqueueIn queues job to run after delay. A job whose pipeline.JobID is
// already known to the queue counts as enqueued.
func (c *Client) EnqueueIn(ctx context.Context, job pipeline.Job, delay time.Duration) error {
	task, err := EncodeJob(job)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, taskOptions(job, delay, c.queue, c.limits)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Kind(), err)
	}
	return nil
}

// taskOptions: stage jobs get a small queue-level retry budget that only covers
// failed hand-offs. Jobs with a pipeline.JobID are deduplicated by it and
// retained after completion so late duplicates still collide.
func taskOptions(job pipeline.Job, delay time.Duration, queue string, limits retryLimits) []asynq.Option {
	opts := []asynq.Option{asynq.Queue(queue)}

	if _, ok := job.(pipeline.ProcessPaymentTask); ok {
		opts = append(opts, asynq.MaxRetry(limits.paymentMaxRetry))
	} else {
		opts = append(opts, asynq.MaxRetry(limits.stageMaxRetry))
	}

	if id := pipeline.JobID(job); id != "" {
		opts = append(opts, asynq.TaskID(id), asynq.Retention(limits.retentionFor(job)))
	}

	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	return opts
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisclient.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
