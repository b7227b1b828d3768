package scheduler

import (
	"context"
	"time"

	"claims_backend/internal/pipeline"
	"claims_backend/platform/config"
	"claims_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// JobDispatcher runs a decoded pipeline job.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job pipeline.Job) error
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher JobDispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, dispatcher JobDispatcher, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	w := &Worker{
		mux:        asynq.NewServeMux(),
		dispatcher: dispatcher,
		log:        log,
	}

	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.reportError),
	})

	for _, kind := range pipeline.Kinds {
		w.mux.HandleFunc(string(kind), w.handle)
	}

	return w, nil
}

// Run processes tasks until ctx is cancelled, then drains in-flight tasks.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("pipeline worker failed to start", "error", err)
		return err
	}
	w.log.Info("pipeline worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("pipeline worker stopped")
	return nil
}

func (w *Worker) handle(ctx context.Context, task *asynq.Task) error {
	if taskID, ok := asynq.GetTaskID(ctx); ok {
		ctx = context.WithValue(ctx, logger.TaskIDKey, taskID)
	}

	job, err := DecodeJob(task)
	if err != nil {
		return err
	}
	return w.dispatcher.Dispatch(ctx, job)
}

func (w *Worker) reportError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	w.log.WithContext(ctx).Error("pipeline task failed",
		"task", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}
