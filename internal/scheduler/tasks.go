package scheduler

import (
	"encoding/json"
	"fmt"

	"claims_backend/internal/pipeline"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// EncodeJob turns a pipeline job into an asynq task named after its kind.
func EncodeJob(job pipeline.Job) (*asynq.Task, error) {
	if job == nil {
		return nil, fmt.Errorf("encode job: %w", pipeline.ErrUnknownJob)
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", job.Kind(), err)
	}
	return asynq.NewTask(string(job.Kind()), data), nil
}

// DecodeJob parses a task back into its pipeline job. Malformed payloads are
// marked SkipRetry since redelivery cannot fix them.
func DecodeJob(task *asynq.Task) (pipeline.Job, error) {
	switch pipeline.Kind(task.Type()) {
	case pipeline.KindProcessClaim:
		return decode[pipeline.ProcessClaim](task)
	case pipeline.KindProcessPayment:
		return decode[pipeline.ProcessPayment](task)
	case pipeline.KindProcessPaymentTask:
		return decode[pipeline.ProcessPaymentTask](task)
	case pipeline.KindRetryClaim:
		return decode[pipeline.RetryClaim](task)
	case pipeline.KindDeadLetter:
		return decode[pipeline.DeadLetter](task)
	default:
		return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrUnknownJob, task.Type(), asynq.SkipRetry)
	}
}

func decode[T pipeline.Job](task *asynq.Task) (pipeline.Job, error) {
	var job T
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if job.Claim() == uuid.Nil {
		return nil, fmt.Errorf("decode %s: missing claim_id: %w", task.Type(), asynq.SkipRetry)
	}
	return job, nil
}
