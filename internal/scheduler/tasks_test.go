package scheduler

import (
	"errors"
	"testing"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/pipeline"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

func TestEncodeJobUsesWireName(t *testing.T) {
	task, err := EncodeJob(pipeline.RetryClaim{ClaimID: uuid.New()})
	if err != nil {
		t.Fatalf("EncodeJob: %v", err)
	}
	if task.Type() != "retry_claim" {
		t.Fatalf("expected retry_claim, got %s", task.Type())
	}
}

func TestDecodeJobKeepsProcessClaimPayload(t *testing.T) {
	id := uuid.New()
	quadrant := "UR"
	job := pipeline.ProcessClaim{
		ClaimID: id,
		Procedures: []domain.ProcedureInput{{
			ServiceDate:        domain.ServiceDate{Time: time.Date(2024, 10, 29, 10, 0, 0, 0, time.UTC)},
			SubmittedProcedure: "D0120",
			ProviderNPI:        "1497775530",
			ProviderFees:       decimal.RequireFromString("100.25"),
			AllowedFees:        decimal.RequireFromString("80"),
			MemberCoinsurance:  decimal.RequireFromString("10"),
			MemberCopay:        decimal.RequireFromString("5"),
			Quadrant:           &quadrant,
		}},
	}

	task, err := EncodeJob(job)
	if err != nil {
		t.Fatalf("EncodeJob: %v", err)
	}
	decoded, err := DecodeJob(task)
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}

	got, ok := decoded.(pipeline.ProcessClaim)
	if !ok {
		t.Fatalf("expected ProcessClaim, got %T", decoded)
	}
	if got.ClaimID != id || len(got.Procedures) != 1 {
		t.Fatalf("unexpected job %+v", got)
	}
	proc := got.Procedures[0]
	if !proc.ProviderFees.Equal(decimal.RequireFromString("100.25")) || proc.Quadrant == nil || *proc.Quadrant != "UR" {
		t.Fatalf("procedure not preserved: %+v", proc)
	}
	if !proc.ServiceDate.Equal(job.Procedures[0].ServiceDate.Time) {
		t.Fatalf("service date not preserved: %s", proc.ServiceDate.Time)
	}
}

func TestDecodeJobSkipsRetryForBadPayloads(t *testing.T) {
	cases := map[string]*asynq.Task{
		"unknown kind":     asynq.NewTask("send_fax", []byte(`{}`)),
		"invalid json":     asynq.NewTask("retry_claim", []byte(`{`)),
		"missing claim id": asynq.NewTask("dead_letter_queue", []byte(`{"reason":"x"}`)),
	}

	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJob(task)
			if !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("expected SkipRetry, got %v", err)
			}
		})
	}
}

func TestTaskOptionsForPaymentTask(t *testing.T) {
	limits := retryLimits{stageMaxRetry: 3, paymentMaxRetry: 4, paymentRetention: 24 * time.Hour}
	id := uuid.New()

	opts := taskOptions(pipeline.ProcessPaymentTask{ClaimID: id, IdempotencyKey: pipeline.PaymentIdempotencyKey(id)}, 0, "claims", limits)

	found := map[asynq.OptionType]any{}
	for _, opt := range opts {
		found[opt.Type()] = opt.Value()
	}
	if found[asynq.TaskIDOpt] != "payment_"+id.String() {
		t.Fatalf("expected task id from idempotency key, got %v", found[asynq.TaskIDOpt])
	}
	if found[asynq.MaxRetryOpt] != 4 {
		t.Fatalf("expected payment max retry 4, got %v", found[asynq.MaxRetryOpt])
	}
	if found[asynq.RetentionOpt] != 24*time.Hour {
		t.Fatalf("expected retention 24h, got %v", found[asynq.RetentionOpt])
	}
	if found[asynq.QueueOpt] != "claims" {
		t.Fatalf("expected claims queue, got %v", found[asynq.QueueOpt])
	}
}

func TestTaskOptionsForDelayedStage(t *testing.T) {
	limits := retryLimits{stageMaxRetry: 3, paymentMaxRetry: 4, paymentRetention: time.Hour}

	opts := taskOptions(pipeline.ProcessClaim{ClaimID: uuid.New()}, 8*time.Second, "claims", limits)

	found := map[asynq.OptionType]any{}
	for _, opt := range opts {
		found[opt.Type()] = opt.Value()
	}
	if found[asynq.ProcessInOpt] != 8*time.Second {
		t.Fatalf("expected 8s delay, got %v", found[asynq.ProcessInOpt])
	}
	if found[asynq.MaxRetryOpt] != 3 {
		t.Fatalf("expected stage max retry 3, got %v", found[asynq.MaxRetryOpt])
	}
	if _, ok := found[asynq.TaskIDOpt]; ok {
		t.Fatalf("stage jobs must not carry a task id")
	}
}

func TestTaskOptionsDeduplicateStaleRetry(t *testing.T) {
	limits := retryLimits{stageMaxRetry: 3, paymentMaxRetry: 4, paymentRetention: 24 * time.Hour, staleRetention: 30 * time.Minute}
	id := uuid.New()

	opts := taskOptions(pipeline.RetryClaim{ClaimID: id, Reason: pipeline.ReasonStalePending}, 0, "claims", limits)

	found := map[asynq.OptionType]any{}
	for _, opt := range opts {
		found[opt.Type()] = opt.Value()
	}
	if found[asynq.TaskIDOpt] != "stale_"+id.String() {
		t.Fatalf("expected stale task id, got %v", found[asynq.TaskIDOpt])
	}
	if found[asynq.RetentionOpt] != 30*time.Minute {
		t.Fatalf("expected retention 30m, got %v", found[asynq.RetentionOpt])
	}
	if found[asynq.MaxRetryOpt] != 3 {
		t.Fatalf("expected stage max retry 3, got %v", found[asynq.MaxRetryOpt])
	}

	manual := taskOptions(pipeline.RetryClaim{ClaimID: id, Reason: pipeline.ReasonManualRequeue}, 0, "claims", limits)
	for _, opt := range manual {
		if opt.Type() == asynq.TaskIDOpt {
			t.Fatalf("manual requeue must not carry a task id")
		}
	}
}
