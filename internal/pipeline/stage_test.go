package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/platform/logger"

	"github.com/shopspring/decimal"
)

func newStage(t *testing.T, claims *fakeClaims, queue *fakeQueue, policy NotFoundPolicy) *ClaimStage {
	t.Helper()
	_, rdb := newRedis(t)
	return NewClaimStage(
		NewProcessor(claims, policy),
		NewRedisLease(rdb, time.Minute),
		NewSnapshotStore(rdb, time.Hour),
		queue,
		5*time.Second,
		logger.Discard(),
	)
}

func TestClaimStageSingleSuccessfulProcedureQueuesPayment(t *testing.T) {
	claim := pendingClaim()
	claims := newFakeClaims(claim)
	queue := &fakeQueue{}
	stage := newStage(t, claims, queue, NotFoundRetry)

	err := stage.Handle(context.Background(), ProcessClaim{
		ClaimID:    claim.ID,
		Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")},
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	stored := claims.get(claim.ID)
	want := decimal.RequireFromString("35.00")
	if len(stored.Procedures) != 1 {
		t.Fatalf("expected one stored procedure, got %d", len(stored.Procedures))
	}
	if !stored.Procedures[0].NetFee.Equal(want) || stored.Procedures[0].Status != domain.ProcedureSuccess {
		t.Fatalf("unexpected procedure %+v", stored.Procedures[0])
	}
	if !stored.NetFee.Equal(want) || stored.Status != domain.ClaimSuccess {
		t.Fatalf("expected claim SUCCESS with 35.00, got %s with %s", stored.Status, stored.NetFee)
	}

	payment, ok := queue.only(t).job.(ProcessPayment)
	if !ok {
		t.Fatalf("expected process_payment, got %T", queue.only(t).job)
	}
	if payment.ClaimID != claim.ID || !payment.NetFee.Equal(want) {
		t.Fatalf("unexpected payment job %+v", payment)
	}
}

func TestClaimStagePartialFailureQueuesRetry(t *testing.T) {
	claim := pendingClaim()
	claims := newFakeClaims(claim)
	queue := &fakeQueue{}
	stage := newStage(t, claims, queue, NotFoundRetry)

	err := stage.Handle(context.Background(), ProcessClaim{
		ClaimID: claim.ID,
		Procedures: []domain.ProcedureInput{
			input(t, "100", "80", "10", "5"),
			input(t, "50", "80", "10", "5"),
		},
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	stored := claims.get(claim.ID)
	if stored.Status != domain.ClaimPartialFailure {
		t.Fatalf("expected PARTIAL_FAILURE, got %s", stored.Status)
	}
	if !stored.NetFee.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected net fee 20, got %s", stored.NetFee)
	}

	retry, ok := queue.only(t).job.(RetryClaim)
	if !ok || retry.Reason != ReasonProceduresFailed {
		t.Fatalf("expected retry_claim for failed procedures, got %+v", queue.only(t).job)
	}
}

func TestClaimStageRedeliveryReplacesProcedures(t *testing.T) {
	claim := pendingClaim()
	claims := newFakeClaims(claim)
	queue := &fakeQueue{}
	stage := newStage(t, claims, queue, NotFoundRetry)
	job := ProcessClaim{ClaimID: claim.ID, Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")}}

	for range 2 {
		if err := stage.Handle(context.Background(), job); err != nil {
			t.Fatalf("Handle returned error: %v", err)
		}
	}

	stored := claims.get(claim.ID)
	if len(stored.Procedures) != 1 {
		t.Fatalf("expected procedures to be replaced, got %d", len(stored.Procedures))
	}
	if !stored.NetFee.Equal(decimal.RequireFromString("35")) {
		t.Fatalf("expected net fee to stay 35, got %s", stored.NetFee)
	}
}

func TestClaimStagePersistenceErrorRollsBackAndRetries(t *testing.T) {
	claim := pendingClaim()
	claims := newFakeClaims(claim)
	claims.updateErr = errBoom
	queue := &fakeQueue{}
	stage := newStage(t, claims, queue, NotFoundRetry)

	err := stage.Handle(context.Background(), ProcessClaim{
		ClaimID:    claim.ID,
		Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")},
	})
	if err != nil {
		t.Fatalf("processing errors must not reach the queue, got %v", err)
	}
	if claims.commits != 0 || claims.rollbacks != 1 {
		t.Fatalf("expected rollback without commit, got commits=%d rollbacks=%d", claims.commits, claims.rollbacks)
	}
	if claims.get(claim.ID).Status != domain.ClaimPending {
		t.Fatalf("expected claim untouched")
	}
	retry, ok := queue.only(t).job.(RetryClaim)
	if !ok || retry.Reason != ReasonProcessingError {
		t.Fatalf("expected retry_claim after error, got %+v", queue.only(t).job)
	}
}

func TestClaimStageDropsLateJobForFailedClaim(t *testing.T) {
	claim := pendingClaim()
	claim.Status = domain.ClaimFailed
	claims := newFakeClaims(claim)
	queue := &fakeQueue{}
	stage := newStage(t, claims, queue, NotFoundRetry)

	err := stage.Handle(context.Background(), ProcessClaim{
		ClaimID:    claim.ID,
		Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")},
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	stored := claims.get(claim.ID)
	if stored.Status != domain.ClaimFailed || len(stored.Procedures) != 0 {
		t.Fatalf("expected FAILED claim untouched, got %s with %d procedures", stored.Status, len(stored.Procedures))
	}
	if claims.commits != 0 || claims.rollbacks != 1 {
		t.Fatalf("expected rollback without commit, got commits=%d rollbacks=%d", claims.commits, claims.rollbacks)
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("expected no follow-up job, got %+v", queue.jobs)
	}
}

func TestClaimStageMissingClaimFollowsPolicy(t *testing.T) {
	missing := pendingClaim()
	job := ProcessClaim{ClaimID: missing.ID, Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")}}

	retryQueue := &fakeQueue{}
	if err := newStage(t, newFakeClaims(), retryQueue, NotFoundRetry).Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if _, ok := retryQueue.only(t).job.(RetryClaim); !ok {
		t.Fatalf("retry policy: expected retry_claim, got %T", retryQueue.only(t).job)
	}

	failQueue := &fakeQueue{}
	if err := newStage(t, newFakeClaims(), failQueue, NotFoundFail).Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	dead, ok := failQueue.only(t).job.(DeadLetter)
	if !ok || dead.Reason != ReasonClaimNotFound {
		t.Fatalf("fail policy: expected dead_letter_queue, got %+v", failQueue.only(t).job)
	}
}

func TestClaimStageDefersWhenLeaseHeld(t *testing.T) {
	claim := pendingClaim()
	claims := newFakeClaims(claim)
	queue := &fakeQueue{}
	_, rdb := newRedis(t)
	stage := NewClaimStage(NewProcessor(claims, NotFoundRetry), heldLease{}, NewSnapshotStore(rdb, time.Hour), queue, 5*time.Second, logger.Discard())

	job := ProcessClaim{ClaimID: claim.ID, Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")}}
	if err := stage.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if claims.commits != 0 {
		t.Fatalf("expected no processing while lease is held")
	}
	queued := queue.only(t)
	if _, ok := queued.job.(ProcessClaim); !ok || queued.delay != 5*time.Second {
		t.Fatalf("expected process_claim deferred by 5s, got %+v", queued)
	}
}

func TestClaimStageReturnsHandOffFailure(t *testing.T) {
	claim := pendingClaim()
	queue := &fakeQueue{err: errBoom}
	stage := newStage(t, newFakeClaims(claim), queue, NotFoundRetry)

	err := stage.Handle(context.Background(), ProcessClaim{ClaimID: claim.ID, Procedures: []domain.ProcedureInput{input(t, "100", "80", "10", "5")}})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected hand-off error to be returned, got %v", err)
	}
}
