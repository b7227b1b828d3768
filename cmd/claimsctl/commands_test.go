package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/pipeline"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type recordingQueue struct {
	jobs []pipeline.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job pipeline.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) EnqueueIn(ctx context.Context, job pipeline.Job, _ time.Duration) error {
	return q.Enqueue(ctx, job)
}

func TestShowRetriesReportsCounterAndSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	store := pipeline.NewSnapshotStore(rdb, time.Hour)
	id := uuid.New()

	if _, err := store.SaveSubmission(ctx, id, []domain.ProcedureInput{{SubmittedProcedure: "D0180"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.IncrementAttempts(ctx, id); err != nil {
		t.Fatalf("increment: %v", err)
	}

	var out bytes.Buffer
	if err := showRetries(ctx, &out, store, id, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "attempts:  1 of 5") {
		t.Fatalf("missing attempts line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "snapshot:  present") {
		t.Fatalf("missing snapshot line:\n%s", out.String())
	}
}

func TestShowRetriesForUnknownClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var out bytes.Buffer
	if err := showRetries(context.Background(), &out, pipeline.NewSnapshotStore(rdb, time.Hour), uuid.New(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "snapshot:  missing") {
		t.Fatalf("expected missing snapshot:\n%s", out.String())
	}
}

func TestRequeueQueuesManualRetry(t *testing.T) {
	queue := &recordingQueue{}
	id := uuid.New()

	var out bytes.Buffer
	if err := requeue(context.Background(), &out, queue, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(queue.jobs))
	}
	job, ok := queue.jobs[0].(pipeline.RetryClaim)
	if !ok || job.ClaimID != id || job.Reason != pipeline.ReasonManualRequeue {
		t.Fatalf("unexpected job %#v", queue.jobs[0])
	}
}

type fakeReopener struct {
	failed map[uuid.UUID]bool
}

func (f *fakeReopener) Reopen(_ context.Context, id uuid.UUID) (bool, error) {
	if !f.failed[id] {
		return false, nil
	}
	delete(f.failed, id)
	return true, nil
}

func TestResetRetriesReopensFailedClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	store := pipeline.NewSnapshotStore(rdb, time.Hour)
	id := uuid.New()
	for range 5 {
		if _, err := store.IncrementAttempts(ctx, id); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	claims := &fakeReopener{failed: map[uuid.UUID]bool{id: true}}

	var out bytes.Buffer
	if err := resetRetries(ctx, &out, store, claims, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := store.Attempts(ctx, id); n != 0 {
		t.Fatalf("expected counter cleared, got %d", n)
	}
	if claims.failed[id] {
		t.Fatalf("expected claim reopened")
	}
	if !strings.Contains(out.String(), "reopened as PENDING") {
		t.Fatalf("missing reopen line:\n%s", out.String())
	}

	out.Reset()
	if err := resetRetries(ctx, &out, store, claims, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out.String(), "reopened") {
		t.Fatalf("claim that is not FAILED must not be reported reopened:\n%s", out.String())
	}
}

func TestWriteTopProvidersRanksFromOffset(t *testing.T) {
	var out bytes.Buffer
	writeTopProviders(&out, []domain.ProviderTotal{
		{ProviderNPI: "1497775530", TotalNetFee: decimal.RequireFromString("250")},
		{ProviderNPI: "1234567890", TotalNetFee: decimal.RequireFromString("99.5")},
	}, 10)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "11") || !strings.Contains(lines[1], "250.00") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "99.50") {
		t.Fatalf("unexpected second row %q", lines[2])
	}
}

func TestParseClaimIDRejectsGarbage(t *testing.T) {
	if _, err := parseClaimID("nope"); err == nil {
		t.Fatalf("expected error")
	}
}
