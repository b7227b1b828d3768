package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/claims/repository"
	"claims_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeClaims struct {
	mu        sync.Mutex
	claims    map[uuid.UUID]domain.Claim
	beginErr  error
	updateErr error
	failed    []uuid.UUID
	commits   int
	rollbacks int
}

func newFakeClaims(claims ...domain.Claim) *fakeClaims {
	f := &fakeClaims{claims: make(map[uuid.UUID]domain.Claim)}
	for _, c := range claims {
		f.claims[c.ID] = c
	}
	return f
}

func (f *fakeClaims) Begin(context.Context) (repository.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{store: f}, nil
}

func (f *fakeClaims) MarkFailed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[id]
	if !ok {
		return apperr.Wrap(apperr.KindNotFound, "claim not found", repository.ErrClaimNotFound)
	}
	c.Status = domain.ClaimFailed
	f.claims[id] = c
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeClaims) get(id uuid.UUID) domain.Claim {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[id]
}

type fakeTx struct {
	store     *fakeClaims
	claim     *domain.Claim
	procs     []domain.Procedure
	committed bool
}

func (t *fakeTx) LoadClaim(_ context.Context, id uuid.UUID) (domain.Claim, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	c, ok := t.store.claims[id]
	if !ok {
		return domain.Claim{}, apperr.Wrap(apperr.KindNotFound, "claim not found", repository.ErrClaimNotFound)
	}
	c.Procedures = append([]domain.Procedure(nil), c.Procedures...)
	return c, nil
}

func (t *fakeTx) ReplaceProcedures(_ context.Context, _ uuid.UUID, procs []domain.Procedure) error {
	t.procs = append([]domain.Procedure(nil), procs...)
	return nil
}

func (t *fakeTx) UpdateClaim(_ context.Context, claim domain.Claim) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	t.claim = &claim
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.claim != nil {
		c := *t.claim
		c.Procedures = t.procs
		t.store.claims[c.ID] = c
	}
	t.committed = true
	t.store.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return nil
	}
	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	return nil
}

type queuedJob struct {
	job   Job
	delay time.Duration
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job Job) error {
	return q.EnqueueIn(ctx, job, 0)
}

func (q *fakeQueue) EnqueueIn(_ context.Context, job Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{job: job, delay: delay})
	return nil
}

func (q *fakeQueue) only(t *testing.T) queuedJob {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) != 1 {
		t.Fatalf("expected exactly one queued job, got %d: %+v", len(q.jobs), q.jobs)
	}
	return q.jobs[0]
}

func (q *fakeQueue) count(kind Kind) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, j := range q.jobs {
		if j.job.Kind() == kind {
			n++
		}
	}
	return n
}

func (q *fakeQueue) reset() {
	q.mu.Lock()
	q.jobs = nil
	q.mu.Unlock()
}

type heldLease struct{}

func (heldLease) Acquire(context.Context, uuid.UUID) (ReleaseFunc, error) {
	return nil, ErrLeaseHeld
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func pendingClaim() domain.Claim {
	return domain.Claim{
		ID:               uuid.New(),
		ClaimNumber:      "CLM-0001",
		PlanGroup:        "GRP-1000",
		SubscriberNumber: "3730189502",
		NetFee:           decimal.Zero,
		Status:           domain.ClaimPending,
	}
}

func input(t *testing.T, provider, allowed, coinsurance, copay string) domain.ProcedureInput {
	t.Helper()
	return domain.ProcedureInput{
		ServiceDate:        domain.ServiceDate{Time: time.Date(2024, 10, 29, 10, 0, 0, 0, time.UTC)},
		SubmittedProcedure: "D0120",
		ProviderNPI:        "1497775530",
		ProviderFees:       decimal.RequireFromString(provider),
		AllowedFees:        decimal.RequireFromString(allowed),
		MemberCoinsurance:  decimal.RequireFromString(coinsurance),
		MemberCopay:        decimal.RequireFromString(copay),
	}
}

var errBoom = errors.New("boom")
