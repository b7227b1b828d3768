package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLeaseAllowsOneHolder(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	lease := NewRedisLease(rdb, time.Minute)
	id := uuid.New()

	release, err := lease.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := lease.Acquire(ctx, id); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("expected ErrLeaseHeld, got %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := lease.Acquire(ctx, id); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestExpiredLeaseReleaseDoesNotDropNewHolder(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	lease := NewRedisLease(rdb, time.Minute)
	id := uuid.New()

	staleRelease, err := lease.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := lease.Acquire(ctx, id); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if err := staleRelease(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !mr.Exists(LeaseKey(id)) {
		t.Fatalf("stale release removed the new holder's lease")
	}
}
