package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"claims_backend/internal/claims/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	proceduresKeyPrefix = "claim_procedures:"
	retryCountKeyPrefix = "claim_retry_count:"
)

// ProceduresKey is the Redis key holding a claim's submission snapshot.
func ProceduresKey(claimID uuid.UUID) string {
	return proceduresKeyPrefix + claimID.String()
}

// RetryCountKey is the Redis key holding a claim's retry counter.
func RetryCountKey(claimID uuid.UUID) string {
	return retryCountKeyPrefix + claimID.String()
}

// Submission is a stored snapshot. Raw is the exact stored bytes.
type Submission struct {
	Procedures []domain.ProcedureInput
	Raw        []byte
}

// SnapshotInfo describes the retry state of a claim for operators.
type SnapshotInfo struct {
	Attempts        int
	SnapshotPresent bool
	SnapshotTTL     time.Duration
	CounterTTL      time.Duration
}

// SnapshotStore keeps submission snapshots and retry counters in Redis.
// Both keys expire after ttl; the expiry is pushed out on every retry.
type SnapshotStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewSnapshotStore creates a store on rdb.
func NewSnapshotStore(rdb redis.Cmdable, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

// SaveSubmission writes the snapshot once. It reports false when a snapshot
// already existed, in which case the stored one is kept.
func (s *SnapshotStore) SaveSubmission(ctx context.Context, claimID uuid.UUID, procedures []domain.ProcedureInput) (bool, error) {
	raw, err := json.Marshal(procedures)
	if err != nil {
		return false, fmt.Errorf("encode submission snapshot: %w", err)
	}

	saved, err := s.rdb.SetNX(ctx, ProceduresKey(claimID), raw, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("save submission snapshot: %w", err)
	}
	return saved, nil
}

// LoadSubmission returns the stored snapshot. found is false when the key is absent.
func (s *SnapshotStore) LoadSubmission(ctx context.Context, claimID uuid.UUID) (Submission, bool, error) {
	raw, err := s.rdb.Get(ctx, ProceduresKey(claimID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Submission{}, false, nil
	}
	if err != nil {
		return Submission{}, false, fmt.Errorf("load submission snapshot: %w", err)
	}

	var procedures []domain.ProcedureInput
	if err := json.Unmarshal(raw, &procedures); err != nil {
		return Submission{}, false, fmt.Errorf("decode submission snapshot: %w", err)
	}
	return Submission{Procedures: procedures, Raw: raw}, true, nil
}

// Attempts returns the retry counter, zero when absent.
func (s *SnapshotStore) Attempts(ctx context.Context, claimID uuid.UUID) (int, error) {
	n, err := s.rdb.Get(ctx, RetryCountKey(claimID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read retry counter: %w", err)
	}
	return n, nil
}

// IncrementAttempts atomically bumps the retry counter and refreshes the
// expiry of both keys. It returns the new counter value.
func (s *SnapshotStore) IncrementAttempts(ctx context.Context, claimID uuid.UUID) (int, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, RetryCountKey(claimID))
		pipe.Expire(ctx, RetryCountKey(claimID), s.ttl)
		pipe.Expire(ctx, ProceduresKey(claimID), s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment retry counter: %w", err)
	}
	return int(incr.Val()), nil
}

// ResetAttempts deletes the retry counter.
func (s *SnapshotStore) ResetAttempts(ctx context.Context, claimID uuid.UUID) error {
	if err := s.rdb.Del(ctx, RetryCountKey(claimID)).Err(); err != nil {
		return fmt.Errorf("reset retry counter: %w", err)
	}
	return nil
}

// Inspect reports counter, snapshot presence and both TTLs.
func (s *SnapshotStore) Inspect(ctx context.Context, claimID uuid.UUID) (SnapshotInfo, error) {
	var exists *redis.IntCmd
	var snapshotTTL, counterTTL *redis.DurationCmd
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, ProceduresKey(claimID))
		snapshotTTL = pipe.TTL(ctx, ProceduresKey(claimID))
		counterTTL = pipe.TTL(ctx, RetryCountKey(claimID))
		return nil
	})
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("inspect retry state: %w", err)
	}

	attempts, err := s.Attempts(ctx, claimID)
	if err != nil {
		return SnapshotInfo{}, err
	}

	return SnapshotInfo{
		Attempts:        attempts,
		SnapshotPresent: exists.Val() == 1,
		SnapshotTTL:     snapshotTTL.Val(),
		CounterTTL:      counterTTL.Val(),
	}, nil
}
