package deadletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"claims_backend/internal/events"
	"claims_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Record is the archived form of a dead-lettered claim.
type Record struct {
	ClaimID     uuid.UUID `json:"claim_id"`
	Reason      string    `json:"reason"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	FailedAt    time.Time `json:"failed_at"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// NewRecord builds the record for e, stamped with now.
func NewRecord(e events.ClaimDeadLettered, now time.Time) Record {
	return Record{
		ClaimID:     e.ClaimID,
		Reason:      e.Reason,
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		FailedAt:    e.OccurredAt().UTC(),
		ArchivedAt:  now.UTC(),
	}
}

// ObjectKey partitions records by failure day. A claim dead-lettered twice
// on the same day overwrites its earlier record.
func (r Record) ObjectKey() string {
	return fmt.Sprintf("%s/%s.json", r.FailedAt.Format("2006/01/02"), r.ClaimID)
}

// ObjectStore is the subset of object storage the archive needs.
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	PutJSON(ctx context.Context, bucket, key string, body []byte) error
}

// MinIOStore implements ObjectStore using MinIO.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore creates a MinIO-backed object store.
func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinIOStore{client: client}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// PutJSON uploads body under key.
func (s *MinIOStore) PutJSON(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Archive writes one JSON record per dead-lettered claim.
type Archive struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

// NewArchive creates the archive sink. The bucket is created on first use.
func NewArchive(store ObjectStore, bucket string) *Archive {
	return &Archive{store: store, bucket: bucket, now: time.Now}
}

// Store archives e.
func (a *Archive) Store(ctx context.Context, e events.ClaimDeadLettered) error {
	record := NewRecord(e, a.now())
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode dead letter record: %w", err)
	}
	if err := a.store.EnsureBucketExists(ctx, a.bucket); err != nil {
		return err
	}
	return a.store.PutJSON(ctx, a.bucket, record.ObjectKey(), body)
}
