package pipeline

import (
	"errors"

	"claims_backend/internal/claims/repository"
)

var (
	// ErrClaimNotFound is returned when a stage cannot find its claim row.
	ErrClaimNotFound = repository.ErrClaimNotFound
	// ErrSnapshotMissing means a retry has no submission to re-derive procedures from.
	ErrSnapshotMissing = errors.New("submission snapshot missing")
	// ErrClaimClosed means the claim is already FAILED and must not be reprocessed.
	ErrClaimClosed = errors.New("claim already failed")
	// ErrLeaseHeld means another attempt for the same claim is in flight.
	ErrLeaseHeld = errors.New("claim lease held by another attempt")
	// ErrUnknownJob is returned by the dispatcher for a job outside the closed set.
	ErrUnknownJob = errors.New("unknown job kind")
)
