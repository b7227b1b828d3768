package events

import "github.com/google/uuid"

const (
	NameClaimSubmitted    = "claims.claim.submitted"
	NameClaimDeadLettered = "pipeline.claim.dead_lettered"
)

// ClaimSubmitted follows a stored claim whose first process_claim job was
// handed to the queue, or lost and left to the stale sweeper.
type ClaimSubmitted struct {
	BaseEvent
	ClaimID     uuid.UUID `json:"claim_id"`
	ClaimNumber string    `json:"claim_number"`
	Procedures  int       `json:"procedures"`
}

func (ClaimSubmitted) EventName() string { return NameClaimSubmitted }

// ClaimDeadLettered marks a claim the pipeline gave up on. Attempts is the
// retry counter at that point, MaxAttempts the configured budget.
type ClaimDeadLettered struct {
	BaseEvent
	ClaimID     uuid.UUID `json:"claim_id"`
	Reason      string    `json:"reason"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
}

func (ClaimDeadLettered) EventName() string { return NameClaimDeadLettered }
