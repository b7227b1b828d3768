package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ProcedureStatus
		want     ClaimStatus
	}{
		{"all success", []ProcedureStatus{ProcedureSuccess, ProcedureSuccess}, ClaimSuccess},
		{"mixed", []ProcedureStatus{ProcedureSuccess, ProcedureFailed}, ClaimPartialFailure},
		{"mixed reversed", []ProcedureStatus{ProcedureFailed, ProcedureSuccess}, ClaimPartialFailure},
		{"all failed", []ProcedureStatus{ProcedureFailed, ProcedureFailed}, ClaimFailure},
		{"pending present", []ProcedureStatus{ProcedureSuccess, ProcedurePending}, ClaimProcessing},
		{"pending with failures", []ProcedureStatus{ProcedureFailed, ProcedureSuccess, ProcedurePending}, ClaimProcessing},
		{"empty", nil, ClaimProcessing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := AggregateStatus(tc.statuses)
			second := AggregateStatus(tc.statuses)
			if first != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, first)
			}
			if first != second {
				t.Fatalf("aggregation is not stable: %s then %s", first, second)
			}
		})
	}
}

func TestRecomputeFromFreshProcedures(t *testing.T) {
	claimID := uuid.New()
	claim := Claim{ID: claimID, Status: ClaimPending}
	claim.Procedures = []Procedure{
		NewProcedure(claimID, ProcedureInput{
			SubmittedProcedure: "D0120",
			ProviderNPI:        "1497775530",
			ProviderFees:       dec(t, "100"),
			AllowedFees:        dec(t, "80"),
			MemberCoinsurance:  dec(t, "10"),
			MemberCopay:        dec(t, "5"),
		}),
	}

	claim.Recompute()

	if claim.Procedures[0].Status != ProcedureSuccess {
		t.Fatalf("expected procedure SUCCESS, got %s", claim.Procedures[0].Status)
	}
	if !claim.NetFee.Equal(dec(t, "35.00")) {
		t.Fatalf("expected claim net fee 35.00, got %s", claim.NetFee)
	}
	if claim.Status != ClaimSuccess {
		t.Fatalf("expected claim SUCCESS, got %s", claim.Status)
	}
	if !AllSucceeded(claim.Procedures) {
		t.Fatalf("expected AllSucceeded")
	}
}
