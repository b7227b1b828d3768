package domain

// AggregateStatus derives a claim status from the multiset of its procedure
// statuses. Mixed SUCCESS and FAILED is checked before all-FAILED.
// Any PENDING child, or no children at all, yields PROCESSING.
func AggregateStatus(statuses []ProcedureStatus) ClaimStatus {
	var success, failed, other int
	for _, s := range statuses {
		switch s {
		case ProcedureSuccess:
			success++
		case ProcedureFailed:
			failed++
		default:
			other++
		}
	}

	switch {
	case other > 0 || len(statuses) == 0:
		return ClaimProcessing
	case failed > 0 && success > 0:
		return ClaimPartialFailure
	case failed > 0:
		return ClaimFailure
	default:
		return ClaimSuccess
	}
}
