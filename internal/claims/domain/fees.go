package domain

import "github.com/shopspring/decimal"

// ProcedureNetFee returns providerFee + coinsurance + copay - allowedFee.
// The result is exact and may be negative.
func ProcedureNetFee(providerFee, allowedFee, coinsurance, copay decimal.Decimal) decimal.Decimal {
	return providerFee.Add(coinsurance).Add(copay).Sub(allowedFee)
}

// ClaimNetFee sums the procedure net fees. An empty list yields zero.
func ClaimNetFee(fees []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, fee := range fees {
		total = total.Add(fee)
	}
	return total
}

// ProcedureStatusFor is SUCCESS iff netFee >= 0.
func ProcedureStatusFor(netFee decimal.Decimal) ProcedureStatus {
	if netFee.IsNegative() {
		return ProcedureFailed
	}
	return ProcedureSuccess
}
