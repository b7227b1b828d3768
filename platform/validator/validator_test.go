package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

type sample struct {
	Code  string          `json:"procedure_code" validate:"required,procedure_code"`
	NPI   string          `json:"provider_npi" validate:"required,npi"`
	Fee   decimal.Decimal `json:"provider_fee" validate:"money_gt0"`
	Copay decimal.Decimal `json:"member_copay" validate:"money_gte0"`
}

func TestCustomRulesAcceptValidInput(t *testing.T) {
	v := New()
	err := v.Struct(sample{
		Code:  "D0120",
		NPI:   "1234567890",
		Fee:   decimal.RequireFromString("100.00"),
		Copay: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}
}

func TestCustomRulesReportFields(t *testing.T) {
	v := New()
	err := v.Struct(sample{
		Code:  "X0120",
		NPI:   "12345",
		Fee:   decimal.Zero,
		Copay: decimal.RequireFromString("-1"),
	})
	fields := FieldErrors(err)
	for _, name := range []string{"procedure_code", "provider_npi", "provider_fee", "member_copay"} {
		if _, ok := fields[name]; !ok {
			t.Fatalf("expected %s to be reported, got %v", name, fields)
		}
	}
}

func TestMoneyRulesKeepDecimalPrecision(t *testing.T) {
	v := New()

	tiny := decimal.RequireFromString("1e-400")
	if err := v.Var(tiny, "money_gt0"); err != nil {
		t.Fatalf("expected %s to be positive, got %v", tiny, err)
	}
	if err := v.Var(tiny.Neg(), "money_gte0"); err == nil {
		t.Fatalf("expected %s to be rejected", tiny.Neg())
	}
	if err := v.Var(decimal.Zero, "money_gte0"); err != nil {
		t.Fatalf("expected zero to pass gte0, got %v", err)
	}
	if err := v.Var(decimal.Zero, "money_gt0"); err == nil {
		t.Fatalf("expected zero to fail gt0")
	}
}

func TestMoneyRulesDescribeFailures(t *testing.T) {
	fields := FieldErrors(New().Struct(sample{
		Code:  "D0120",
		NPI:   "1234567890",
		Fee:   decimal.Zero,
		Copay: decimal.RequireFromString("-0.01"),
	}))
	if fields["provider_fee"] != "must be greater than 0" {
		t.Fatalf("unexpected provider_fee message %q", fields["provider_fee"])
	}
	if fields["member_copay"] != "must be greater than or equal to 0" {
		t.Fatalf("unexpected member_copay message %q", fields["member_copay"])
	}
}
