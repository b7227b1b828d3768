package repository

import (
	"strings"
	"testing"
)

func TestMarkFailedQueryOnlyTouchesStatus(t *testing.T) {
	query := strings.ToLower(markFailedQuery)

	if strings.Contains(query, "net_fee") {
		t.Fatal("mark failed must not rewrite the derived net fee")
	}
	if !strings.Contains(query, "set status = $2") {
		t.Fatalf("expected status-only update, got %q", markFailedQuery)
	}
}

func TestReopenQueryOnlyMatchesFailedClaims(t *testing.T) {
	query := strings.ToLower(reopenQuery)

	if !strings.Contains(query, "where id = $1 and status = $2") {
		t.Fatalf("expected reopen to be guarded by the current status, got %q", reopenQuery)
	}
	if strings.Contains(query, "net_fee") {
		t.Fatal("reopen must not rewrite the derived net fee")
	}
}

func TestLoadClaimForUpdateLocksRow(t *testing.T) {
	if !strings.HasSuffix(strings.TrimSpace(strings.ToLower(loadClaimForUpdateQuery)), "for update") {
		t.Fatalf("expected pipeline load to lock the claim row, got %q", loadClaimForUpdateQuery)
	}
	if strings.Contains(strings.ToLower(loadClaimQuery), "for update") {
		t.Fatal("read-only claim load must not lock")
	}
}

func TestTopProvidersQueryRanksBySummedNetFee(t *testing.T) {
	query := strings.ToLower(topProvidersQuery)

	requiredFragments := []string{
		"sum(net_fee) as total_net_fee",
		"group by provider_npi",
		"order by total_net_fee desc",
		"limit $1 offset $2",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected ranking query fragment %q to be present", fragment)
		}
	}
}

func TestProceduresLoadInSubmissionOrder(t *testing.T) {
	if !strings.Contains(strings.ToLower(loadProceduresQuery), "order by line_number") {
		t.Fatalf("expected procedures ordered by line number, got %q", loadProceduresQuery)
	}
}
