// Package repository provides pgx-backed persistence for claims and their procedures.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	claimNotFoundMessage  = "claim not found"
	duplicateClaimMessage = "claim number already exists"
	uniqueViolationCode   = "23505"

	claimColumns     = `id, claim_number, plan_group, subscriber_number, net_fee, status, created_at, updated_at`
	procedureColumns = `id, claim_id, service_date, submitted_procedure, quadrant, provider_npi, provider_fees, allowed_fees, member_coinsurance, member_copay, net_fee, status`

	loadClaimQuery          = `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	loadClaimForUpdateQuery = loadClaimQuery + ` FOR UPDATE`

	loadProceduresQuery = `
		SELECT ` + procedureColumns + `
		FROM claim_procedures
		WHERE claim_id = $1
		ORDER BY line_number ASC`

	markFailedQuery = `UPDATE claims SET status = $2, updated_at = now() WHERE id = $1`

	reopenQuery = `UPDATE claims SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`

	topProvidersQuery = `
		SELECT provider_npi, SUM(net_fee) AS total_net_fee
		FROM claim_procedures
		GROUP BY provider_npi
		ORDER BY total_net_fee DESC, provider_npi ASC
		LIMIT $1 OFFSET $2`

	listStalePendingQuery = `
		SELECT id FROM claims
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements Repository on a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new claims repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateClaim inserts a claim in PENDING with no procedures.
func (r *Repo) CreateClaim(ctx context.Context, params CreateClaimParams) (domain.Claim, error) {
	query := `
		INSERT INTO claims (id, claim_number, plan_group, subscriber_number, net_fee, status)
		VALUES ($1, $2, $3, $4, 0, $5)
		RETURNING ` + claimColumns

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	claim, err := scanClaim(r.pool.QueryRow(ctx, query,
		id, params.ClaimNumber, params.PlanGroup, params.SubscriberNumber, string(domain.ClaimPending),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.Claim{}, apperr.Conflict(duplicateClaimMessage)
		}
		return domain.Claim{}, fmt.Errorf("create claim: %w", err)
	}
	return claim, nil
}

// ClaimNumberExists reports whether a claim with this number was already submitted.
func (r *Repo) ClaimNumberExists(ctx context.Context, claimNumber string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM claims WHERE claim_number = $1)`, claimNumber,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check claim number: %w", err)
	}
	return exists, nil
}

// GetClaim returns the claim with its procedures.
func (r *Repo) GetClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error) {
	return loadClaim(ctx, r.pool, id, false)
}

// MarkFailed forces status FAILED without touching net fee or procedures.
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, markFailedQuery, id, string(domain.ClaimFailed))
	if err != nil {
		return fmt.Errorf("mark claim failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound()
	}
	return nil
}

// Reopen sets a FAILED claim back to PENDING so process_claim handles it again.
func (r *Repo) Reopen(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, reopenQuery, id, string(domain.ClaimFailed), string(domain.ClaimPending))
	if err != nil {
		return false, fmt.Errorf("reopen claim: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := r.GetClaim(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// TopProviders ranks provider NPIs by summed procedure net fee, highest first.
func (r *Repo) TopProviders(ctx context.Context, limit, offset int) ([]domain.ProviderTotal, error) {
	rows, err := r.pool.Query(ctx, topProvidersQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("top providers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ProviderTotal, 0, limit)
	for rows.Next() {
		var row domain.ProviderTotal
		if err := rows.Scan(&row.ProviderNPI, &row.TotalNetFee); err != nil {
			return nil, fmt.Errorf("scan top provider: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ListStalePending returns PENDING claims created before createdBefore, oldest first.
func (r *Repo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, listStalePendingQuery, string(domain.ClaimPending), createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending claims: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale claim: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Begin opens a transaction scoped to one pipeline stage.
func (r *Repo) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func loadClaim(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (domain.Claim, error) {
	query := loadClaimQuery
	if forUpdate {
		query = loadClaimForUpdateQuery
	}

	claim, err := scanClaim(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Claim{}, notFound()
		}
		return domain.Claim{}, fmt.Errorf("load claim: %w", err)
	}

	procedures, err := loadProcedures(ctx, q, id)
	if err != nil {
		return domain.Claim{}, err
	}
	claim.Procedures = procedures
	return claim, nil
}

func loadProcedures(ctx context.Context, q querier, claimID uuid.UUID) ([]domain.Procedure, error) {
	rows, err := q.Query(ctx, loadProceduresQuery, claimID)
	if err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}
	defer rows.Close()

	procedures := make([]domain.Procedure, 0)
	for rows.Next() {
		var p domain.Procedure
		var status string
		if err := rows.Scan(
			&p.ID, &p.ClaimID, &p.ServiceDate, &p.SubmittedProcedure, &p.Quadrant, &p.ProviderNPI,
			&p.ProviderFees, &p.AllowedFees, &p.MemberCoinsurance, &p.MemberCopay, &p.NetFee, &status,
		); err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		p.Status = domain.ProcedureStatus(status)
		p.ServiceDate = p.ServiceDate.UTC()
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func scanClaim(row pgx.Row) (domain.Claim, error) {
	var c domain.Claim
	var status string
	var netFee decimal.Decimal
	if err := row.Scan(&c.ID, &c.ClaimNumber, &c.PlanGroup, &c.SubscriberNumber, &netFee, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Claim{}, err
	}
	c.NetFee = netFee
	c.Status = domain.ClaimStatus(status)
	c.Procedures = []domain.Procedure{}
	return c, nil
}

func notFound() error {
	return apperr.Wrap(apperr.KindNotFound, claimNotFoundMessage, ErrClaimNotFound)
}
