package repository

import (
	"context"
	"errors"
	"fmt"

	"claims_backend/internal/claims/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LoadClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error) {
	return loadClaim(ctx, t.tx, id, true)
}

func (t *pgTx) ReplaceProcedures(ctx context.Context, claimID uuid.UUID, procedures []domain.Procedure) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM claim_procedures WHERE claim_id = $1`, claimID); err != nil {
		return fmt.Errorf("clear procedures: %w", err)
	}

	if len(procedures) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, p := range procedures {
		batch.Queue(`
			INSERT INTO claim_procedures
				(id, claim_id, line_number, service_date, submitted_procedure, quadrant, provider_npi,
				 provider_fees, allowed_fees, member_coinsurance, member_copay, net_fee, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			p.ID, claimID, i+1, p.ServiceDate, p.SubmittedProcedure, p.Quadrant, p.ProviderNPI,
			p.ProviderFees, p.AllowedFees, p.MemberCoinsurance, p.MemberCopay, p.NetFee, string(p.Status),
		)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert procedures: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateClaim(ctx context.Context, claim domain.Claim) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE claims
		SET net_fee = $2, status = $3, updated_at = now()
		WHERE id = $1`, claim.ID, claim.NetFee, string(claim.Status))
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound()
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim tx: %w", err)
	}
	return nil
}

// Rollback is safe to call after Commit.
func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback claim tx: %w", err)
	}
	return nil
}
