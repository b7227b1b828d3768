package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <claim-id>",
		Short: "Show a claim with its procedures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClaimID(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			repo, err := e.claims(cmd.Context())
			if err != nil {
				return err
			}
			claim, err := repo.GetClaim(cmd.Context(), id)
			if err != nil {
				return err
			}
			writeClaim(cmd.OutOrStdout(), claim)
			return nil
		},
	}
}

func retriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retries <claim-id>",
		Short: "Show the retry counter and submission snapshot state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClaimID(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			snapshots, err := e.snapshots(cmd.Context())
			if err != nil {
				return err
			}
			return showRetries(cmd.Context(), cmd.OutOrStdout(), snapshots, id, e.cfg.GetMaxAttempts())
		},
	}
}

func resetRetriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-retries <claim-id>",
		Short: "Clear the retry counter and reopen a FAILED claim for a fresh attempt budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClaimID(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			snapshots, err := e.snapshots(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := e.claims(cmd.Context())
			if err != nil {
				return err
			}
			return resetRetries(cmd.Context(), cmd.OutOrStdout(), snapshots, repo, id)
		},
	}
}

func requeueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <claim-id>",
		Short: "Hand a claim back to the retry coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClaimID(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			queue, err := e.queue()
			if err != nil {
				return err
			}
			return requeue(cmd.Context(), cmd.OutOrStdout(), queue, id)
		},
	}
}

func topNPIsCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "top-npis",
		Short: "Rank provider NPIs by total net fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 100 {
				return fmt.Errorf("--limit must be between 1 and 100")
			}
			if offset < 0 {
				return fmt.Errorf("--offset must not be negative")
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			repo, err := e.claims(cmd.Context())
			if err != nil {
				return err
			}
			totals, err := repo.TopProviders(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			writeTopProviders(cmd.OutOrStdout(), totals, offset)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum rows (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

type retryInspector interface {
	Inspect(ctx context.Context, claimID uuid.UUID) (pipeline.SnapshotInfo, error)
}

func showRetries(ctx context.Context, w io.Writer, snapshots retryInspector, id uuid.UUID, maxAttempts int) error {
	info, err := snapshots.Inspect(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "claim:     %s\n", id)
	fmt.Fprintf(w, "attempts:  %d of %d\n", info.Attempts, maxAttempts)
	if info.SnapshotPresent {
		fmt.Fprintf(w, "snapshot:  present (expires in %s)\n", formatTTL(info.SnapshotTTL))
	} else {
		fmt.Fprintln(w, "snapshot:  missing")
	}
	if info.Attempts > 0 {
		fmt.Fprintf(w, "counter:   expires in %s\n", formatTTL(info.CounterTTL))
	}
	return nil
}

type attemptResetter interface {
	ResetAttempts(ctx context.Context, claimID uuid.UUID) error
}

type claimReopener interface {
	Reopen(ctx context.Context, id uuid.UUID) (bool, error)
}

// resetRetries clears the counter before reopening, so a process_claim that
// sees PENDING also sees a fresh budget.
func resetRetries(ctx context.Context, w io.Writer, counters attemptResetter, claims claimReopener, id uuid.UUID) error {
	if err := counters.ResetAttempts(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "retry counter cleared for %s\n", id)

	reopened, err := claims.Reopen(ctx, id)
	if err != nil {
		return err
	}
	if reopened {
		fmt.Fprintf(w, "claim %s reopened as PENDING\n", id)
	}
	return nil
}

func requeue(ctx context.Context, w io.Writer, queue pipeline.Enqueuer, id uuid.UUID) error {
	job := pipeline.RetryClaim{ClaimID: id, Reason: pipeline.ReasonManualRequeue}
	if err := queue.Enqueue(ctx, job); err != nil {
		return err
	}
	fmt.Fprintf(w, "queued %s for %s\n", job.Kind(), id)
	return nil
}

func writeClaim(w io.Writer, c domain.Claim) {
	fmt.Fprintf(w, "claim:       %s\n", c.ID)
	fmt.Fprintf(w, "number:      %s\n", c.ClaimNumber)
	fmt.Fprintf(w, "status:      %s\n", c.Status)
	fmt.Fprintf(w, "net fee:     %s\n", c.NetFee.StringFixed(2))
	fmt.Fprintf(w, "updated at:  %s\n", c.UpdatedAt.UTC().Format(time.RFC3339))
	if len(c.Procedures) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODE\tNPI\tNET FEE\tSTATUS")
	for i, p := range c.Procedures {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, p.SubmittedProcedure, p.ProviderNPI, p.NetFee.StringFixed(2), p.Status)
	}
	_ = tw.Flush()
}

func writeTopProviders(w io.Writer, totals []domain.ProviderTotal, offset int) {
	if len(totals) == 0 {
		fmt.Fprintln(w, "no procedures recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNPI\tTOTAL NET FEE")
	for i, t := range totals {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", offset+i+1, t.ProviderNPI, t.TotalNetFee.StringFixed(2))
	}
	_ = tw.Flush()
}

func formatTTL(d time.Duration) string {
	if d < 0 {
		return "never"
	}
	return d.Round(time.Second).String()
}
