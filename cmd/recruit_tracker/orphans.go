package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-tracker/internal/observability"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Inspect and reassign candidates whose creator left the roster",
}

var orphansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orphaned candidates",
	RunE:  runOrphansList,
}

var orphansReassignCmd = &cobra.Command{
	Use:   "reassign",
	Short: "Move orphaned candidates to a new owner",
	Long: `Reassigns each candidate independently. Failed items are reported and the
rest still move; Ctrl-C abandons the items not yet started.`,
	RunE: runOrphansReassign,
}

var (
	reassignTo          string
	reassignIDs         []string
	reassignAll         bool
	reassignConcurrency int
)

func init() {
	orphansReassignCmd.Flags().StringVar(&reassignTo, "to", "", "ID of the new owner (required)")
	orphansReassignCmd.Flags().StringSliceVar(&reassignIDs, "ids", nil, "Candidate IDs to reassign")
	orphansReassignCmd.Flags().BoolVar(&reassignAll, "all", false, "Reassign every orphaned candidate")
	orphansReassignCmd.Flags().IntVar(&reassignConcurrency, "concurrency", 0, "Parallel writes (overrides config)")

	if err := orphansReassignCmd.MarkFlagRequired("to"); err != nil {
		panic(fmt.Sprintf("failed to mark to flag as required: %v", err))
	}
	orphansReassignCmd.MarkFlagsMutuallyExclusive("ids", "all")
	orphansReassignCmd.MarkFlagsOneRequired("ids", "all")

	orphansCmd.AddCommand(orphansListCmd, orphansReassignCmd)
	rootCmd.AddCommand(orphansCmd)
}

// openService loads config and builds a service for operator commands.
func openService(ctx context.Context) (*tracker.Service, *backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if reassignConcurrency > 0 {
		cfg.ReassignConcurrency = reassignConcurrency
	}
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	svc, err := newService(cfg, b)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return svc, b, nil
}

func runOrphansList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, b, err := openService(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	actor := tracker.SystemActor()
	list, err := svc.FindOrphanCandidates(ctx, actor)
	if err != nil {
		return fmt.Errorf("failed to find orphans: %w", err)
	}
	jobs, err := svc.ListJobs(ctx, actor)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	titles := make(map[uuid.UUID]string, len(jobs))
	for _, j := range jobs {
		titles[j.ID] = j.Title
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintOrphans(list, titles)
	return nil
}

func runOrphansReassign(cmd *cobra.Command, _ []string) error {
	owner, err := uuid.Parse(reassignTo)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(reassignIDs))
	for _, raw := range reassignIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid candidate id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc, b, err := openService(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	actor := tracker.SystemActor()
	if reassignAll {
		list, err := svc.FindOrphanCandidates(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to find orphans: %w", err)
		}
		for _, c := range list {
			ids = append(ids, c.ID)
		}
		if len(ids) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No orphaned candidates.")
			return nil
		}
	}

	res, err := svc.ReassignCandidates(ctx, actor, types.ReassignRequest{CandidateIDs: ids, NewOwnerID: owner})
	if err != nil {
		return fmt.Errorf("failed to reassign: %w", err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintReassignResult(*res, owner)

	abandoned := 0
	for _, f := range res.Failed {
		if tracker.IsAbandoned(f) {
			abandoned++
		}
	}
	if abandoned > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "interrupted: %d candidates were not attempted\n", abandoned)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d candidates were not reassigned", len(res.Failed), res.Total())
	}
	return nil
}
