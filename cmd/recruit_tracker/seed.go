package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-tracker/internal/config"
	"github.com/jonathan/recruit-tracker/internal/observability"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load users and jobs from a YAML roster",
	Long: `Upserts the users and jobs listed in a YAML roster file. Records are matched by id,
so running the same file twice updates rather than duplicates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		seedFlag = args[0]
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.SeedFile
	if path == "" {
		return fmt.Errorf("no seed file given: pass a path or set TRACKER_SEED_FILE")
	}

	// openBackend seeds the memory store itself; loading again would only report updates
	seedOnOpen := cfg.Store != config.StorePostgres
	if seedOnOpen {
		cfg.SeedFile = ""
	}
	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	sum, err := applySeed(cmd.Context(), b.store, path)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSeedSummary(path, sum)
	if seedOnOpen {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "note: memory store is not persisted; use --store=postgres to keep the roster")
	}
	return nil
}
