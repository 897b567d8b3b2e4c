package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/engine"
)

var (
	syncDryRun   bool
	syncContinue bool
	syncStrict   bool
	syncNoLock   bool
	syncTrashDir string
	syncManifest string
)

var syncCmd = &cobra.Command{
	Use:   "sync [SOURCE DEST]",
	Short: "Make the destination tree match the source tree",
	Long: `Snapshots both trees, computes the copy, move and delete actions that make
the destination match the source, and applies them one at a time in order.

Roots come from the arguments or from the config file. The source tree is
never modified. By default the first failed action stops the run; use
--continue-on-error to attempt every action and report all failures.`,
	Args: rootArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}

		policy, err := apply.ParsePolicy(cfg.OnError)
		if err != nil {
			return err
		}

		opts := engine.SyncOptions{
			DryRun:   syncDryRun,
			Policy:   policy,
			Strict:   cfg.StrictMode(),
			TrashDir: cfg.TrashDir,
			Manifest: cfg.Manifest,
			NoLock:   !cfg.LockEnabled(),
		}
		result, err := eng.Sync(cmd.Context(), opts)
		if result != nil {
			printSyncResult(result)
		}
		return err
	},
}

func printSyncResult(result *engine.SyncResult) {
	plan := result.Plan

	if result.DryRun {
		info("Dry run: no files changed.")
		printActions(plan.Actions)
		for _, c := range result.Calls {
			detail("%s %s %s", c.Op, c.Src, c.Dst)
		}
		warnDivergence(plan.Divergence)
		info("")
		info("Would apply %d action(s): %d copy, %d move, %d delete.",
			plan.Summary.Total(), plan.Summary.Copies, plan.Summary.Moves, plan.Summary.Deletes)
		return
	}

	printActions(result.Applied)
	for _, f := range result.Failed {
		errorf("%s", f)
	}
	warnDivergence(plan.Divergence)

	if result.Manifest != "" {
		detail("manifest written to %s", result.Manifest)
	}

	info("")
	info("Sync complete: %d applied, %d failed, %d skipped in %s (run %s).",
		len(result.Applied), len(result.Failed),
		plan.Summary.Total()-len(result.Applied)-len(result.Failed),
		result.Duration.Round(time.Millisecond), plan.RunID)
	detail("source: %d entries, destination before sync: %d entries", plan.Source.Len(), plan.Dest.Len())
	if plan.InSync() {
		info("Destination already up to date.")
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would change without touching the destination")
	syncCmd.Flags().BoolVar(&syncContinue, "continue-on-error", false, "attempt every action and report all failures at the end")
	syncCmd.Flags().BoolVar(&syncStrict, "strict", false, "fail when the destination changed since it was snapshotted")
	syncCmd.Flags().BoolVar(&syncNoLock, "no-lock", false, "do not take the destination lock")
	syncCmd.Flags().StringVar(&syncTrashDir, "trash-dir", "", "keep deleted and overwritten files in this trash directory")
	syncCmd.Flags().StringVar(&syncManifest, "manifest", "", "write the source snapshot to this file after a successful sync")
	addTreeFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
