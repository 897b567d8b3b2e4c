package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [SOURCE DEST]",
	Short: "Verify that the destination matches the source",
	Long: `Snapshots both trees and reports any difference between them.
Exit 0 if the destination matches; exit non-zero otherwise. Suitable for CI pipelines.`,
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

		result, err := eng.Check(cmd.Context())
		if err != nil {
			return err
		}

		if result.Clean {
			info("Destination matches the source.")
			return nil
		}

		printActions(result.Plan.Actions)
		return fmt.Errorf("check failed: %d action(s) needed", result.Plan.Summary.Total())
	},
}

func init() {
	addTreeFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
