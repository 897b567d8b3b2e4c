package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/dirsync/internal/manifest"
)

var snapshotOutput string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot ROOT",
	Short: "Record the content hashes of a tree",
	Long: `Snapshots ROOT and prints its manifest: one entry per distinct content,
in discovery order. With -o the manifest is written to a file, which 'plan
--source-manifest' can later use in place of the tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}

		m, err := eng.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if snapshotOutput == "" {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encoding manifest: %w", err)
			}
			return enc.Close()
		}

		if err := manifest.Save(snapshotOutput, m); err != nil {
			return err
		}
		info("Wrote %d entries to %s", len(m.Entries), snapshotOutput)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "write the manifest to this file")
	addTreeFlags(snapshotCmd)
	rootCmd.AddCommand(snapshotCmd)
}
