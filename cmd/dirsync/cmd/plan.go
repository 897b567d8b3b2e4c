package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/dirsync/internal/engine"
	"github.com/bianoble/dirsync/internal/manifest"
	"github.com/bianoble/dirsync/internal/reconcile"
)

var (
	planFormat         string
	planSourceManifest string
)

// planDocument is the YAML form of a plan.
type planDocument struct {
	Source  string             `yaml:"source"`
	Dest    string             `yaml:"dest"`
	Copies  int                `yaml:"copies"`
	Moves   int                `yaml:"moves"`
	Deletes int                `yaml:"deletes"`
	Actions []reconcile.Action `yaml:"actions"`
	Missing []string           `yaml:"missing,omitempty"`
	Extra   []string           `yaml:"extra,omitempty"`
}

var planCmd = &cobra.Command{
	Use:   "plan [SOURCE DEST]",
	Short: "Show the actions a sync would apply",
	Long: `Snapshots both trees and prints the ordered copy, move and delete actions
that would make the destination match the source. Nothing is modified.

With --source-manifest the source side is read from a saved snapshot
instead of the source tree. The manifest's root is used as the source root
when none is given.`,
	Args: rootArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFormat != "text" && planFormat != "yaml" {
			return fmt.Errorf("unknown format '%s' — must be one of: text, yaml", planFormat)
		}

		cfg, _, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if planSourceManifest != "" && cfg.Source == "" {
			m, err := manifest.Load(planSourceManifest)
			if err != nil {
				return err
			}
			cfg.Source = m.Root
		}

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}

		plan, err := eng.Plan(cmd.Context(), engine.PlanOptions{SourceManifest: planSourceManifest})
		if err != nil {
			return err
		}

		if planFormat == "yaml" {
			return writePlanYAML(eng, plan)
		}

		if plan.InSync() {
			info("Destination already matches the source.")
			return nil
		}
		printActions(plan.Actions)
		warnDivergence(plan.Divergence)
		info("")
		info("%d action(s): %d copy, %d move, %d delete.",
			plan.Summary.Total(), plan.Summary.Copies, plan.Summary.Moves, plan.Summary.Deletes)
		return nil
	},
}

func writePlanYAML(eng *engine.Engine, plan *engine.PlanResult) error {
	doc := planDocument{
		Source:  eng.Source,
		Dest:    eng.Dest,
		Copies:  plan.Summary.Copies,
		Moves:   plan.Summary.Moves,
		Deletes: plan.Summary.Deletes,
		Actions: plan.Actions,
		Missing: plan.Divergence.Missing,
		Extra:   plan.Divergence.Extra,
	}
	if doc.Actions == nil {
		doc.Actions = []reconcile.Action{}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return enc.Close()
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text or yaml")
	planCmd.Flags().StringVar(&planSourceManifest, "source-manifest", "", "read the source snapshot from this manifest")
	addTreeFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}
