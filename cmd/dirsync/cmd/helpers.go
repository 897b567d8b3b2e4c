package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirsync/internal/config"
	"github.com/bianoble/dirsync/internal/engine"
	"github.com/bianoble/dirsync/internal/inventory"
	"github.com/bianoble/dirsync/internal/reconcile"
)

// out receives command output. Logs go to stderr.
var out io.Writer = os.Stdout

// Tree flags shared by every command that snapshots a tree.
var (
	includeGlobs []string
	excludeLines []string
	blockSize    int
)

func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&includeGlobs, "include", nil, "only consider files matching these globs (doublestar syntax)")
	cmd.Flags().StringSliceVar(&excludeLines, "exclude", nil, "ignore paths matching these patterns (gitignore syntax)")
	cmd.Flags().IntVar(&blockSize, "block-size", 0, "read size in bytes used when hashing (default 64 KiB)")
}

// rootArgs accepts either no positional arguments or SOURCE and DEST.
func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("expected SOURCE and DEST, or neither (got %d argument(s))", len(args))
	}
	return nil
}

// loadConfig merges the config layers, then positional roots and flags
// the user set on cmd, and validates the result.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, []config.ConfigLayerInfo, error) {
	cfg, layers, err := config.LoadLayers(config.DiscoverOptions{
		ProjectPath:    configPath,
		RequireProject: cmd.Flags().Changed("config"),
		NoInherit:      config.EnvNoInherit(),
	})
	if err != nil {
		return nil, layers, fmt.Errorf("loading config %s: %w", configPath, err)
	}

	overlay, err := flagOverlay(cmd, args)
	if err != nil {
		return nil, layers, err
	}
	merged, err := config.Merge(cfg, overlay)
	if err != nil {
		return nil, layers, err
	}
	if errs := config.Validate(merged); len(errs) > 0 {
		return nil, layers, &config.ValidationError{Errors: errs}
	}
	return merged, layers, nil
}

// flagOverlay turns positional roots and explicitly set flags into a
// config layer.
func flagOverlay(cmd *cobra.Command, args []string) (*config.Config, error) {
	overlay := &config.Config{}
	f := cmd.Flags()

	if len(args) == 2 {
		overlay.Source = args[0]
		overlay.Dest = args[1]
	}
	if f.Changed("include") {
		overlay.Include = includeGlobs
	}
	if f.Changed("exclude") {
		overlay.Exclude = excludeLines
	}
	if f.Changed("block-size") {
		overlay.BlockSize = blockSize
	}
	if f.Changed("continue-on-error") {
		overlay.OnError = "fail-fast"
		if syncContinue {
			overlay.OnError = "continue"
		}
	}
	if f.Changed("strict") {
		overlay.Strict = config.Bool(syncStrict)
	}
	if f.Changed("trash-dir") {
		overlay.TrashDir = syncTrashDir
	}
	if f.Changed("manifest") {
		overlay.Manifest = syncManifest
	}
	if f.Changed("no-lock") {
		overlay.Lock = config.Bool(!syncNoLock)
	}

	for _, p := range []*string{&overlay.Source, &overlay.Dest, &overlay.TrashDir, &overlay.Manifest} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", *p, err)
		}
		*p = abs
	}
	return overlay, nil
}

// newEngine creates an engine for the configured roots and filters.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	filter, err := inventory.NewFilter(cfg.Exclude, cfg.Include)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	return &engine.Engine{
		Source: cfg.Source,
		Dest:   cfg.Dest,
		Reader: &inventory.Reader{
			BlockSize: cfg.BlockSize,
			Filter:    filter,
			Logger:    logger,
		},
		Logger: logger,
	}, nil
}

// printActions lists actions, one per line.
func printActions(actions []reconcile.Action) {
	for _, a := range actions {
		info("  %-7s %s", a.Kind, describe(a))
	}
}

func describe(a reconcile.Action) string {
	if a.Kind == reconcile.KindDelete {
		return a.Dst
	}
	if a.Src == a.Dst {
		return a.Dst
	}
	return a.Src + " -> " + a.Dst
}

// warnDivergence reports names a plan is expected to leave wrong.
func warnDivergence(d reconcile.Divergence) {
	if d.Converges() {
		return
	}
	for _, name := range d.Missing {
		warnf("%s will be missing after this plan (name collision)", name)
	}
	for _, name := range d.Extra {
		warnf("%s will remain after this plan", name)
	}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Fprintf(out, "  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// warnf prints a warning to stderr.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
