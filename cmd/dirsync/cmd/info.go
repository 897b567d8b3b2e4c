package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bianoble/dirsync/internal/config"
	"github.com/bianoble/dirsync/internal/trash"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the dirsync configuration",
	Long: `Displays the dirsync version, the configuration chain and which layers were
loaded, the configured roots, and the trash directory and its size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, layers, err := loadConfig(cmd, nil)
		if err != nil {
			// Still show what was discovered; the error says why loading failed.
			errorf("%s", err)
			cfg = config.Default()
		}

		fmt.Fprintf(out, "dirsync %s\n", version)

		fmt.Fprintln(out, "  config chain:")
		for _, layer := range layers {
			status := "not found"
			switch {
			case layer.Loaded:
				status = "loaded"
			case layer.Err != nil:
				status = "error"
			}
			fmt.Fprintf(out, "    %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
		}

		fmt.Fprintf(out, "  source:        %s\n", orUnset(cfg.Source))
		fmt.Fprintf(out, "  destination:   %s\n", orUnset(cfg.Dest))
		fmt.Fprintf(out, "  on error:      %s\n", orDefault(cfg.OnError, "fail-fast"))
		fmt.Fprintf(out, "  strict:        %t\n", cfg.StrictMode())
		fmt.Fprintf(out, "  lock:          %t\n", cfg.LockEnabled())

		trashDir := cfg.TrashDir
		if trashDir == "" {
			fmt.Fprintf(out, "  trash dir:     (disabled for sync, restore uses %s)\n", trash.DefaultDir())
			return nil
		}
		fmt.Fprintf(out, "  trash dir:     %s\n", trashDir)
		size, err := trash.Open(trashDir).Size()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  trash size:    %s\n", humanize.Bytes(uint64(size)))
		return nil
	},
}

func orUnset(s string) string {
	return orDefault(s, "(not set)")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
