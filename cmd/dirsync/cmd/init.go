package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default dirsync.yaml scaffold.
const initTemplate = `# dirsync configuration
version: 1

# Tree to copy from. Never modified.
source: ./src

# Tree to make identical to the source.
dest: ./mirror

# What to do when an action fails: fail-fast (default) or continue.
# on_error: fail-fast

# Fail instead of working around a destination that changed since it was
# snapshotted.
# strict: false

# Only consider files matching these globs (doublestar syntax).
# include:
#   - "**/*.md"

# Ignore paths matching these patterns (gitignore syntax).
# exclude:
#   - "*.tmp"
#   - node_modules/

# Keep deleted and overwritten destination files here.
# trash_dir: /var/backups/dirsync-trash

# Write the source snapshot here after each successful sync.
# manifest: snapshot.yaml

# Read size in bytes used when hashing.
# block_size: 65536
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter dirsync.yaml configuration",
	Long: `Creates a dirsync.yaml file in the current directory with a commented
template describing every setting.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Edit the file to point at your source and destination")
		info("  2. Run 'dirsync plan' to preview the changes")
		info("  3. Run 'dirsync sync' to apply them")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
