package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bianoble/dirsync/internal/inventory"
	"github.com/bianoble/dirsync/internal/trash"
)

var (
	restoreTrashDir string
	restoreForce    bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore HASH TARGET",
	Short: "Restore a file from the trash",
	Long: `Writes the trashed content with the given hash to TARGET. The content is
verified against its hash before TARGET is created. The hash is printed in
sync logs whenever a file is trashed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := inventory.ParseHash(args[0])
		if err != nil {
			return err
		}
		target := args[1]

		dir := restoreTrashDir
		if dir == "" {
			cfg, _, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			dir = cfg.TrashDir
		}
		if dir == "" {
			dir = trash.DefaultDir()
		}

		if !restoreForce {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
		}

		if err := trash.Open(dir).Restore(hash, target); err != nil {
			return err
		}

		info("Restored %s to %s", hash.Short(), target)
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreTrashDir, "trash-dir", "", "trash directory (default: config trash_dir, then the user data dir)")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "overwrite an existing target")
	rootCmd.AddCommand(restoreCmd)
}
