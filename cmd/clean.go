package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/segdl/internal/output"
	"github.com/tanq16/segdl/internal/storage"
	"github.com/tanq16/segdl/internal/utils"
)

func newCleanCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "clean [OUTPUT_PATH]",
		Short: "Remove part files left behind by failed downloads",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.InitLogger(debug)
			target := "."
			prefix := ""
			if len(args) == 1 {
				target = args[0]
				prefix = utils.PartPrefix(target)
			}
			partsDir := utils.TempDirFor(target, dir)
			removed, err := cleanParts(cmd.Context(), partsDir, prefix)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning up temporary files: %v", err))
				return err
			}
			if removed == 0 {
				output.PrintInfo(fmt.Sprintf("%s No part files found in %s", output.StyleSymbols["info"], partsDir))
				return nil
			}
			output.PrintSuccess(fmt.Sprintf("%s Removed %d part file(s)", output.StyleSymbols["pass"], removed))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "temp-dir", "", "Directory holding part files")
	return cmd
}

// cleanParts deletes part files under dir whose names start with prefix.
// Files that do not look like chunk parts are left alone, since --temp-dir may
// point at a shared directory. A missing directory means there is nothing to
// clean.
func cleanParts(ctx context.Context, dir, prefix string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	store, err := storage.OpenDir(dir)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	log := utils.GetLogger("clean")
	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		chunkID, err := utils.ExtractChunkID(key)
		if err != nil {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			return removed, err
		}
		log.Debug().Str("key", key).Int("chunkId", chunkID).Msg("Removed part file")
		removed++
	}
	return removed, nil
}
