package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taskmill/internal/config"
	"taskmill/internal/fileutil"
	"taskmill/internal/logging"
	"taskmill/internal/queue"
	"taskmill/internal/textextract"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var copyToInbox bool

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add documents to the extraction queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := textextract.NewRegistry(logging.NewNop())
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					absPath, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve path: %w", err)
					}

					info, err := os.Stat(absPath)
					if err != nil {
						if errors.Is(err, os.ErrNotExist) {
							return fmt.Errorf("file does not exist: %s", absPath)
						}
						return fmt.Errorf("inspect file: %w", err)
					}
					if info.IsDir() {
						return fmt.Errorf("%s is a directory", absPath)
					}
					if !registry.CanExtract(absPath) {
						return fmt.Errorf("unsupported file extension %q and content is not plain text (supported: %s)",
							strings.ToLower(filepath.Ext(absPath)),
							strings.Join(registry.SupportedExtensions(), ", "))
					}

					if copyToInbox {
						staged, err := fileutil.StageDocument(absPath, cfg.Paths.InboxDir)
						if err != nil {
							return fmt.Errorf("copy into inbox: %w", err)
						}
						absPath = staged
					}

					doc, err := store.NewDocument(cmd.Context(), absPath, textextract.ContentTypeFor(absPath))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued document #%d (%s)\n", doc.ID, filepath.Base(absPath))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyToInbox, "copy", false, "Copy files into the inbox directory before queueing")
	return cmd
}
