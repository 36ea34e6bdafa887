package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"taskmill/internal/extract"
	"taskmill/internal/logging"
	"taskmill/internal/textextract"
)

// newExtractCommand runs the heuristic engine on a file directly. Nothing is
// queued or persisted, which makes it handy for checking what the simple
// parser would find before adding a document.
func newExtractCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract tasks from a file without queueing it",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path %q: %w", args[0], err)
			}

			registry := textextract.NewRegistry(logging.NewNop())
			result, err := registry.ExtractFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			now := time.Now()
			var tasks []extract.Candidate
			if result.HasRows() {
				tasks = extract.FromTableRows(result.Rows, now)
			} else {
				tasks = extract.NewEngine().Extract(result.Text, now)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"path":  path,
					"tasks": tasks,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d tasks in %s\n", len(tasks), filepath.Base(path))
			printTasks(out, tasks)
			return nil
		},
	}
	return cmd
}
