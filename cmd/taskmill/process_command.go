package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"taskmill/internal/config"
	"taskmill/internal/logging"
	"taskmill/internal/queue"
	"taskmill/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "process <documentID>",
		Short: "Run extraction on a queued document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				mgr := workflow.NewManager(cfg, store, logging.NewNop())
				if modeFlag != "" {
					mode, ok := config.ParseMode(modeFlag)
					if !ok {
						return fmt.Errorf("invalid parser mode %q (valid: %s)", modeFlag, modeList())
					}
					mgr.SetMode(mode)
				}

				doc, err := mgr.Process(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, queue.ErrNotFound) {
						return fmt.Errorf("document %d not found", id)
					}
					if errors.Is(err, workflow.ErrAlreadyProcessing) {
						return fmt.Errorf("document %d is already being processed", id)
					}
					if doc != nil && doc.Status == queue.StatusFailed {
						return fmt.Errorf("extraction failed: %s", doc.ErrorMessage)
					}
					return err
				}

				if ctx.JSONMode() {
					tasks, err := doc.Tasks()
					if err != nil {
						return err
					}
					return writeJSON(cmd, map[string]any{
						"id":     doc.ID,
						"status": string(doc.Status),
						"parser": string(doc.ParserUsed),
						"tasks":  tasks,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Document #%d extracted with the %s parser (%d tasks)\n",
					doc.ID, doc.ParserUsed, doc.CandidateCount)
				tasks, err := doc.Tasks()
				if err != nil {
					return err
				}
				printTasks(out, tasks)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Override the parser mode for this run")
	return cmd
}

func modeList() string {
	modes := config.AllModes()
	list := ""
	for i, mode := range modes {
		if i > 0 {
			list += ", "
		}
		list += string(mode)
	}
	return list
}
