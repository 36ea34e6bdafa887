package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"taskmill/internal/config"
	"taskmill/internal/queue"
)

func newReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <documentID>",
		Short: "Return a finished document to pending for fresh extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				doc, err := store.Reprocess(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, queue.ErrNotFound) {
						return fmt.Errorf("document %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Document #%d reset to pending; run `taskmill process %d` or let the daemon pick it up\n",
					doc.ID, doc.ID)
				return nil
			})
		},
	}
}
