package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"taskmill/internal/config"
	"taskmill/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <documentID>",
		Short: "Show a document and its extracted tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				doc, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if doc == nil {
					return fmt.Errorf("document %d not found", id)
				}

				tasks, err := doc.Tasks()
				if err != nil {
					return err
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"id":            doc.ID,
						"title":         doc.Title,
						"source_path":   doc.SourcePath,
						"content_type":  doc.ContentType,
						"status":        string(doc.Status),
						"parser":        string(doc.ParserUsed),
						"error_message": doc.ErrorMessage,
						"created_at":    doc.CreatedAt,
						"completed_at":  doc.CompletedAt,
						"tasks":         tasks,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Document #%d: %s\n", doc.ID, doc.Title)
				fmt.Fprintf(out, "Source: %s\n", doc.SourcePath)
				fmt.Fprintf(out, "Status: %s\n", statusLabel(doc.Status, stdoutIsTerminal()))
				if doc.ParserUsed != "" {
					fmt.Fprintf(out, "Parser: %s\n", doc.ParserUsed)
				}
				if doc.ErrorMessage != "" {
					fmt.Fprintf(out, "Error: %s\n", doc.ErrorMessage)
				}
				fmt.Fprintf(out, "Created: %s\n", formatTimestamp(doc.CreatedAt))
				if doc.CompletedAt != nil {
					fmt.Fprintf(out, "Completed: %s\n", formatTimestamp(*doc.CompletedAt))
				}
				printTasks(out, tasks)
				return nil
			})
		},
	}
}
