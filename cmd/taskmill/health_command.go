package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"taskmill/internal/config"
	"taskmill/internal/deps"
	"taskmill/internal/queue"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check queue database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil && health.Error == "" {
					health.Error = err.Error()
				}

				binaries := deps.Check(deps.Default())

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"database":     health,
						"dependencies": binaries,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "documents table present: %s\n", yesNo(health.TableExists))
				if len(health.ColumnsPresent) > 0 {
					cols := append([]string(nil), health.ColumnsPresent...)
					sort.Strings(cols)
					fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
				}
				if len(health.MissingColumns) > 0 {
					missing := append([]string(nil), health.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Total documents: %d\n", health.TotalDocuments)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				for _, status := range binaries {
					if status.Available {
						fmt.Fprintf(out, "%s: available (%s)\n", status.Name, strings.Join(status.Formats, ", "))
						continue
					}
					fmt.Fprintf(out, "%s: %s\n", status.Name, status.Detail)
				}
				return nil
			})
		},
	}
}
