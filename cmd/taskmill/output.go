package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"taskmill/internal/extract"
	"taskmill/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusLabel(status queue.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case queue.StatusPending:
		return ansiBlue + label + ansiReset
	case queue.StatusProcessing:
		return ansiYellow + label + ansiReset
	case queue.StatusCompleted:
		return ansiGreen + label + ansiReset
	case queue.StatusFailed:
		return ansiRed + label + ansiReset
	default:
		return label
	}
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func buildDocumentRows(docs []*queue.Document, colorize bool) [][]string {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		parser := string(doc.ParserUsed)
		if parser == "" {
			parser = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(doc.ID, 10),
			truncate(doc.Title, 40),
			statusLabel(doc.Status, colorize),
			parser,
			strconv.Itoa(doc.CandidateCount),
			formatTimestamp(doc.CreatedAt),
		})
	}
	return rows
}

func buildTaskRows(tasks []extract.Candidate) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		due := "-"
		if task.HasDueDate() {
			due = task.DueDate.Format("2006-01-02")
		}
		assignee := task.Assignee
		if strings.TrimSpace(assignee) == "" {
			assignee = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(task.LineNumber),
			truncate(task.Title, 60),
			string(task.Priority),
			due,
			fmt.Sprintf("%d%%", task.Confidence),
			assignee,
		})
	}
	return rows
}

func printTasks(out io.Writer, tasks []extract.Candidate) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks extracted")
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Line", "Title", "Priority", "Due", "Confidence", "Assignee"},
		buildTaskRows(tasks),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
