package extract

import (
	"strings"
	"time"
)

// TableRow is one structured row pulled from a spreadsheet or CSV source.
// Field values are raw cell text; empty strings mean the column was absent.
type TableRow struct {
	Title    string
	Priority string
	DueDate  string
	Assignee string
	Notes    string
	Line     int
}

// FromTableRows converts structured rows into task candidates without running
// the line classifier: a row in a task column is already a strong signal, so
// every row with a usable title becomes a candidate at the table base score.
// Priority and due-date cells run through the same attribute extractors as
// free text; rows without a title are skipped. The result is finalized the
// same way as text extraction output.
func FromTableRows(rows []TableRow, ref time.Time) []Candidate {
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		title := clampTitle(row.Title)
		if title == "" {
			continue
		}
		cand := Candidate{
			Title:      title,
			Priority:   rowPriority(row),
			Confidence: Score(PatternTable, row.Title+" "+row.Priority),
			LineNumber: row.Line,
			SourceText: strings.TrimSpace(row.Title),
			Assignee:   strings.TrimSpace(row.Assignee),
		}
		if notes := strings.TrimSpace(row.Notes); notes != "" {
			if len(notes) > MaxDescriptionLength {
				notes = notes[:MaxDescriptionLength]
			}
			cand.Description = notes
		}
		if due, ok := rowDueDate(row, ref); ok {
			cand.DueDate = &due
		}
		candidates = append(candidates, cand)
	}
	return Finalize(candidates)
}

func rowPriority(row TableRow) Priority {
	if p, ok := ParsePriority(row.Priority); ok {
		return p
	}
	if cell := strings.TrimSpace(row.Priority); cell != "" {
		return ExtractPriority(cell)
	}
	return ExtractPriority(row.Title)
}

func rowDueDate(row TableRow, ref time.Time) (time.Time, bool) {
	cell := strings.TrimSpace(row.DueDate)
	if cell == "" {
		return ExtractDueDate(row.Title, ref)
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", "1/2/2006"} {
		if due, err := time.Parse(layout, cell); err == nil {
			return dateOnly(due), true
		}
	}
	return ExtractDueDate(cell, ref)
}
