package textextract

import (
	"strings"

	"taskmill/internal/extract"
)

// columnMap records which cell index feeds each task attribute. -1 means the
// column is absent.
type columnMap struct {
	title    int
	priority int
	due      int
	assignee int
	notes    int
}

var columnAliases = map[string]func(*columnMap, int){
	"task":        func(m *columnMap, i int) { m.title = i },
	"title":       func(m *columnMap, i int) { m.title = i },
	"item":        func(m *columnMap, i int) { m.title = i },
	"action":      func(m *columnMap, i int) { m.title = i },
	"action item": func(m *columnMap, i int) { m.title = i },
	"description": func(m *columnMap, i int) { m.title = i },
	"priority":    func(m *columnMap, i int) { m.priority = i },
	"severity":    func(m *columnMap, i int) { m.priority = i },
	"due":         func(m *columnMap, i int) { m.due = i },
	"due date":    func(m *columnMap, i int) { m.due = i },
	"deadline":    func(m *columnMap, i int) { m.due = i },
	"date":        func(m *columnMap, i int) { m.due = i },
	"assignee":    func(m *columnMap, i int) { m.assignee = i },
	"owner":       func(m *columnMap, i int) { m.assignee = i },
	"assigned to": func(m *columnMap, i int) { m.assignee = i },
	"notes":       func(m *columnMap, i int) { m.notes = i },
	"comments":    func(m *columnMap, i int) { m.notes = i },
	"details":     func(m *columnMap, i int) { m.notes = i },
}

// mapColumns interprets a header row. It succeeds only when a title-bearing
// column is present; otherwise the sheet is treated as free text.
func mapColumns(header []string) (columnMap, bool) {
	m := columnMap{title: -1, priority: -1, due: -1, assignee: -1, notes: -1}
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if assign, ok := columnAliases[key]; ok {
			assign(&m, i)
		}
	}
	return m, m.title >= 0
}

func (m columnMap) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// rowsFromRecords converts raw cell records beneath a mapped header into
// table rows. Line numbers are 1-based positions in the original sheet, with
// the header at line 1.
func rowsFromRecords(m columnMap, records [][]string) []extract.TableRow {
	rows := make([]extract.TableRow, 0, len(records))
	for i, record := range records {
		title := m.cell(record, m.title)
		if title == "" {
			continue
		}
		rows = append(rows, extract.TableRow{
			Title:    title,
			Priority: m.cell(record, m.priority),
			DueDate:  m.cell(record, m.due),
			Assignee: m.cell(record, m.assignee),
			Notes:    m.cell(record, m.notes),
			Line:     i + 2,
		})
	}
	return rows
}

// recordsToText flattens tabular records into line-oriented text for sheets
// without a recognizable header.
func recordsToText(records [][]string) string {
	var b strings.Builder
	for _, record := range records {
		cells := make([]string, 0, len(record))
		for _, cell := range record {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				cells = append(cells, trimmed)
			}
		}
		if len(cells) == 0 {
			continue
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
