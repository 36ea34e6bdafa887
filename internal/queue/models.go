package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskmill/internal/extract"
)

// Status represents the lifecycle of a queued document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Parser identifies which extraction path produced a document's results.
type Parser string

const (
	ParserSimple Parser = "simple"
	ParserOpenAI Parser = "openai"
	ParserTable  Parser = "table"
)

// Document represents a queued extraction job persisted in SQLite.
type Document struct {
	ID             int64
	Title          string
	SourcePath     string
	ContentType    string
	Status         Status
	ParserUsed     Parser
	ResultJSON     string
	CandidateCount int
	HasDueDates    bool
	ErrorMessage   string
	RequestID      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	LastHeartbeat  *time.Time
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalDocuments   int
	Error            string
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the document has finished processing.
func (d Document) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

// Tasks decodes the stored extraction results.
func (d Document) Tasks() ([]extract.Candidate, error) {
	if strings.TrimSpace(d.ResultJSON) == "" {
		return nil, nil
	}
	var tasks []extract.Candidate
	if err := json.Unmarshal([]byte(d.ResultJSON), &tasks); err != nil {
		return nil, fmt.Errorf("decode result json: %w", err)
	}
	return tasks, nil
}

// SetResult stores extraction results and derived summary columns, marking the
// document completed.
func (d *Document) SetResult(parser Parser, tasks []extract.Candidate) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode result json: %w", err)
	}
	now := time.Now().UTC()
	d.Status = StatusCompleted
	d.ParserUsed = parser
	d.ResultJSON = string(payload)
	d.CandidateCount = len(tasks)
	d.HasDueDates = false
	for _, task := range tasks {
		if task.HasDueDate() {
			d.HasDueDates = true
			break
		}
	}
	d.ErrorMessage = ""
	d.CompletedAt = &now
	d.LastHeartbeat = nil
	return nil
}

// SetFailed marks the document as failed with the given error message.
func (d *Document) SetFailed(message string) {
	now := time.Now().UTC()
	d.Status = StatusFailed
	d.ErrorMessage = message
	d.CompletedAt = &now
	d.LastHeartbeat = nil
}
