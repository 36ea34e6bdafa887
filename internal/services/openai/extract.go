package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskmill/internal/extract"
)

// taskExtractionPrompt instructs the model to emit the task schema the rest of
// the pipeline consumes. The reference date is appended at request time so
// relative phrases resolve consistently with the simple parser.
const taskExtractionPrompt = `You extract actionable tasks from documents.
Respond with JSON only, in this exact shape:
{"tasks":[{"title":"...","description":"...","priority":"low|medium|high|urgent","due_date":"YYYY-MM-DD or empty","assignee":"...","confidence":0-100,"line_number":1}]}
Rules:
- A task is a concrete action someone must take. Skip headers, greetings, and narrative prose.
- title: imperative summary, at most 200 characters.
- priority: infer from urgency cues; default to "medium" when unstated.
- due_date: resolve relative dates against the reference date; leave empty when no date is given.
- confidence: how certain you are that the line is a real task.
- line_number: the 1-based line in the supplied text the task came from; use 0 when unsure.
Return {"tasks":[]} when the document contains no tasks.`

type wireTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"due_date"`
	Assignee    string  `json:"assignee"`
	Confidence  float64 `json:"confidence"`
	LineNumber  int     `json:"line_number"`
}

type wireTaskList struct {
	Tasks []wireTask `json:"tasks"`
}

// ExtractTasks asks the model to pull tasks out of the supplied document text.
// The reference date anchors relative due-date phrases.
func (c *Client) ExtractTasks(ctx context.Context, text string, ref time.Time) ([]extract.Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if c.cfg.MaxInputChars > 0 && len(text) > c.cfg.MaxInputChars {
		text = text[:c.cfg.MaxInputChars]
	}

	userPrompt := fmt.Sprintf("Reference date: %s\n\nDocument:\n%s", ref.UTC().Format("2006-01-02"), text)
	content, err := c.CompleteJSON(ctx, taskExtractionPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed wireTaskList
	if err := DecodeModelJSON(content, &parsed); err != nil {
		// Some models return a bare array instead of the wrapper object.
		var bare []wireTask
		if bareErr := DecodeModelJSON(content, &bare); bareErr != nil {
			return nil, fmt.Errorf("openai extract: parse payload: %w", err)
		}
		parsed.Tasks = bare
	}

	candidates := make([]extract.Candidate, 0, len(parsed.Tasks))
	for i, task := range parsed.Tasks {
		title := strings.TrimSpace(task.Title)
		if title == "" {
			continue
		}
		candidate := extract.Candidate{
			Title:       title,
			Description: strings.TrimSpace(task.Description),
			Priority:    wirePriority(task.Priority),
			Confidence:  extract.ClampConfidence(int(task.Confidence)),
			LineNumber:  task.LineNumber,
			SourceText:  title,
			Assignee:    strings.TrimSpace(task.Assignee),
		}
		if candidate.LineNumber <= 0 {
			candidate.LineNumber = i + 1
		}
		if due := strings.TrimSpace(task.DueDate); due != "" {
			if parsedDue, err := time.ParseInLocation("2006-01-02", due, time.UTC); err == nil {
				candidate.DueDate = &parsedDue
			}
		}
		candidates = append(candidates, candidate)
	}

	return extract.Finalize(candidates), nil
}

func wirePriority(value string) extract.Priority {
	if priority, ok := extract.ParsePriority(value); ok {
		return priority
	}
	return extract.PriorityMedium
}
