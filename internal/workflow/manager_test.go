package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"taskmill/internal/config"
	"taskmill/internal/extract"
	"taskmill/internal/logging"
	"taskmill/internal/queue"
	"taskmill/internal/stage"
	"taskmill/internal/testsupport"
	"taskmill/internal/textextract"
	"taskmill/internal/workflow"
)

type fakeAI struct {
	tasks []extract.Candidate
	err   error
	calls int
}

func (f *fakeAI) ExtractTasks(ctx context.Context, text string, ref time.Time) ([]extract.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks, nil
}

func (f *fakeAI) HealthCheck(ctx context.Context) error {
	return f.err
}

func newTestManager(t *testing.T, cfg *config.Config, store *queue.Store, ai workflow.AIExtractor) *workflow.Manager {
	t.Helper()
	var m *workflow.Manager
	handler := workflow.NewExtractor(
		textextract.NewRegistry(logging.NewNop()),
		extract.NewEngine(),
		ai,
		func() config.Mode { return m.ParserMode() },
		logging.NewNop(),
	)
	m = workflow.NewManagerWithHandler(cfg, store, handler, logging.NewNop())
	return m
}

func writeMeetingNotes(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.InboxDir, "meeting-notes.txt")
	testsupport.WriteText(t, path, strings.Join([]string{
		"Meeting notes for the launch.",
		"TODO: Review the budget proposal",
		"TODO: Send the launch announcement by Friday [HIGH]",
	}, "\n"))
	return path
}

func TestProcessSimpleOnlyCompletesDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusCompleted)
	}
	if processed.ParserUsed != queue.ParserSimple {
		t.Fatalf("parser = %s, want %s", processed.ParserUsed, queue.ParserSimple)
	}
	tasks, err := processed.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[1].Priority != extract.PriorityHigh {
		t.Fatalf("tasks[1].Priority = %s, want %s", tasks[1].Priority, extract.PriorityHigh)
	}

	persisted, err := store.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusCompleted {
		t.Fatalf("persisted status = %s, want %s", persisted.Status, queue.StatusCompleted)
	}
	if persisted.CandidateCount != 2 {
		t.Fatalf("persisted candidate count = %d, want 2", persisted.CandidateCount)
	}
	if persisted.RequestID == "" {
		t.Fatal("expected a request id on the processed document")
	}
}

func TestNewManagerWiresOpenAIClient(t *testing.T) {
	payload := `{"tasks":[{"title":"Review the budget proposal","priority":"high","confidence":95,"line_number":2}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":` + strconv.Quote(payload) + `}}]}`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithParserMode(config.ModeOpenAIOnly),
		testsupport.WithOpenAI(server.URL, "test-key"),
	)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.ParserUsed != queue.ParserOpenAI {
		t.Fatalf("parser = %s, want %s", processed.ParserUsed, queue.ParserOpenAI)
	}
	tasks, err := processed.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Review the budget proposal" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestProcessSendsCompletionNotification(t *testing.T) {
	notified := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case notified <- r.Header.Get("Title"):
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	if _, err := mgr.Process(context.Background(), doc.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	select {
	case title := <-notified:
		if title != "Taskmill - Extraction Complete" {
			t.Fatalf("unexpected notification title %q", title)
		}
	default:
		t.Fatal("expected a completion notification")
	}
}

func TestProcessOpenAIFirstPrefersAIResult(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIFirst))
	store := testsupport.MustOpenStore(t, cfg)
	ai := &fakeAI{tasks: []extract.Candidate{{
		Title:      "File the quarterly report",
		Priority:   extract.PriorityHigh,
		Confidence: 90,
		LineNumber: 1,
	}}}
	mgr := newTestManager(t, cfg, store, ai)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.ParserUsed != queue.ParserOpenAI {
		t.Fatalf("parser = %s, want %s", processed.ParserUsed, queue.ParserOpenAI)
	}
	if ai.calls != 1 {
		t.Fatalf("AI calls = %d, want 1", ai.calls)
	}
	tasks, err := processed.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "File the quarterly report" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestProcessOpenAIFirstFallsBackOnAIError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIFirst))
	store := testsupport.MustOpenStore(t, cfg)
	ai := &fakeAI{err: errors.New("openai request: http 500")}
	mgr := newTestManager(t, cfg, store, ai)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusCompleted)
	}
	if processed.ParserUsed != queue.ParserSimple {
		t.Fatalf("parser = %s, want fallback to %s", processed.ParserUsed, queue.ParserSimple)
	}
	if ai.calls != 1 {
		t.Fatalf("AI calls = %d, want 1", ai.calls)
	}
}

func TestProcessOpenAIOnlySurfacesAIFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIOnly))
	store := testsupport.MustOpenStore(t, cfg)
	ai := &fakeAI{err: errors.New("openai request: http 500")}
	mgr := newTestManager(t, cfg, store, ai)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if processed.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusFailed)
	}
	if !strings.Contains(processed.ErrorMessage, "AI extraction failed") {
		t.Fatalf("error message = %q", processed.ErrorMessage)
	}

	persisted, err := store.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusFailed {
		t.Fatalf("persisted status = %s, want %s", persisted.Status, queue.StatusFailed)
	}
}

func TestProcessOpenAIOnlyWithoutClientFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIOnly))
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if processed.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusFailed)
	}
	if !strings.Contains(processed.ErrorMessage, "API key") {
		t.Fatalf("error message = %q", processed.ErrorMessage)
	}
}

func TestProcessTableDocumentBypassesParserMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIOnly))
	store := testsupport.MustOpenStore(t, cfg)
	ai := &fakeAI{err: errors.New("should not be called")}
	mgr := newTestManager(t, cfg, store, ai)

	path := filepath.Join(cfg.Paths.InboxDir, "tasks.csv")
	testsupport.WriteText(t, path, strings.Join([]string{
		"Task,Priority,Due Date,Assignee",
		"Ship the release,urgent,2026-09-15,dana",
		"Write the changelog,low,,",
	}, "\n"))
	doc := testsupport.NewDocument(t, store, path, "text/csv")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.ParserUsed != queue.ParserTable {
		t.Fatalf("parser = %s, want %s", processed.ParserUsed, queue.ParserTable)
	}
	if ai.calls != 0 {
		t.Fatalf("AI calls = %d, want 0 for structured rows", ai.calls)
	}
	tasks, err := processed.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].Assignee != "dana" || !tasks[0].HasDueDate() {
		t.Fatalf("unexpected first task: %+v", tasks[0])
	}
	if !processed.HasDueDates {
		t.Fatal("expected HasDueDates to be set")
	}
}

func TestProcessFailsForMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	doc := testsupport.NewDocument(t, store, filepath.Join(cfg.Paths.InboxDir, "missing.txt"), "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
	if processed.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusFailed)
	}
}

func TestProcessUnknownDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	if _, err := mgr.Process(context.Background(), 4242); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("err = %v, want queue.ErrNotFound", err)
	}
}

func TestProcessRejectsCompletedDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	if _, err := mgr.Process(context.Background(), doc.ID); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if _, err := mgr.Process(context.Background(), doc.ID); err == nil {
		t.Fatal("expected error for completed document")
	} else if !strings.Contains(err.Error(), "reprocess") {
		t.Fatalf("err = %v, want reprocess hint", err)
	}
}

func TestReprocessThenProcessSucceeds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	if _, err := mgr.Process(context.Background(), doc.ID); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if _, err := store.Reprocess(context.Background(), doc.ID); err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if processed.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", processed.Status, queue.StatusCompleted)
	}
}

type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingHandler) Prepare(ctx context.Context, doc *queue.Document) error { return nil }

func (b *blockingHandler) Execute(ctx context.Context, doc *queue.Document) error {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return doc.SetResult(queue.ParserSimple, nil)
}

func (b *blockingHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("blocking")
}

func TestProcessGuardsConcurrentRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	mgr := workflow.NewManagerWithHandler(cfg, store, handler, logging.NewNop())

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	errCh := make(chan error, 1)
	go func() {
		_, err := mgr.Process(context.Background(), doc.ID)
		errCh <- err
	}()

	select {
	case <-handler.started:
	case <-time.After(5 * time.Second):
		t.Fatal("extraction did not start")
	}

	if _, err := mgr.Process(context.Background(), doc.ID); !errors.Is(err, workflow.ErrAlreadyProcessing) {
		t.Fatalf("concurrent Process err = %v, want ErrAlreadyProcessing", err)
	}

	close(handler.release)
	if err := <-errCh; err != nil {
		t.Fatalf("blocked Process: %v", err)
	}

	persisted, err := store.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want %s", persisted.Status, queue.StatusCompleted)
	}
}

func TestStartProcessesPendingDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		persisted, err := store.GetByID(context.Background(), doc.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if persisted.Status == queue.StatusCompleted {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("document never completed")
}

func TestSetModeChangesDispatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeSimpleOnly))
	store := testsupport.MustOpenStore(t, cfg)
	ai := &fakeAI{tasks: []extract.Candidate{{Title: "Review the audit", Priority: extract.PriorityMedium, Confidence: 85, LineNumber: 1}}}
	mgr := newTestManager(t, cfg, store, ai)

	if mgr.ParserMode() != config.ModeSimpleOnly {
		t.Fatalf("mode = %s, want %s", mgr.ParserMode(), config.ModeSimpleOnly)
	}
	mgr.SetMode(config.ModeOpenAIFirst)

	path := writeMeetingNotes(t, cfg)
	doc := testsupport.NewDocument(t, store, path, "text/plain")

	processed, err := mgr.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.ParserUsed != queue.ParserOpenAI {
		t.Fatalf("parser = %s, want %s after mode switch", processed.ParserUsed, queue.ParserOpenAI)
	}
}

func TestManagerHealthReportsStageAndDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithParserMode(config.ModeOpenAIOnly))
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newTestManager(t, cfg, store, nil)

	health := mgr.Health(context.Background())
	if health.Ready() {
		t.Fatal("expected not ready: openai-only without an API key")
	}
	if health.Stage.Ready {
		t.Fatalf("stage ready = true, detail %q", health.Stage.Detail)
	}
	if health.Mode != config.ModeOpenAIOnly {
		t.Fatalf("mode = %s, want %s", health.Mode, config.ModeOpenAIOnly)
	}

	mgr.SetMode(config.ModeSimpleOnly)
	health = mgr.Health(context.Background())
	if !health.Ready() {
		t.Fatalf("expected ready in simple-only mode: %+v", health)
	}
}
