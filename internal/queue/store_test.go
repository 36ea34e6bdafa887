package queue_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskmill/internal/extract"
	"taskmill/internal/queue"
	"taskmill/internal/services"
	"taskmill/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc, err := store.NewDocument(ctx, "/inbox/meeting-notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if doc.ID == 0 {
		t.Fatal("expected document ID to be assigned")
	}
	if doc.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", doc.Status)
	}
	if doc.Title != "meeting-notes" {
		t.Fatalf("expected title inferred from path, got %q", doc.Title)
	}

	fetched, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/inbox/meeting-notes.txt" {
		t.Fatalf("unexpected fetched document: %#v", fetched)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	doc, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil for missing document, got %#v", doc)
	}
}

func TestMarkProcessingClaimsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "/inbox/a.txt", "text/plain")

	claimed, err := store.MarkProcessing(ctx, doc.ID)
	if err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	again, err := store.MarkProcessing(ctx, doc.ID)
	if err != nil {
		t.Fatalf("MarkProcessing second: %v", err)
	}
	if again {
		t.Fatal("expected second claim to fail while processing")
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Status != queue.StatusProcessing {
		t.Fatalf("expected processing status, got %s", updated.Status)
	}
	if updated.StartedAt == nil || updated.LastHeartbeat == nil {
		t.Fatal("expected started_at and last_heartbeat to be set")
	}
}

func TestSetResultRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "/inbox/tasks.txt", "text/plain")

	due := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	tasks := []extract.Candidate{
		{Title: "Review budget", Priority: extract.PriorityHigh, Confidence: 90, LineNumber: 1},
		{Title: "Ship release", Priority: extract.PriorityUrgent, DueDate: &due, Confidence: 95, LineNumber: 2},
	}
	if err := doc.SetResult(queue.ParserSimple, tasks); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", fetched.Status)
	}
	if fetched.ParserUsed != queue.ParserSimple {
		t.Fatalf("expected parser simple, got %s", fetched.ParserUsed)
	}
	if fetched.CandidateCount != 2 {
		t.Fatalf("expected candidate count 2, got %d", fetched.CandidateCount)
	}
	if !fetched.HasDueDates {
		t.Fatal("expected has_due_dates set")
	}
	if fetched.CompletedAt == nil {
		t.Fatal("expected completed_at set")
	}

	decoded, err := fetched.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 decoded tasks, got %d", len(decoded))
	}
	if decoded[1].Title != "Ship release" || decoded[1].DueDate == nil || !decoded[1].DueDate.Equal(due) {
		t.Fatalf("unexpected decoded task: %#v", decoded[1])
	}
}

func TestReprocessClearsResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(cfg.Paths.InboxDir, "done.txt")
	testsupport.WriteText(t, path, "TODO: Old task\n")
	doc := testsupport.NewDocument(t, store, path, "text/plain")
	if err := doc.SetResult(queue.ParserOpenAI, []extract.Candidate{{Title: "Old task", Confidence: 80, LineNumber: 1}}); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reset, err := store.Reprocess(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if reset.Status != queue.StatusPending {
		t.Fatalf("expected pending after reprocess, got %s", reset.Status)
	}
	if reset.ResultJSON != "" || reset.CandidateCount != 0 || reset.HasDueDates {
		t.Fatalf("expected results cleared, got %#v", reset)
	}
	if reset.ParserUsed != "" {
		t.Fatalf("expected parser cleared, got %s", reset.ParserUsed)
	}
}

func TestReprocessRejectsNonTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "/inbox/pending.txt", "text/plain")

	if _, err := store.Reprocess(ctx, doc.ID); err == nil {
		t.Fatal("expected error reprocessing a pending document")
	}

	if _, err := store.Reprocess(ctx, 12345); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing document, got %v", err)
	}
}

func TestReprocessMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(cfg.Paths.InboxDir, "gone.txt")
	testsupport.WriteText(t, path, "TODO: Something\n")
	doc := testsupport.NewDocument(t, store, path, "text/plain")
	doc.SetFailed("AI extraction failed")
	if err := store.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	_, err := store.Reprocess(ctx, doc.ID)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}

	// The document must remain failed; a vanished source is not requeued.
	current, getErr := store.GetByID(ctx, doc.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if current.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want %s", current.Status, queue.StatusFailed)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		doc := testsupport.NewDocument(t, store, fmt.Sprintf("/inbox/doc-%d.txt", i), "text/plain")
		if _, err := store.MarkProcessing(ctx, doc.ID); err != nil {
			t.Fatalf("MarkProcessing: %v", err)
		}
		ids = append(ids, doc.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 documents reset, got %d", count)
	}

	for _, id := range ids {
		updated, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending, got %s", updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatal("expected heartbeat cleared")
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	past := time.Now().Add(-2 * time.Hour).UTC()

	stale := testsupport.NewDocument(t, store, "/inbox/stale.txt", "text/plain")
	stale.Status = queue.StatusProcessing
	stale.LastHeartbeat = &past
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update stale: %v", err)
	}

	fresh := testsupport.NewDocument(t, store, "/inbox/fresh.txt", "text/plain")
	if _, err := store.MarkProcessing(ctx, fresh.ID); err != nil {
		t.Fatalf("MarkProcessing fresh: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 document reclaimed, got %d", count)
	}

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID stale: %v", err)
	}
	if reclaimed.Status != queue.StatusPending {
		t.Fatalf("expected stale document pending, got %s", reclaimed.Status)
	}
	if reclaimed.LastHeartbeat != nil {
		t.Fatal("expected stale heartbeat cleared")
	}

	untouched, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID fresh: %v", err)
	}
	if untouched.Status != queue.StatusProcessing {
		t.Fatalf("expected fresh document untouched, got %s", untouched.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewDocument(t, store, "/inbox/a.txt", "text/plain")
	b := testsupport.NewDocument(t, store, "/inbox/b.txt", "text/plain")
	for _, doc := range []*queue.Document{a, b} {
		doc.SetFailed("boom")
		if err := store.Update(ctx, doc); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 documents retried, got %d", updated)
	}

	doc, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != queue.StatusPending {
		t.Fatalf("expected document A pending, got %s", doc.Status)
	}
	if doc.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", doc.ErrorMessage)
	}

	// Fail B again and retry targeted selection.
	b.SetFailed("boom again")
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 document retried, got %d", updated)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewDocument(t, store, "/inbox/a.txt", "text/plain")
	b := testsupport.NewDocument(t, store, "/inbox/b.txt", "text/plain")
	if _, err := store.MarkProcessing(ctx, b.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	c := testsupport.NewDocument(t, store, "/inbox/c.txt", "text/plain")
	c.SetFailed("boom")
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusProcessing, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestNextForStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewDocument(t, store, "/inbox/first.txt", "text/plain")
	testsupport.NewDocument(t, store, "/inbox/second.txt", "text/plain")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending document, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("NextForStatuses failed filter: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty status, got %#v", none)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewDocument(t, store, "/inbox/p.txt", "text/plain")
	done := testsupport.NewDocument(t, store, "/inbox/d.txt", "text/plain")
	if err := done.SetResult(queue.ParserSimple, nil); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	failed := testsupport.NewDocument(t, store, "/inbox/f.txt", "text/plain")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Completed != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestCheckHealthReportsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("expected healthy database, got %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}

func TestRemoveAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "/inbox/x.txt", "text/plain")

	removed, err := store.Remove(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected document removed")
	}
	removed, err = store.Remove(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Remove repeat: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report no rows")
	}

	testsupport.NewDocument(t, store, "/inbox/y.txt", "text/plain")
	done := testsupport.NewDocument(t, store, "/inbox/z.txt", "text/plain")
	if err := done.SetResult(queue.ParserSimple, nil); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 completed cleared, got %d", cleared)
	}

	cleared, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 remaining cleared, got %d", cleared)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  queue.Status
		ok    bool
	}{
		{"pending", queue.StatusPending, true},
		{" Processing ", queue.StatusProcessing, true},
		{"COMPLETED", queue.StatusCompleted, true},
		{"failed", queue.StatusFailed, true},
		{"review", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := queue.ParseStatus(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
