package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmill/internal/config"
	"taskmill/internal/extract"
	"taskmill/internal/logging"
	"taskmill/internal/notifications"
	"taskmill/internal/queue"
	"taskmill/internal/services"
	"taskmill/internal/services/openai"
	"taskmill/internal/stage"
	"taskmill/internal/textextract"
)

// ErrAlreadyProcessing signals that an extraction for the document is
// already in flight; the duplicate request is a no-op.
var ErrAlreadyProcessing = errors.New("document is already being processed")

// Manager coordinates document extraction: it claims pending documents,
// runs the extraction stage under a heartbeat, and persists results.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	handler      stage.Handler
	heartbeat    *HeartbeatMonitor
	notifier     notifications.Service
	pollInterval time.Duration

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	inflight map[int64]struct{}
	mode     config.Mode
	lastErr  error

	wg sync.WaitGroup
}

// NewManager builds the production manager: text extraction registry,
// heuristic engine, and an OpenAI client when an API key is configured.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := newManager(cfg, store, logger)

	var ai AIExtractor
	if strings.TrimSpace(cfg.OpenAI.APIKey) != "" {
		ai = openai.NewClient(openai.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
			MaxInputChars:  cfg.OpenAI.MaxInputChars,
		})
	}
	registry := textextract.NewRegistry(logger)
	m.handler = NewExtractor(registry, extract.NewEngine(), ai, m.ParserMode, logging.NewComponentLogger(logger, "extractor"))
	return m
}

// NewManagerWithHandler builds a manager around a caller-supplied stage
// handler. Tests use this to substitute extraction behavior.
func NewManagerWithHandler(cfg *config.Config, store *queue.Store, handler stage.Handler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := newManager(cfg, store, logger)
	m.handler = handler
	return m
}

func newManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	workflowLogger := logging.NewComponentLogger(logger, "workflow")
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	heartbeatInterval := time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	heartbeatTimeout := time.Duration(cfg.Workflow.HeartbeatTimeout) * time.Second

	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       workflowLogger,
		heartbeat:    NewHeartbeatMonitor(store, workflowLogger, heartbeatInterval, heartbeatTimeout),
		notifier:     notifications.NewService(cfg),
		pollInterval: pollInterval,
		inflight:     make(map[int64]struct{}),
		mode:         cfg.ParserMode(),
	}
}

// ParserMode reports the active parser mode.
func (m *Manager) ParserMode() config.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode switches the parser mode for subsequent extractions. In-flight
// extractions keep the mode they started with.
func (m *Manager) SetMode(mode config.Mode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}

// Process claims the document and runs extraction to completion. It returns
// ErrAlreadyProcessing when another extraction for the same document is in
// flight, and queue.ErrNotFound when the document does not exist. On
// extraction failure the returned document carries the failed status.
func (m *Manager) Process(ctx context.Context, id int64) (*queue.Document, error) {
	if !m.beginInflight(id) {
		return nil, ErrAlreadyProcessing
	}
	defer m.endInflight(id)

	claimed, err := m.store.MarkProcessing(ctx, id)
	if err != nil {
		m.setLastError(err)
		return nil, err
	}
	if !claimed {
		doc, err := m.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, queue.ErrNotFound
		}
		if doc.Status == queue.StatusProcessing {
			return nil, ErrAlreadyProcessing
		}
		return nil, fmt.Errorf("document %d is %s; reprocess it to run extraction again", id, doc.Status)
	}

	doc, err := m.store.GetByID(ctx, id)
	if err != nil {
		m.setLastError(err)
		return nil, err
	}
	if doc == nil {
		return nil, queue.ErrNotFound
	}
	return m.runExtraction(ctx, doc)
}

func (m *Manager) runExtraction(ctx context.Context, doc *queue.Document) (*queue.Document, error) {
	requestID := uuid.NewString()
	doc.RequestID = requestID
	stageCtx := services.WithDocumentID(ctx, doc.ID)
	stageCtx = services.WithStage(stageCtx, "extract")
	stageCtx = services.WithRequestID(stageCtx, requestID)
	logger := logging.WithContext(stageCtx, m.logger)

	start := time.Now()
	logger.Info("extraction started",
		logging.String("source_file", strings.TrimSpace(doc.SourcePath)),
	)

	if err := m.handler.Prepare(stageCtx, doc); err != nil {
		return m.failExtraction(stageCtx, logger, doc, err)
	}

	execErr := m.executeWithHeartbeat(stageCtx, doc)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			// Leave the claim in place; the stale reclaimer returns the
			// document to pending after restart.
			logger.Debug("extraction interrupted by shutdown")
			return doc, execErr
		}
		return m.failExtraction(stageCtx, logger, doc, execErr)
	}

	doc.LastHeartbeat = nil
	if err := m.store.Update(stageCtx, doc); err != nil {
		wrapped := fmt.Errorf("persist extraction result: %w", err)
		logger.Error("failed to persist extraction result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return doc, wrapped
	}
	logger.Info("extraction completed",
		logging.String(logging.FieldParser, string(doc.ParserUsed)),
		logging.Int("candidates", doc.CandidateCount),
		logging.Duration("duration", time.Since(start)),
	)
	if err := m.notifier.NotifyExtractionCompleted(stageCtx, doc.Title, doc.CandidateCount); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	return doc, nil
}

func (m *Manager) failExtraction(ctx context.Context, logger *slog.Logger, doc *queue.Document, cause error) (*queue.Document, error) {
	doc.SetFailed(cause.Error())
	if err := m.store.Update(ctx, doc); err != nil {
		logger.Error("failed to persist extraction failure", logging.Error(err))
	}
	logger.Error("extraction failed",
		logging.Error(cause),
		logging.Bool("retryable", services.Retryable(cause)),
	)
	if err := m.notifier.NotifyExtractionFailed(ctx, doc.Title, cause.Error()); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
	m.setLastError(cause)
	return doc, cause
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, doc *queue.Document) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, doc.ID)

	execErr := m.handler.Execute(ctx, doc)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) beginInflight(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[id]; busy {
		return false
	}
	m.inflight[id] = struct{}{}
	return true
}

func (m *Manager) endInflight(id int64) {
	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastError reports the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
