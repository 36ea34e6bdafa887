package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskmill/internal/config"
	"taskmill/internal/extract"
	"taskmill/internal/logging"
	"taskmill/internal/queue"
	"taskmill/internal/services"
	"taskmill/internal/stage"
	"taskmill/internal/textextract"
)

// AIExtractor is the slice of the OpenAI client the extraction stage needs.
type AIExtractor interface {
	ExtractTasks(ctx context.Context, text string, ref time.Time) ([]extract.Candidate, error)
	HealthCheck(ctx context.Context) error
}

// Extractor is the single workflow stage: it pulls text from the source
// file, dispatches to the heuristic engine or the AI extractor per the
// active parser mode, and records the resulting candidates on the document.
type Extractor struct {
	registry *textextract.Registry
	engine   *extract.Engine
	ai       AIExtractor
	mode     func() config.Mode
	logger   *slog.Logger
	now      func() time.Time
}

// NewExtractor wires the extraction stage. ai may be nil when no API key is
// configured; mode reports the parser mode at dispatch time so runtime mode
// changes take effect without rebuilding the stage.
func NewExtractor(registry *textextract.Registry, engine *extract.Engine, ai AIExtractor, mode func() config.Mode, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		registry: registry,
		engine:   engine,
		ai:       ai,
		mode:     mode,
		logger:   logger,
		now:      time.Now,
	}
}

// Prepare validates the document before extraction starts.
func (e *Extractor) Prepare(ctx context.Context, doc *queue.Document) error {
	path := strings.TrimSpace(doc.SourcePath)
	if path == "" {
		return services.Wrap(services.ErrValidation, "extract", "prepare", "document has no source path", nil)
	}
	if !e.registry.CanExtract(path) {
		return services.Wrap(services.ErrUnsupportedFormat, "extract", "prepare", "no extractor registered for "+path, nil)
	}
	if doc.ContentType == "" {
		doc.ContentType = textextract.ContentTypeFor(path)
	}
	return nil
}

// Execute extracts tasks from the document source and stores the result.
func (e *Extractor) Execute(ctx context.Context, doc *queue.Document) error {
	result, err := e.registry.ExtractFile(ctx, doc.SourcePath)
	if err != nil {
		return err
	}

	logger := logging.WithContext(ctx, e.logger)
	ref := e.now().UTC()

	if result.HasRows() {
		// Structured rows skip parser dispatch entirely; column mapping
		// already did the classification work.
		if err := e.record(doc, queue.ParserTable, extract.FromTableRows(result.Rows, ref)); err != nil {
			return err
		}
		logger.Debug("extracted tasks from table rows",
			logging.Int("rows", len(result.Rows)),
			logging.Int("candidates", doc.CandidateCount),
		)
		return nil
	}

	mode := e.mode()
	switch mode {
	case config.ModeSimpleOnly:
		if err := e.record(doc, queue.ParserSimple, e.engine.Extract(result.Text, ref)); err != nil {
			return err
		}
	case config.ModeOpenAIOnly:
		if e.ai == nil {
			return services.Wrap(services.ErrConfiguration, "extract", "openai", "parser mode requires an OpenAI API key", nil)
		}
		tasks, err := e.ai.ExtractTasks(ctx, result.Text, ref)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "extract", "openai", "AI extraction failed", err)
		}
		if err := e.record(doc, queue.ParserOpenAI, tasks); err != nil {
			return err
		}
	default:
		if err := e.extractWithFallback(ctx, doc, result.Text, ref, logger); err != nil {
			return err
		}
	}

	logger.Debug("extraction produced candidates",
		logging.String(logging.FieldParser, string(doc.ParserUsed)),
		logging.Int("candidates", doc.CandidateCount),
	)
	return nil
}

// extractWithFallback implements openai-first dispatch: AI output wins when
// the request succeeds, any failure other than cancellation degrades to the
// heuristic engine.
func (e *Extractor) extractWithFallback(ctx context.Context, doc *queue.Document, text string, ref time.Time, logger *slog.Logger) error {
	if e.ai != nil {
		tasks, err := e.ai.ExtractTasks(ctx, text, ref)
		if err == nil {
			return e.record(doc, queue.ParserOpenAI, tasks)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("AI extraction failed; falling back to heuristic engine", logging.Error(err))
	}
	return e.record(doc, queue.ParserSimple, e.engine.Extract(text, ref))
}

func (e *Extractor) record(doc *queue.Document, parser queue.Parser, tasks []extract.Candidate) error {
	if err := doc.SetResult(parser, tasks); err != nil {
		return services.Wrap(services.ErrValidation, "extract", "encode result", "failed to encode candidates", err)
	}
	return nil
}

// HealthCheck reports stage readiness. Only openai-only mode treats an
// unreachable AI endpoint as a hard failure; openai-first degrades to the
// heuristic engine and stays ready.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extractor"
	mode := e.mode()
	if mode == config.ModeSimpleOnly {
		return stage.Healthy(name)
	}
	if e.ai == nil {
		if mode == config.ModeOpenAIOnly {
			return stage.Unhealthy(name, "parser mode requires an OpenAI API key")
		}
		return stage.Health{Name: name, Ready: true, Detail: "no OpenAI API key; heuristic engine only"}
	}
	if err := e.ai.HealthCheck(ctx); err != nil {
		if mode == config.ModeOpenAIOnly {
			return stage.Unhealthy(name, err.Error())
		}
		return stage.Health{Name: name, Ready: true, Detail: "OpenAI unreachable; heuristic fallback active: " + err.Error()}
	}
	return stage.Healthy(name)
}
