package workflow

import (
	"context"
	"errors"
	"time"

	"taskmill/internal/logging"
	"taskmill/internal/queue"
)

// Start begins background processing of pending documents.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.handler == nil {
		m.mu.Unlock()
		return errors.New("workflow stage not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	if reset, err := m.store.ResetStuckProcessing(ctx); err != nil {
		m.logger.Warn("failed to reset stuck documents at startup", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset stuck documents to pending", logging.Int64("count", reset))
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleDocuments(ctx, m.logger); err != nil {
			m.logger.Warn("reclaim stale processing failed; stuck documents may remain", logging.Error(err))
		}

		doc, err := m.store.NextForStatuses(ctx, queue.StatusPending)
		if err != nil {
			m.handleNextDocumentError(ctx, err)
			continue
		}
		if doc == nil {
			m.waitForDocumentOrShutdown(ctx)
			continue
		}

		if _, err := m.Process(ctx, doc.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Claimed elsewhere or failed; either way the next poll
			// decides what to do.
		}
	}
}

func (m *Manager) handleNextDocumentError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to fetch next pending document", logging.Error(err))

	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = m.pollInterval
	}
	select {
	case <-ctx.Done():
	case <-time.After(retry):
	}
}

func (m *Manager) waitForDocumentOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
