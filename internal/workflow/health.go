package workflow

import (
	"context"

	"taskmill/internal/config"
	"taskmill/internal/queue"
	"taskmill/internal/stage"
)

// Health aggregates daemon readiness: queue database state, extraction
// stage readiness, and the active parser mode.
type Health struct {
	Database queue.DatabaseHealth
	Stage    stage.Health
	Mode     config.Mode
}

// Ready reports whether the daemon can process documents.
func (h Health) Ready() bool {
	return h.Database.Error == "" && h.Database.IntegrityCheck && h.Stage.Ready
}

// Health runs the database and stage health checks.
func (m *Manager) Health(ctx context.Context) Health {
	db, err := m.store.CheckHealth(ctx)
	if err != nil && db.Error == "" {
		db.Error = err.Error()
	}
	return Health{
		Database: db,
		Stage:    m.handler.HealthCheck(ctx),
		Mode:     m.ParserMode(),
	}
}
