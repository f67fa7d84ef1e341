// Package ops implements the session-scoped sandbox operations shared by the
// CLI, the MCP server and the web UI.
package ops

import (
	"database/sql"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/config"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/metrics"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var tracer = otel.Tracer("github.com/jakeklinvexgloo/phosra-sub003/internal/ops")

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env carries the dependencies of every operation.
// DB and Metrics are optional: without a DB, manifests are not archived.
type Env struct {
	Config   *config.Config
	DB       *sql.DB
	Metrics  *metrics.Metrics
	Sessions *Sessions
}

// NewEnv builds an Env with a fresh session registry.
func NewEnv(cfg *config.Config, database *sql.DB, m *metrics.Metrics) *Env {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Env{
		Config:   cfg,
		DB:       database,
		Metrics:  m,
		Sessions: NewSessions(cfg, m),
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func requireID(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest(kind + " is required")
	}
	return id, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
