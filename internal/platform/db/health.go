package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthTimeout bounds the checks behind the database health endpoint.
const HealthTimeout = 5 * time.Second

// PoolStats is the pool summary reported by the health endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func GetPoolStats(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck describes what /health/db inspects. Stats and Pending are
// optional.
type HealthCheck struct {
	DB      Pinger
	Stats   func() PoolStats
	Pending func(ctx context.Context) (int, error)
}

// HealthReport is the body of the database health endpoint.
type HealthReport struct {
	Status            string     `json:"status"`
	Error             string     `json:"error,omitempty"`
	Pool              *PoolStats `json:"pool,omitempty"`
	PendingMigrations *int       `json:"pending_migrations,omitempty"`
}

// Run pings the database and, when it answers, counts unapplied
// migrations. A database with pending migrations is reported as
// "degraded" since the protein table may be missing.
func (h HealthCheck) Run(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	r := HealthReport{Status: "healthy"}
	if h.Stats != nil {
		s := h.Stats()
		r.Pool = &s
	}
	if err := h.DB.Ping(ctx); err != nil {
		r.Status = "unhealthy"
		r.Error = err.Error()
		return r
	}
	if h.Pending != nil {
		n, err := h.Pending(ctx)
		if err != nil {
			r.Status = "degraded"
			r.Error = err.Error()
			return r
		}
		r.PendingMigrations = &n
		if n > 0 {
			r.Status = "degraded"
		}
	}
	return r
}

// Handler serves the report: 503 when the database is unreachable, 200
// otherwise.
func (h HealthCheck) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		r := h.Run(c.Request().Context())
		if r.Status == "unhealthy" {
			return c.JSON(http.StatusServiceUnavailable, r)
		}
		return c.JSON(http.StatusOK, r)
	}
}
