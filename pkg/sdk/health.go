package searchbridge

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
)

// HealthStatus is the aggregated status of the engine and record source.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

// Healthy reports whether every component answered.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks the engine and, for postgres, the record database.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	var err error
	if report.Status == healthuc.Unhealthy {
		err = ErrEngineUnavailable
	}
	c.obs.observe("health", "", start, err)
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
