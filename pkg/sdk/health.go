package veccoll

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status      string            // "ok", "degraded", "error"
	Checks      map[string]string // component → "ok"/"error"
	Collections int
}

// Health checks the database, the collection listing and the default embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(c.ctx(ctx))
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:      string(report.Status),
		Checks:      checks,
		Collections: report.Collections,
	}
}
