// Package health aggregates store and embedding provider checks.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store works but the embedding provider does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	Collections int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	store     CollectionLister
	embedding EmbeddingChecker
}

// New creates a Service. db and embedding can be nil.
func New(db DBPinger, st CollectionLister, embedding EmbeddingChecker) *Service {
	return &Service{db: db, store: st, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	storeDown := false

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
			storeDown = true
		} else {
			checks["database"] = CheckOK
		}
	}

	collections := 0
	if infos, err := s.store.ListCollections(ctx); err != nil {
		checks["collections"] = CheckError
		storeDown = true
	} else {
		checks["collections"] = CheckOK
		collections = len(infos)
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case storeDown:
		status = Unhealthy
	case checks["embedding"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Collections: collections}
}
