package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable, so no turn can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the knowledge index has not been provisioned.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexInspector
	indexName string
	providers map[string]ProviderChecker
}

// New creates a Service. index can be nil; nil providers are skipped.
func New(db DBPinger, index IndexInspector, indexName string, providers map[string]ProviderChecker) *Service {
	named := make(map[string]ProviderChecker, len(providers))
	for name, p := range providers {
		if p != nil {
			named[name] = p
		}
	}
	return &Service{db: db, index: index, indexName: indexName, providers: named}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbUp := s.db.Ping(ctx) == nil
	if dbUp {
		checks["database"] = CheckOK
	} else {
		checks["database"] = CheckError
	}

	if s.index != nil && dbUp {
		exists, err := s.index.IndexExists(ctx, s.indexName)
		switch {
		case err != nil:
			checks["knowledge_index"] = CheckError
		case !exists:
			checks["knowledge_index"] = CheckMissing
		default:
			checks["knowledge_index"] = CheckOK
		}
	}

	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.providers[name].HealthCheck(ctx); err != nil {
			checks[name] = CheckError
		} else {
			checks[name] = CheckOK
		}
	}

	if !dbUp {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
