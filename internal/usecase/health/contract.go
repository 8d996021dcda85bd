package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexInspector reports whether the knowledge base search index is provisioned.
type IndexInspector interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// ProviderChecker checks embedding provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
