// Package health aggregates component checks for the /health endpoint and the CLI.
package health

import (
	"context"

	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
)

// Status is the aggregated health.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"  // searchable, but something is off
	Unhealthy Status = "error"     // the store is unreachable
)

// CheckResult is one component outcome.
type CheckResult string

const (
	CheckOK      CheckResult = "ok"
	CheckError   CheckResult = "error"
	CheckMissing CheckResult = "missing"
)

// Component names used as Report.Checks keys.
const (
	ComponentStore      = "store"
	ComponentEmbedding  = "embedding"
	ComponentCollection = "collection"
)

// Report aggregates check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service runs the checks.
type Service struct {
	store      StorePinger
	embedding  EmbeddingChecker
	collection CollectionProber
	name       string
}

// New creates a Service. embedding and collection may be nil.
func New(store StorePinger, embedding EmbeddingChecker, collection CollectionProber, name string) *Service {
	return &Service{store: store, embedding: embedding, collection: collection, name: name}
}

// Check probes every configured component. A store failure is Unhealthy and skips the
// collection probe; any other failure, or a collection that is not loaded, is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	if err := s.store.Ping(ctx); err != nil {
		checks[ComponentStore] = CheckError
	} else {
		checks[ComponentStore] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[ComponentEmbedding] = CheckError
		} else {
			checks[ComponentEmbedding] = CheckOK
		}
	}

	if s.collection != nil && checks[ComponentStore] == CheckOK {
		checks[ComponentCollection] = s.probeCollection(ctx)
	}

	if checks[ComponentStore] != CheckOK {
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

func (s *Service) probeCollection(ctx context.Context) CheckResult {
	st, err := s.collection.State(ctx, s.name)
	switch {
	case err != nil:
		return CheckError
	case st == domcol.StateLoaded:
		return CheckOK
	default:
		return CheckMissing
	}
}
