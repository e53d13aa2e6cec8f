package collector

import (
	"context"

	"github.com/worldbrief/worldbrief/internal/model"
)

// Collector pulls raw articles from a single source. Implementations other
// than RSS (APIs, scrapers) can plug into the same orchestration.
type Collector interface {
	// Fetch collects articles from one source.
	Fetch(ctx context.Context, source model.Source) ([]model.RawArticle, error)

	// Probe reports whether the source is currently reachable, without
	// performing a full collection.
	Probe(ctx context.Context, source model.Source) bool
}
