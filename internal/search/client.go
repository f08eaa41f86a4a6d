// Package search provides the search execution client: the single gateway
// through which compiled queries reach the Elasticsearch cluster.
package search

import (
	"context"

	"github.com/hyperjump/karte/internal/esdsl"
)

// Hit is one raw record returned by the engine.
type Hit struct {
	Index  string         `json:"index"`
	ID     string         `json:"id"`
	Source map[string]any `json:"source"`
}

// Result is the raw outcome of one search call.
type Result struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Options carry pagination, sorting and source filtering for one call.
type Options struct {
	From         int
	Size         int
	Sort         []esdsl.SortClause
	SourceFields []string
}

// Client executes a compiled query document against one or more indices.
// Implementations own connections, authentication and transport concerns;
// callers treat them as a black box returning raw records.
type Client interface {
	Search(ctx context.Context, indices []string, query esdsl.Query, opts Options) (*Result, error)
}
