package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/esdsl"
)

// Elastic is the Elasticsearch-backed Client. A single instance is shared
// across requests; the underlying client is safe for concurrent use.
type Elastic struct {
	es     *elasticsearch.Client
	logger *zap.Logger
}

// NewElastic creates a client for the given cluster addresses. Credentials
// may be empty for unsecured clusters.
func NewElastic(addresses []string, username, password string, logger *zap.Logger) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Elastic{es: es, logger: logger}, nil
}

// Search executes query against indices and returns the raw hits.
func (c *Elastic) Search(ctx context.Context, indices []string, query esdsl.Query, opts Options) (*Result, error) {
	body := map[string]any{
		"query": query,
		"from":  opts.From,
		"size":  opts.Size,
	}
	if len(opts.Sort) > 0 {
		body["sort"] = opts.Sort
	}
	if len(opts.SourceFields) > 0 {
		body["_source"] = opts.SourceFields
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	c.logger.Debug("executing search",
		zap.Strings("indices", indices),
		zap.Int("from", opts.From),
		zap.Int("size", opts.Size))

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Index  string         `json:"_index"`
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &Result{
		Total: envelope.Hits.Total.Value,
		Hits:  make([]Hit, 0, len(envelope.Hits.Hits)),
	}
	for _, h := range envelope.Hits.Hits {
		result.Hits = append(result.Hits, Hit{Index: h.Index, ID: h.ID, Source: h.Source})
	}
	return result, nil
}
