package join

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/esdsl"
	"github.com/hyperjump/karte/internal/index"
	"github.com/hyperjump/karte/internal/search"
)

// defaultFetchLimit caps a side's fetch when the spec does not set one. The
// whole join is materialized in memory before pagination, so feasible dataset
// size is bounded by what fits in memory.
const defaultFetchLimit = 1000

// topKeyCount is how many join keys the distribution retains.
const topKeyCount = 10

// MatchKind classifies an emitted record.
type MatchKind string

const (
	Matched   MatchKind = "matched"
	LeftOnly  MatchKind = "left_only"
	RightOnly MatchKind = "right_only"
)

// JoinedRecord is one emitted output row. It is never mutated after creation
// and is discarded once the response is serialized.
type JoinedRecord struct {
	JoinKey      string         `json:"join_key"`
	Left         map[string]any `json:"left_record,omitempty"`
	Right        map[string]any `json:"right_record,omitempty"`
	Consolidated map[string]any `json:"consolidated_record"`
	MatchKind    MatchKind      `json:"match_kind"`
}

// Summary aggregates counters over one join request. Matched + LeftOnly +
// RightOnly always equals the number of emitted records.
type Summary struct {
	LeftTotal  int `json:"left_total"`
	RightTotal int `json:"right_total"`
	Matched    int `json:"matched"`
	LeftOnly   int `json:"left_only"`
	RightOnly  int `json:"right_only"`
}

// KeyCount is one entry of the join-key distribution.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Response is the paginated outcome of one join request.
type Response struct {
	Records []JoinedRecord `json:"records"`
	Summary Summary        `json:"summary"`
	TopKeys []KeyCount     `json:"top_keys"`
	Total   int            `json:"total"` // emitted records before pagination
	From    int            `json:"from"`
	Size    int            `json:"size"`
}

// Engine runs join requests. State is request-scoped; a single Engine is
// shared across concurrent requests without locking.
type Engine struct {
	client   search.Client
	resolver *index.Resolver
	logger   *zap.Logger
}

// NewEngine creates a join engine with the given dependencies.
func NewEngine(client search.Client, resolver *index.Resolver, logger *zap.Logger) *Engine {
	return &Engine{client: client, resolver: resolver, logger: logger}
}

// Run executes one join request: validate, fetch left, fetch right, build
// lookups, emit, consolidate, summarize, paginate. Fetches are sequential
// and fail-fast; a fetch error aborts the whole request with no partial
// results.
func (e *Engine) Run(ctx context.Context, spec *Spec) (*Response, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	left, err := e.fetch(ctx, spec.Left, spec.Limit)
	if err != nil {
		return nil, fmt.Errorf("left fetch: %w", err)
	}
	right, err := e.fetch(ctx, spec.Right, spec.Limit)
	if err != nil {
		return nil, fmt.Errorf("right fetch: %w", err)
	}

	leftLookup := buildLookup(left, spec.LeftField)
	rightLookup := buildLookup(right, spec.RightField)

	records := emit(spec, leftLookup, rightLookup)

	summary := Summary{LeftTotal: len(left), RightTotal: len(right)}
	for _, rec := range records {
		switch rec.MatchKind {
		case Matched:
			summary.Matched++
		case LeftOnly:
			summary.LeftOnly++
		case RightOnly:
			summary.RightOnly++
		}
	}

	e.logger.Debug("join complete",
		zap.String("join_type", string(spec.JoinType)),
		zap.Int("left_total", summary.LeftTotal),
		zap.Int("right_total", summary.RightTotal),
		zap.Int("emitted", len(records)))

	page := Paginate(records, spec.From, spec.Size)
	return &Response{
		Records: page,
		Summary: summary,
		TopKeys: topJoinKeys(records, topKeyCount),
		Total:   len(records),
		From:    spec.From,
		Size:    len(page),
	}, nil
}

// fetch retrieves one side's raw records. An index source fetches everything
// up to the cap; a savedQuery source replays its compiled query. The target
// index must pass the allow-list.
func (e *Engine) fetch(ctx context.Context, src Source, limit int) ([]map[string]any, error) {
	idx := src.Index()
	if e.resolver != nil && !e.resolver.IsAllowed(idx) {
		return nil, fmt.Errorf("%w: %q", ErrIndexNotAllowed, idx)
	}

	query := src.Query
	if src.Type == SourceIndex {
		query = esdsl.MatchAll()
	}
	size := limit
	if size <= 0 {
		size = defaultFetchLimit
	}

	res, err := e.client.Search(ctx, []string{idx}, query, search.Options{Size: size})
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0, len(res.Hits))
	for _, h := range res.Hits {
		records = append(records, h.Source)
	}
	return records, nil
}

// buildLookup groups records by the stringified join value at fieldPath.
// Records whose path resolves to null or is absent are excluded entirely:
// they can never match and are not emitted as unmatched either.
func buildLookup(records []map[string]any, fieldPath string) map[string][]map[string]any {
	lookup := make(map[string][]map[string]any)
	for _, rec := range records {
		v, ok := valueAtPath(rec, fieldPath)
		if !ok || v == nil {
			continue
		}
		key := stringifyKey(v)
		lookup[key] = append(lookup[key], rec)
	}
	return lookup
}

// valueAtPath walks a dotted field path through nested maps.
func valueAtPath(rec map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = rec
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringifyKey normalizes a join value to its lookup key. Integral floats
// (the usual JSON decoding of numeric IDs) print without a fraction so 42
// and 42.0 join.
func stringifyKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// emit produces the joined records for the spec's join type. Keys are walked
// in sorted order so output is deterministic.
func emit(spec *Spec, leftLookup, rightLookup map[string][]map[string]any) []JoinedRecord {
	leftLabel, rightLabel := sideLabels(spec.Left, spec.Right)

	var keys []string
	switch spec.JoinType {
	case Inner:
		for k := range leftLookup {
			if _, ok := rightLookup[k]; ok {
				keys = append(keys, k)
			}
		}
	case Left:
		for k := range leftLookup {
			keys = append(keys, k)
		}
	case Right:
		for k := range rightLookup {
			keys = append(keys, k)
		}
	case Full:
		seen := make(map[string]bool, len(leftLookup))
		for k := range leftLookup {
			seen[k] = true
			keys = append(keys, k)
		}
		for k := range rightLookup {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	var out []JoinedRecord
	for _, key := range keys {
		lefts, rights := leftLookup[key], rightLookup[key]

		switch {
		case len(lefts) > 0 && len(rights) > 0:
			// Full cross-product of the records sharing this key.
			pairs := 0
		cross:
			for _, l := range lefts {
				for _, r := range rights {
					if spec.MaxPairsPerKey > 0 && pairs >= spec.MaxPairsPerKey {
						break cross
					}
					out = append(out, JoinedRecord{
						JoinKey:      key,
						Left:         l,
						Right:        r,
						Consolidated: Consolidate(key, l, r, leftLabel, rightLabel),
						MatchKind:    Matched,
					})
					pairs++
				}
			}
		case len(lefts) > 0:
			for _, l := range lefts {
				out = append(out, JoinedRecord{
					JoinKey:      key,
					Left:         l,
					Consolidated: Consolidate(key, l, nil, leftLabel, rightLabel),
					MatchKind:    LeftOnly,
				})
			}
		default:
			for _, r := range rights {
				out = append(out, JoinedRecord{
					JoinKey:      key,
					Right:        r,
					Consolidated: Consolidate(key, nil, r, leftLabel, rightLabel),
					MatchKind:    RightOnly,
				})
			}
		}
	}
	return out
}

// Paginate slices the fully materialized result list. It never mutates
// records and never returns entries outside [from, from+size). A size of 0
// returns everything from the offset.
func Paginate(records []JoinedRecord, from, size int) []JoinedRecord {
	if from < 0 {
		from = 0
	}
	if from >= len(records) {
		return []JoinedRecord{}
	}
	end := len(records)
	if size > 0 && from+size < end {
		end = from + size
	}
	return records[from:end]
}

// topJoinKeys computes the n most frequent join keys across the emitted
// records, ordered by count descending then key ascending.
func topJoinKeys(records []JoinedRecord, n int) []KeyCount {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.JoinKey]++
	}

	all := make([]KeyCount, 0, len(counts))
	for k, c := range counts {
		all = append(all, KeyCount{Key: k, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Key < all[j].Key
	})

	if len(all) > n {
		all = all[:n]
	}
	return all
}
