// Package esdsl models the subset of the Elasticsearch query DSL that Karte
// emits: boolean must/must_not queries over term, terms, match, range and
// exists clauses, plus sort descriptors. Documents are plain JSON shapes so
// they can be persisted with saved queries and replayed verbatim.
package esdsl

// Query is a single query DSL document. Exactly one of the clause types is
// populated; the zero value marshals to an empty object and must not be sent
// to the engine.
type Query map[string]any

// SortClause is one entry of the request-level sort array, mapping a field
// name to its order.
type SortClause map[string]SortOrder

// SortOrder holds the direction for one sort field.
type SortOrder struct {
	Order string `json:"order"`
}

// MatchAll returns the match-everything document.
func MatchAll() Query {
	return Query{"match_all": map[string]any{}}
}

// Term returns an exact-match clause on field.
func Term(field string, value any) Query {
	return Query{"term": map[string]any{field: value}}
}

// Terms returns a multi-value exact-match clause on field.
func Terms(field string, values []string) Query {
	return Query{"terms": map[string]any{field: values}}
}

// Match returns an analyzed full-text match clause on field.
func Match(field string, value any) Query {
	return Query{"match": map[string]any{field: value}}
}

// RangeGT returns an open-ended range clause: field > value.
func RangeGT(field string, value any) Query {
	return Query{"range": map[string]any{field: map[string]any{"gt": value}}}
}

// RangeLT returns an open-ended range clause: field < value.
func RangeLT(field string, value any) Query {
	return Query{"range": map[string]any{field: map[string]any{"lt": value}}}
}

// Exists returns a field-exists clause.
func Exists(field string) Query {
	return Query{"exists": map[string]any{"field": field}}
}

// Bool assembles a boolean query from must and must_not clause lists. Empty
// lists are omitted; callers are responsible for not producing a bool clause
// with both lists empty.
func Bool(must, mustNot []Query) Query {
	b := map[string]any{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return Query{"bool": b}
}

// Sort returns a sort descriptor for field in the given direction.
func Sort(field, direction string) SortClause {
	return SortClause{field: SortOrder{Order: direction}}
}

// IsMatchAll reports whether q is the match-everything document.
func (q Query) IsMatchAll() bool {
	_, ok := q["match_all"]
	return ok
}
