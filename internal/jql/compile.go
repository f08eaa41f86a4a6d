package jql

import "github.com/hyperjump/karte/internal/esdsl"

// keywordSuffix selects the untokenized variant of a mapped text field for
// exact-match and sort clauses.
const keywordSuffix = ".keyword"

func keywordField(field string) string {
	return field + keywordSuffix
}

// Compile translates a ParsedQuery into an Elasticsearch query document.
// Positive clauses accumulate into must, negative clauses into must_not. A
// query with no conditions, or whose conditions all compile to nothing (an
// "in" with an empty value list), yields match_all rather than an invalid
// empty bool clause.
func Compile(q *ParsedQuery) esdsl.Query {
	if len(q.Conditions) == 0 {
		return esdsl.MatchAll()
	}

	var must, mustNot []esdsl.Query
	for _, c := range q.Conditions {
		switch c.Operator {
		case OpEquals:
			must = append(must, esdsl.Term(keywordField(c.Field), c.Value))
		case OpNotEquals:
			mustNot = append(mustNot, esdsl.Term(keywordField(c.Field), c.Value))
		case OpContains:
			must = append(must, esdsl.Match(c.Field, c.Value))
		case OpNotContains:
			mustNot = append(mustNot, esdsl.Match(c.Field, c.Value))
		case OpIn:
			if len(c.Values) > 0 {
				must = append(must, esdsl.Terms(keywordField(c.Field), c.Values))
			}
		case OpNotIn:
			if len(c.Values) > 0 {
				mustNot = append(mustNot, esdsl.Terms(keywordField(c.Field), c.Values))
			}
		case OpGreaterThan:
			must = append(must, esdsl.RangeGT(c.Field, c.Value))
		case OpLessThan:
			must = append(must, esdsl.RangeLT(c.Field, c.Value))
		case OpIsNull:
			mustNot = append(mustNot, esdsl.Exists(c.Field))
		case OpIsNotNull:
			must = append(must, esdsl.Exists(c.Field))
		}
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return esdsl.MatchAll()
	}
	return esdsl.Bool(must, mustNot)
}

// CompileSort translates the orderBy specification into sort descriptors on
// the exact-match field variants. Returns nil when the query has no orderBy,
// leaving the engine's default ordering in effect.
func CompileSort(q *ParsedQuery) []esdsl.SortClause {
	if len(q.OrderBy) == 0 {
		return nil
	}
	sort := make([]esdsl.SortClause, 0, len(q.OrderBy))
	for _, ob := range q.OrderBy {
		sort = append(sort, esdsl.Sort(keywordField(ob.Field), ob.Direction))
	}
	return sort
}
