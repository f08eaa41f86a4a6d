// Package jql implements the JQL filter/sort/limit language: a lexer and
// parser producing a ParsedQuery, a compiler translating it into the
// Elasticsearch query DSL, and a speculative validator.
//
// This package is a translation layer only. It MUST NOT:
//   - Execute queries or touch the network
//   - Resolve index permissions (the resolver is injected where needed)
//   - Handle pagination or result processing
package jql

// Operator identifies a filter condition's comparison semantics.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsNull      Operator = "is_null"
	OpIsNotNull   Operator = "is_not_null"
)

// FilterCondition is one field comparison. Value carries the operand for
// single-value operators; Values carries the list for OpIn/OpNotIn.
// Invariant: OpIn/OpNotIn require a non-empty Values list to compile to a
// clause; the validator reports an empty list as an error.
type FilterCondition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// OrderBy is one sort specification entry.
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// ParsedQuery is the intermediate representation produced by Parse. It is
// created fresh per parse call and treated as immutable by the compiler and
// resolver.
//
// The surface grammar only emits OpEquals, OpNotEquals, OpContains and OpIn;
// the remaining operators are reachable by constructing a ParsedQuery
// programmatically and are fully supported by Compile.
type ParsedQuery struct {
	Projects   []string          `json:"projects,omitempty"`
	Conditions []FilterCondition `json:"conditions,omitempty"`
	OrderBy    []OrderBy         `json:"order_by,omitempty"`
	Limit      int               `json:"limit,omitempty"` // 0 means unset
}
