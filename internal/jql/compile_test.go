package jql

import (
	"reflect"
	"testing"

	"github.com/hyperjump/karte/internal/esdsl"
)

func TestCompile_NoConditions(t *testing.T) {
	got := Compile(&ParsedQuery{})
	if !got.IsMatchAll() {
		t.Errorf("Compile(empty) = %v, want match_all", got)
	}
}

func TestCompile_OperatorClauses(t *testing.T) {
	tests := []struct {
		name        string
		cond        FilterCondition
		wantMust    []esdsl.Query
		wantMustNot []esdsl.Query
	}{
		{
			"equals uses keyword field",
			FilterCondition{Field: "status", Operator: OpEquals, Value: "active"},
			[]esdsl.Query{esdsl.Term("status.keyword", "active")},
			nil,
		},
		{
			"not_equals goes negative",
			FilterCondition{Field: "status", Operator: OpNotEquals, Value: "active"},
			nil,
			[]esdsl.Query{esdsl.Term("status.keyword", "active")},
		},
		{
			"contains uses raw field match",
			FilterCondition{Field: "notes", Operator: OpContains, Value: "flu"},
			[]esdsl.Query{esdsl.Match("notes", "flu")},
			nil,
		},
		{
			"not_contains goes negative",
			FilterCondition{Field: "notes", Operator: OpNotContains, Value: "flu"},
			nil,
			[]esdsl.Query{esdsl.Match("notes", "flu")},
		},
		{
			"in uses terms on keyword field",
			FilterCondition{Field: "ward", Operator: OpIn, Values: []string{"icu", "er"}},
			[]esdsl.Query{esdsl.Terms("ward.keyword", []string{"icu", "er"})},
			nil,
		},
		{
			"not_in goes negative",
			FilterCondition{Field: "ward", Operator: OpNotIn, Values: []string{"icu"}},
			nil,
			[]esdsl.Query{esdsl.Terms("ward.keyword", []string{"icu"})},
		},
		{
			"greater_than",
			FilterCondition{Field: "age", Operator: OpGreaterThan, Value: "65"},
			[]esdsl.Query{esdsl.RangeGT("age", "65")},
			nil,
		},
		{
			"less_than",
			FilterCondition{Field: "age", Operator: OpLessThan, Value: "18"},
			[]esdsl.Query{esdsl.RangeLT("age", "18")},
			nil,
		},
		{
			"is_null is negated exists",
			FilterCondition{Field: "discharge", Operator: OpIsNull},
			nil,
			[]esdsl.Query{esdsl.Exists("discharge")},
		},
		{
			"is_not_null is positive exists",
			FilterCondition{Field: "discharge", Operator: OpIsNotNull},
			[]esdsl.Query{esdsl.Exists("discharge")},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(&ParsedQuery{Conditions: []FilterCondition{tt.cond}})
			b, ok := got["bool"].(map[string]any)
			if !ok {
				t.Fatalf("Compile = %v, want bool document", got)
			}
			checkClauses(t, b, "must", tt.wantMust)
			checkClauses(t, b, "must_not", tt.wantMustNot)
		})
	}
}

func checkClauses(t *testing.T, boolClause map[string]any, branch string, want []esdsl.Query) {
	t.Helper()
	raw, present := boolClause[branch]
	if len(want) == 0 {
		if present {
			t.Errorf("%s = %v, want absent", branch, raw)
		}
		return
	}
	got, ok := raw.([]esdsl.Query)
	if !ok {
		t.Fatalf("%s has unexpected type %T", branch, raw)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %v, want %v", branch, got, want)
	}
}

// must/must_not lengths exactly mirror the positive/negative condition split.
func TestCompile_ClauseCounts(t *testing.T) {
	q := &ParsedQuery{Conditions: []FilterCondition{
		{Field: "a", Operator: OpEquals, Value: "1"},
		{Field: "b", Operator: OpContains, Value: "2"},
		{Field: "c", Operator: OpIsNotNull},
		{Field: "d", Operator: OpNotEquals, Value: "3"},
		{Field: "e", Operator: OpIsNull},
	}}
	got := Compile(q)
	b := got["bool"].(map[string]any)
	if n := len(b["must"].([]esdsl.Query)); n != 3 {
		t.Errorf("must count = %d, want 3", n)
	}
	if n := len(b["must_not"].([]esdsl.Query)); n != 2 {
		t.Errorf("must_not count = %d, want 2", n)
	}
}

// An "in" with an empty value list contributes nothing; when it is the only
// condition the compiler falls back to match_all.
func TestCompile_EmptyInFallsBackToMatchAll(t *testing.T) {
	q := &ParsedQuery{Conditions: []FilterCondition{
		{Field: "ward", Operator: OpIn},
	}}
	if got := Compile(q); !got.IsMatchAll() {
		t.Errorf("Compile = %v, want match_all", got)
	}
}

func TestCompileSort(t *testing.T) {
	tests := []struct {
		name string
		q    *ParsedQuery
		want []esdsl.SortClause
	}{
		{"no order by", &ParsedQuery{}, nil},
		{
			"single",
			&ParsedQuery{OrderBy: []OrderBy{{Field: "date", Direction: "desc"}}},
			[]esdsl.SortClause{esdsl.Sort("date.keyword", "desc")},
		},
		{
			"multiple",
			&ParsedQuery{OrderBy: []OrderBy{
				{Field: "date", Direction: "desc"},
				{Field: "name", Direction: "asc"},
			}},
			[]esdsl.SortClause{
				esdsl.Sort("date.keyword", "desc"),
				esdsl.Sort("name.keyword", "asc"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompileSort(tt.q)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CompileSort = %v, want %v", got, tt.want)
			}
		})
	}
}
