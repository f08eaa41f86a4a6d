package jql

import (
	"fmt"
	"strings"
)

// IndexResolver resolves project tokens to permitted index names. Implemented
// by index.Resolver; injected here so validation stays decoupled from the
// allow-list configuration.
type IndexResolver interface {
	Resolve(projects []string) []string
}

// Result is the outcome of speculative validation. Warnings are advisory and
// never affect IsValid.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate runs the parser and resolver over input without compiling or
// executing anything. Blank input and structurally unusable conditions are
// errors; resolving to zero indexes is only a warning, since a query may
// legally run against zero indexes and return no results.
func Validate(input string, resolver IndexResolver) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	if strings.TrimSpace(input) == "" {
		res.Errors = append(res.Errors, "query is empty")
		return res
	}

	q := Parse(input)

	for i, c := range q.Conditions {
		if strings.TrimSpace(c.Field) == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("condition %d is missing a field name", i+1))
		}
		if (c.Operator == OpIn || c.Operator == OpNotIn) && len(c.Values) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("condition %d: %q requires at least one value", i+1, c.Operator))
		}
	}

	if resolver != nil && len(resolver.Resolve(q.Projects)) == 0 {
		res.Warnings = append(res.Warnings, "no indexes resolved: the query will return no results")
	}

	res.IsValid = len(res.Errors) == 0
	return res
}
