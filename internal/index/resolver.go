// Package index resolves logical project names to concrete Elasticsearch
// index names, constrained by a configured allow-list.
package index

import "strings"

// wildcardMarker terminates an allow-list entry that matches by prefix.
const wildcardMarker = "*"

// Resolver maps project tokens to index names and filters them against the
// allow-list. It is immutable after construction and safe for concurrent use.
type Resolver struct {
	projects map[string]string // lower-cased project token -> index name
	allowed  []string
}

// NewResolver builds a resolver from a project->index map and an allow-list
// of index-name patterns (exact names or prefix patterns ending in "*").
func NewResolver(projectMap map[string]string, allowed []string) *Resolver {
	projects := make(map[string]string, len(projectMap))
	for name, idx := range projectMap {
		projects[strings.ToLower(name)] = idx
	}
	return &Resolver{projects: projects, allowed: allowed}
}

// Resolve maps each project token to its index name and filters the results
// against the allow-list. An empty projects slice resolves to the full
// allow-list (the query spans everything the caller is permitted to see).
// Tokens without a mapping are treated as index names directly. Names failing
// the allow-list filter are dropped silently; the validator is the only place
// that surfaces this as a warning.
func (r *Resolver) Resolve(projects []string) []string {
	if len(projects) == 0 {
		return append([]string(nil), r.allowed...)
	}

	var resolved []string
	for _, p := range projects {
		name := p
		if mapped, ok := r.projects[strings.ToLower(p)]; ok {
			name = mapped
		}
		if r.isAllowed(name) {
			resolved = append(resolved, name)
		}
	}
	return resolved
}

// IsAllowed reports whether a concrete index name passes the allow-list.
func (r *Resolver) IsAllowed(name string) bool {
	return r.isAllowed(name)
}

func (r *Resolver) isAllowed(name string) bool {
	for _, pattern := range r.allowed {
		if prefix, ok := strings.CutSuffix(pattern, wildcardMarker); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

// Allowed returns a copy of the configured allow-list.
func (r *Resolver) Allowed() []string {
	return append([]string(nil), r.allowed...)
}
