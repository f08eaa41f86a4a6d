// Package models defines the request/response types and error codes shared
// across the HTTP surface and the persistence layer.
package models

import (
	"time"

	"github.com/hyperjump/karte/internal/esdsl"
)

// ErrorCode classifies an API error per the error taxonomy: syntax and
// validation errors are always caller-recoverable, access_denied is never
// retried, config errors are rejected before any I/O, and upstream failures
// propagate verbatim from the search engine.
type ErrorCode string

const (
	CodeSyntax       ErrorCode = "syntax"
	CodeValidation   ErrorCode = "validation"
	CodeAccessDenied ErrorCode = "access_denied"
	CodeConfig       ErrorCode = "config"
	CodeUpstream     ErrorCode = "upstream"
	CodeNotFound     ErrorCode = "not_found"
	CodeInternal     ErrorCode = "internal"
)

// APIError is the structured error wire format.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TranslateRequest carries a JQL string for the translation and validation
// paths.
type TranslateRequest struct {
	JQL string `json:"jql"`
}

// CompiledQuery is the translation-path response: the query DSL document,
// the resolved indexes, and the optional sort clause.
type CompiledQuery struct {
	Document esdsl.Query        `json:"document"`
	Indexes  []string           `json:"indexes"`
	Sort     []esdsl.SortClause `json:"sort,omitempty"`
}

// RunRequest executes a JQL query with pagination.
type RunRequest struct {
	JQL  string `json:"jql"`
	From int    `json:"from,omitempty"`
	Size int    `json:"size,omitempty"`
}

// RunResponse is a page of raw records from an executed query.
type RunResponse struct {
	Total   int64            `json:"total"`
	Records []map[string]any `json:"records"`
	From    int              `json:"from"`
	Size    int              `json:"size"`
}

// SavedQuery is a persisted, pre-compiled query definition. TargetIndex is
// the first resolved index and is what a savedQuery join source replays
// against; Indexes keeps the full resolution for the run path.
type SavedQuery struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	JQL         string      `json:"jql"`
	Document    esdsl.Query `json:"document"`
	Indexes     []string    `json:"indexes"`
	TargetIndex string      `json:"target_index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Dashboard is a named collection of datapoints.
type Dashboard struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Datapoint ties a saved query to a dashboard with display configuration.
// Config is opaque to the server; the frontend owns its shape.
type Datapoint struct {
	ID           string         `json:"id"`
	DashboardID  string         `json:"dashboard_id"`
	SavedQueryID string         `json:"saved_query_id"`
	Title        string         `json:"title"`
	ChartType    string         `json:"chart_type,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
