// Package join implements the in-memory multi-source join engine: it fetches
// two record sets through the search client, hash-joins them on configurable
// field paths, consolidates matched pairs into flat records, and reports
// summary statistics and a join-key distribution.
package join

import (
	"errors"
	"fmt"

	"github.com/hyperjump/karte/internal/esdsl"
)

// Configuration errors, rejected before any fetch occurs.
var (
	ErrUnsupportedJoinType = errors.New("unsupported join type")
	ErrMissingJoinField    = errors.New("missing join field")
	ErrIncompleteSource    = errors.New("incomplete join source")
	ErrIndexNotAllowed     = errors.New("index not allowed")
)

// SourceType identifies what a join source points at.
type SourceType string

const (
	// SourceIndex is a direct index reference fetched with match_all.
	SourceIndex SourceType = "index"
	// SourceSavedQuery replays a previously compiled query against its
	// resolved target index.
	SourceSavedQuery SourceType = "savedQuery"
)

// Source describes one side of a join. A savedQuery source must carry its
// compiled query document and resolved target index.
type Source struct {
	Type        SourceType  `json:"type"`
	Name        string      `json:"name"`
	TargetIndex string      `json:"target_index,omitempty"`
	Query       esdsl.Query `json:"query,omitempty"`
}

// Index returns the concrete index this source fetches from.
func (s Source) Index() string {
	if s.Type == SourceSavedQuery {
		return s.TargetIndex
	}
	return s.Name
}

// Label returns the source-qualifying name used to prefix consolidated
// fields.
func (s Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.TargetIndex
}

func (s Source) validate(side string) error {
	switch s.Type {
	case SourceIndex:
		if s.Name == "" {
			return fmt.Errorf("%w: %s index source has no name", ErrIncompleteSource, side)
		}
	case SourceSavedQuery:
		if s.Query == nil || s.TargetIndex == "" {
			return fmt.Errorf("%w: %s saved-query source needs a compiled query and target index", ErrIncompleteSource, side)
		}
	default:
		return fmt.Errorf("%w: %s source type %q", ErrIncompleteSource, side, s.Type)
	}
	return nil
}

// JoinType selects the join semantics.
type JoinType string

const (
	Inner JoinType = "inner"
	Left  JoinType = "left"
	Right JoinType = "right"
	Full  JoinType = "full"
)

// Spec is a complete join request: two sources, the join field pair, the
// join type, optional per-side fetch cap and pagination.
type Spec struct {
	Left       Source   `json:"left"`
	Right      Source   `json:"right"`
	LeftField  string   `json:"left_field"`
	RightField string   `json:"right_field"`
	JoinType   JoinType `json:"join_type"`

	// Limit caps how many records are fetched per side; 0 uses the engine
	// default.
	Limit int `json:"limit,omitempty"`

	// MaxPairsPerKey caps the cross-product emitted for a single join key;
	// 0 means unlimited.
	MaxPairsPerKey int `json:"max_pairs_per_key,omitempty"`

	From int `json:"from,omitempty"`
	Size int `json:"size,omitempty"`
}

// Validate checks the spec for configuration errors. It performs no I/O; a
// spec failing here is never fetched.
func (s *Spec) Validate() error {
	switch s.JoinType {
	case Inner, Left, Right, Full:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedJoinType, s.JoinType)
	}
	if s.LeftField == "" {
		return fmt.Errorf("%w: left field path is empty", ErrMissingJoinField)
	}
	if s.RightField == "" {
		return fmt.Errorf("%w: right field path is empty", ErrMissingJoinField)
	}
	if err := s.Left.validate("left"); err != nil {
		return err
	}
	return s.Right.validate("right")
}
