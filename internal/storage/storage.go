// Package storage defines the persistence interface for saved queries,
// dashboards and datapoints.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/karte/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines saved-query, dashboard and datapoint persistence
// operations.
type Storage interface {
	// Saved query operations
	CreateSavedQuery(ctx context.Context, q *models.SavedQuery) error
	GetSavedQuery(ctx context.Context, id string) (*models.SavedQuery, error)
	UpdateSavedQuery(ctx context.Context, q *models.SavedQuery) error
	DeleteSavedQuery(ctx context.Context, id string) error
	ListSavedQueries(ctx context.Context, offset, limit int) ([]*models.SavedQuery, error)

	// Dashboard operations
	CreateDashboard(ctx context.Context, d *models.Dashboard) error
	GetDashboard(ctx context.Context, id string) (*models.Dashboard, error)
	UpdateDashboard(ctx context.Context, d *models.Dashboard) error
	DeleteDashboard(ctx context.Context, id string) error
	ListDashboards(ctx context.Context, offset, limit int) ([]*models.Dashboard, error)

	// Datapoint operations
	CreateDatapoint(ctx context.Context, dp *models.Datapoint) error
	GetDatapoint(ctx context.Context, id string) (*models.Datapoint, error)
	DeleteDatapoint(ctx context.Context, id string) error
	ListDatapointsByDashboard(ctx context.Context, dashboardID string) ([]*models.Datapoint, error)

	Close() error
}
