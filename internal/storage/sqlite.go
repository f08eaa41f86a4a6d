// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/karte/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS saved_queries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		jql TEXT NOT NULL,
		document TEXT NOT NULL,
		indexes TEXT NOT NULL,
		target_index TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_queries_name ON saved_queries(name);

	CREATE TABLE IF NOT EXISTS dashboards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS datapoints (
		id TEXT PRIMARY KEY,
		dashboard_id TEXT NOT NULL,
		saved_query_id TEXT NOT NULL,
		title TEXT NOT NULL,
		chart_type TEXT,
		config TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (dashboard_id) REFERENCES dashboards(id) ON DELETE CASCADE,
		FOREIGN KEY (saved_query_id) REFERENCES saved_queries(id)
	);

	CREATE INDEX IF NOT EXISTS idx_datapoints_dashboard_id ON datapoints(dashboard_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSavedQuery inserts a saved query.
func (s *SQLiteStorage) CreateSavedQuery(ctx context.Context, q *models.SavedQuery) error {
	documentJSON, err := json.Marshal(q.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	indexesJSON, err := json.Marshal(q.Indexes)
	if err != nil {
		return fmt.Errorf("failed to marshal indexes: %w", err)
	}

	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_queries (id, name, jql, document, indexes, target_index, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Name, q.JQL, string(documentJSON), string(indexesJSON), q.TargetIndex, q.CreatedAt, q.UpdatedAt,
	)
	return err
}

// GetSavedQuery returns a saved query by ID.
func (s *SQLiteStorage) GetSavedQuery(ctx context.Context, id string) (*models.SavedQuery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, jql, document, indexes, target_index, created_at, updated_at
		 FROM saved_queries WHERE id = ?`, id,
	)
	q, err := scanSavedQuery(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("saved query %s: %w", id, ErrNotFound)
	}
	return q, err
}

// UpdateSavedQuery updates an existing saved query.
func (s *SQLiteStorage) UpdateSavedQuery(ctx context.Context, q *models.SavedQuery) error {
	documentJSON, err := json.Marshal(q.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	indexesJSON, err := json.Marshal(q.Indexes)
	if err != nil {
		return fmt.Errorf("failed to marshal indexes: %w", err)
	}

	q.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE saved_queries SET name = ?, jql = ?, document = ?, indexes = ?, target_index = ?, updated_at = ?
		 WHERE id = ?`,
		q.Name, q.JQL, string(documentJSON), string(indexesJSON), q.TargetIndex, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("saved query %s: %w", q.ID, ErrNotFound)
	}
	return nil
}

// DeleteSavedQuery removes a saved query by ID.
func (s *SQLiteStorage) DeleteSavedQuery(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	return err
}

// ListSavedQueries returns saved queries with offset and limit.
func (s *SQLiteStorage) ListSavedQueries(ctx context.Context, offset, limit int) ([]*models.SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, jql, document, indexes, target_index, created_at, updated_at
		 FROM saved_queries ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []*models.SavedQuery
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for the shared scan path.
type scanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(row scanner) (*models.SavedQuery, error) {
	var q models.SavedQuery
	var documentJSON, indexesJSON string
	err := row.Scan(&q.ID, &q.Name, &q.JQL, &documentJSON, &indexesJSON, &q.TargetIndex, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(documentJSON), &q.Document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if err := json.Unmarshal([]byte(indexesJSON), &q.Indexes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal indexes: %w", err)
	}
	return &q, nil
}

// CreateDashboard inserts a dashboard.
func (s *SQLiteStorage) CreateDashboard(ctx context.Context, d *models.Dashboard) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboards (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetDashboard returns a dashboard by ID.
func (s *SQLiteStorage) GetDashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	var d models.Dashboard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM dashboards WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDashboard updates an existing dashboard.
func (s *SQLiteStorage) UpdateDashboard(ctx context.Context, d *models.Dashboard) error {
	d.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE dashboards SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		d.Name, d.Description, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("dashboard %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

// DeleteDashboard removes a dashboard; its datapoints cascade.
func (s *SQLiteStorage) DeleteDashboard(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dashboards WHERE id = ?`, id)
	return err
}

// ListDashboards returns dashboards with offset and limit.
func (s *SQLiteStorage) ListDashboards(ctx context.Context, offset, limit int) ([]*models.Dashboard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM dashboards ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dashboards []*models.Dashboard
	for rows.Next() {
		var d models.Dashboard
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		dashboards = append(dashboards, &d)
	}
	return dashboards, rows.Err()
}

// CreateDatapoint inserts a datapoint.
func (s *SQLiteStorage) CreateDatapoint(ctx context.Context, dp *models.Datapoint) error {
	configJSON, err := json.Marshal(dp.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	now := time.Now()
	dp.CreatedAt = now
	dp.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datapoints (id, dashboard_id, saved_query_id, title, chart_type, config, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dp.ID, dp.DashboardID, dp.SavedQueryID, dp.Title, dp.ChartType, string(configJSON), dp.CreatedAt, dp.UpdatedAt,
	)
	return err
}

// GetDatapoint returns a datapoint by ID.
func (s *SQLiteStorage) GetDatapoint(ctx context.Context, id string) (*models.Datapoint, error) {
	var dp models.Datapoint
	var configJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dashboard_id, saved_query_id, title, chart_type, config, created_at, updated_at
		 FROM datapoints WHERE id = ?`, id,
	).Scan(&dp.ID, &dp.DashboardID, &dp.SavedQueryID, &dp.Title, &dp.ChartType, &configJSON, &dp.CreatedAt, &dp.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("datapoint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &dp.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	return &dp, nil
}

// DeleteDatapoint removes a datapoint by ID.
func (s *SQLiteStorage) DeleteDatapoint(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM datapoints WHERE id = ?`, id)
	return err
}

// ListDatapointsByDashboard returns the datapoints belonging to a dashboard.
func (s *SQLiteStorage) ListDatapointsByDashboard(ctx context.Context, dashboardID string) ([]*models.Datapoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dashboard_id, saved_query_id, title, chart_type, config, created_at, updated_at
		 FROM datapoints WHERE dashboard_id = ? ORDER BY created_at ASC`,
		dashboardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datapoints []*models.Datapoint
	for rows.Next() {
		var dp models.Datapoint
		var configJSON string
		if err := rows.Scan(&dp.ID, &dp.DashboardID, &dp.SavedQueryID, &dp.Title, &dp.ChartType, &configJSON, &dp.CreatedAt, &dp.UpdatedAt); err != nil {
			return nil, err
		}
		if configJSON != "" {
			_ = json.Unmarshal([]byte(configJSON), &dp.Config)
		}
		datapoints = append(datapoints, &dp)
	}
	return datapoints, rows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
