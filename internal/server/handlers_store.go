package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/export"
	"github.com/hyperjump/karte/internal/jql"
	"github.com/hyperjump/karte/internal/models"
	"github.com/hyperjump/karte/internal/search"
	"github.com/hyperjump/karte/internal/storage"
)

type savedQueryRequest struct {
	Name string `json:"name"`
	JQL  string `json:"jql"`
}

// compileSavedQuery validates and compiles a JQL definition into a
// SavedQuery ready for persistence. Validation failures are returned as a
// joined message for the caller.
func (s *Server) compileSavedQuery(req savedQueryRequest) (*models.SavedQuery, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("name is required")
	}
	res := jql.Validate(req.JQL, s.resolver)
	if !res.IsValid {
		return nil, errors.New(strings.Join(res.Errors, "; "))
	}

	parsed := jql.Parse(req.JQL)
	indexes := s.resolver.Resolve(parsed.Projects)
	if indexes == nil {
		indexes = []string{}
	}
	q := &models.SavedQuery{
		Name:     req.Name,
		JQL:      req.JQL,
		Document: jql.Compile(parsed),
		Indexes:  indexes,
	}
	if len(indexes) > 0 {
		q.TargetIndex = indexes[0]
	}
	return q, nil
}

func (s *Server) handleCreateSavedQuery(w http.ResponseWriter, r *http.Request) {
	var req savedQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	q, err := s.compileSavedQuery(req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}
	q.ID = uuid.NewString()

	s.logger.Debug("create saved query", zap.String("id", q.ID), zap.String("name", q.Name))
	if err := s.storage.CreateSavedQuery(r.Context(), q); err != nil {
		s.logger.Error("create saved query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, q)
}

func (s *Server) handleGetSavedQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := s.storage.GetSavedQuery(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, models.CodeNotFound, "saved query not found")
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleUpdateSavedQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req savedQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	q, err := s.compileSavedQuery(req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}
	q.ID = id

	if err := s.storage.UpdateSavedQuery(r.Context(), q); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, models.CodeNotFound, "saved query not found")
			return
		}
		s.logger.Error("update saved query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleDeleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete saved query", zap.String("id", id))
	if err := s.storage.DeleteSavedQuery(r.Context(), id); err != nil {
		s.logger.Error("delete saved query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListSavedQueries(w http.ResponseWriter, r *http.Request) {
	offset, limit := listParams(r)
	queries, err := s.storage.ListSavedQueries(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list saved queries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	if queries == nil {
		queries = []*models.SavedQuery{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"queries": queries})
}

func (s *Server) handleExportSavedQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, fmt.Sprintf("unsupported format %q", format))
		return
	}

	q, err := s.storage.GetSavedQuery(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, models.CodeNotFound, "saved query not found")
		return
	}

	var records []map[string]any
	if len(q.Indexes) > 0 {
		res, err := s.client.Search(r.Context(), q.Indexes, q.Document, search.Options{
			Size: s.config.Export.MaxRows,
		})
		if err != nil {
			s.logger.Error("export query failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, models.CodeUpstream, err.Error())
			return
		}
		records = make([]map[string]any, 0, len(res.Hits))
		for _, h := range res.Hits {
			records = append(records, h.Source)
		}
	}

	filename := strings.ReplaceAll(q.Name, " ", "_") + "." + string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if format == export.FormatXLSX {
		err = export.WriteXLSX(w, records, q.Name)
	} else {
		err = export.WriteCSV(w, records)
	}
	if err != nil {
		// Headers are already sent; nothing better to do than log.
		s.logger.Error("export write failed", zap.Error(err))
	}
}

// listParams extracts offset/limit query parameters with defaults.
func listParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return offset, limit
}
