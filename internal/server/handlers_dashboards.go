package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/models"
	"github.com/hyperjump/karte/internal/storage"
)

type dashboardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "name is required")
		return
	}
	d := &models.Dashboard{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.storage.CreateDashboard(r.Context(), d); err != nil {
		s.logger.Error("create dashboard failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.storage.GetDashboard(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, models.CodeNotFound, "dashboard not found")
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "name is required")
		return
	}
	d := &models.Dashboard{ID: id, Name: req.Name, Description: req.Description}
	if err := s.storage.UpdateDashboard(r.Context(), d); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, models.CodeNotFound, "dashboard not found")
			return
		}
		s.logger.Error("update dashboard failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete dashboard", zap.String("id", id))
	if err := s.storage.DeleteDashboard(r.Context(), id); err != nil {
		s.logger.Error("delete dashboard failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	offset, limit := listParams(r)
	dashboards, err := s.storage.ListDashboards(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list dashboards failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	if dashboards == nil {
		dashboards = []*models.Dashboard{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"dashboards": dashboards})
}

type datapointRequest struct {
	DashboardID  string         `json:"dashboard_id"`
	SavedQueryID string         `json:"saved_query_id"`
	Title        string         `json:"title"`
	ChartType    string         `json:"chart_type,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
}

func (s *Server) handleCreateDatapoint(w http.ResponseWriter, r *http.Request) {
	var req datapointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "title is required")
		return
	}

	// The referenced dashboard and saved query must exist.
	if _, err := s.storage.GetDashboard(r.Context(), req.DashboardID); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "dashboard not found")
		return
	}
	if _, err := s.storage.GetSavedQuery(r.Context(), req.SavedQueryID); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "saved query not found")
		return
	}

	dp := &models.Datapoint{
		ID:           uuid.NewString(),
		DashboardID:  req.DashboardID,
		SavedQueryID: req.SavedQueryID,
		Title:        req.Title,
		ChartType:    req.ChartType,
		Config:       req.Config,
	}
	if err := s.storage.CreateDatapoint(r.Context(), dp); err != nil {
		s.logger.Error("create datapoint failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, dp)
}

func (s *Server) handleGetDatapoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dp, err := s.storage.GetDatapoint(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, models.CodeNotFound, "datapoint not found")
		return
	}
	s.respondJSON(w, http.StatusOK, dp)
}

func (s *Server) handleDeleteDatapoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteDatapoint(r.Context(), id); err != nil {
		s.logger.Error("delete datapoint failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListDatapoints(w http.ResponseWriter, r *http.Request) {
	dashboardID := chi.URLParam(r, "id")
	datapoints, err := s.storage.ListDatapointsByDashboard(r.Context(), dashboardID)
	if err != nil {
		s.logger.Error("list datapoints failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.CodeInternal, err.Error())
		return
	}
	if datapoints == nil {
		datapoints = []*models.Datapoint{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"datapoints": datapoints})
}
