package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/jql"
	"github.com/hyperjump/karte/internal/join"
	"github.com/hyperjump/karte/internal/models"
	"github.com/hyperjump/karte/internal/search"
	"github.com/hyperjump/karte/internal/storage"
)

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.JQL) == "" {
		s.respondError(w, http.StatusBadRequest, models.CodeSyntax, "query is empty")
		return
	}
	s.logger.Debug("translate request", zap.String("jql", req.JQL))

	parsed := jql.Parse(req.JQL)
	indexes := s.resolver.Resolve(parsed.Projects)
	if indexes == nil {
		indexes = []string{}
	}
	s.respondJSON(w, http.StatusOK, models.CompiledQuery{
		Document: jql.Compile(parsed),
		Indexes:  indexes,
		Sort:     jql.CompileSort(parsed),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, jql.Validate(req.JQL, s.resolver))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.JQL) == "" {
		s.respondError(w, http.StatusBadRequest, models.CodeSyntax, "query is empty")
		return
	}

	parsed := jql.Parse(req.JQL)
	indexes := s.resolver.Resolve(parsed.Projects)
	if len(indexes) == 0 {
		// Legal, just empty: nothing resolved inside the allow-list.
		s.respondJSON(w, http.StatusOK, models.RunResponse{Records: []map[string]any{}, From: req.From})
		return
	}

	size := req.Size
	if size <= 0 {
		size = s.config.Query.DefaultSize
	}
	if size > s.config.Query.MaxSize {
		size = s.config.Query.MaxSize
	}
	if parsed.Limit > 0 && size > parsed.Limit {
		size = parsed.Limit
	}

	s.logger.Debug("run request",
		zap.String("jql", req.JQL),
		zap.Strings("indexes", indexes),
		zap.Int("from", req.From),
		zap.Int("size", size))

	res, err := s.client.Search(r.Context(), indexes, jql.Compile(parsed), search.Options{
		From: req.From,
		Size: size,
		Sort: jql.CompileSort(parsed),
	})
	if err != nil {
		s.logger.Error("query execution failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, models.CodeUpstream, err.Error())
		return
	}

	records := make([]map[string]any, 0, len(res.Hits))
	for _, h := range res.Hits {
		records = append(records, h.Source)
	}
	s.respondJSON(w, http.StatusOK, models.RunResponse{
		Total:   res.Total,
		Records: records,
		From:    req.From,
		Size:    len(records),
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var spec join.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid request body")
		return
	}

	if err := s.hydrateSource(r, &spec.Left); err != nil {
		s.respondJoinError(w, err)
		return
	}
	if err := s.hydrateSource(r, &spec.Right); err != nil {
		s.respondJoinError(w, err)
		return
	}

	if spec.Limit <= 0 || spec.Limit > s.config.Query.JoinFetchLimit {
		spec.Limit = s.config.Query.JoinFetchLimit
	}

	s.logger.Debug("join request",
		zap.String("join_type", string(spec.JoinType)),
		zap.String("left", spec.Left.Label()),
		zap.String("right", spec.Right.Label()))

	resp, err := s.joins.Run(r.Context(), &spec)
	if err != nil {
		s.respondJoinError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// hydrateSource fills a savedQuery source's compiled query and target index
// from the saved-query store. On the wire the source's Name carries the store
// ID; after loading it is replaced by the query's display name for labeling.
func (s *Server) hydrateSource(r *http.Request, src *join.Source) error {
	if src.Type != join.SourceSavedQuery || (src.Query != nil && src.TargetIndex != "") {
		return nil
	}
	q, err := s.storage.GetSavedQuery(r.Context(), src.Name)
	if err != nil {
		return err
	}
	src.Name = q.Name
	src.Query = q.Document
	src.TargetIndex = q.TargetIndex
	return nil
}

// respondJoinError maps join and storage errors onto the error taxonomy.
func (s *Server) respondJoinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, join.ErrIndexNotAllowed):
		s.respondError(w, http.StatusForbidden, models.CodeAccessDenied, err.Error())
	case errors.Is(err, join.ErrUnsupportedJoinType),
		errors.Is(err, join.ErrMissingJoinField),
		errors.Is(err, join.ErrIncompleteSource):
		s.respondError(w, http.StatusBadRequest, models.CodeConfig, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, models.CodeNotFound, err.Error())
	default:
		s.logger.Error("join failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, models.CodeUpstream, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	s.respondJSON(w, status, models.APIError{Code: code, Message: message})
}
