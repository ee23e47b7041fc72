package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/feed"
	"github.com/mellyssy/feedwatch/internal/lifecycle"
	"github.com/mellyssy/feedwatch/internal/state"

	"github.com/go-chi/chi/v5"
)

type submitSourceRequest struct {
	URL string `json:"url"`
}

type lifecycleResponse struct {
	Phase     string `json:"phase"`
	LastError string `json:"last_error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (s *Server) submitSource(w http.ResponseWriter, r *http.Request) {
	var req submitSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	err := s.machine.Submit(r.Context(), req.URL)
	if err != nil {
		s.logger.Info("submission rejected", zap.String("url", req.URL), zap.Error(err))
		status := http.StatusInternalServerError
		var verr *feed.ValidationError
		switch {
		case errors.Is(err, lifecycle.ErrSubmissionInFlight):
			status = http.StatusConflict
		case errors.As(err, &verr):
			status = http.StatusUnprocessableEntity
		case isUpstreamFailure(err):
			status = http.StatusBadGateway
		}
		writeJSON(w, status, lifecycleStatus(s.machine))
		return
	}
	writeJSON(w, http.StatusCreated, lifecycleStatus(s.machine))
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.store.Sources(),
	})
}

func (s *Server) listItems(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  s.store.Items(),
		"unread": s.store.UnreadCount(),
	})
}

func (s *Server) markItemRead(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if err := s.store.MarkRead(itemID); err != nil {
		if errors.Is(err, state.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"item_id": itemID, "read": "true"})
}

func (s *Server) getLifecycle(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, lifecycleStatus(s.machine))
}

func (s *Server) resetLifecycle(w http.ResponseWriter, _ *http.Request) {
	if err := s.machine.Reset(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lifecycleStatus(s.machine))
}

func lifecycleStatus(m *lifecycle.Machine) lifecycleResponse {
	resp := lifecycleResponse{Phase: string(m.Phase())}
	if err := m.LastError(); err != nil {
		resp.LastError = err.Error()
		var verr *feed.ValidationError
		if errors.As(err, &verr) {
			resp.ErrorKind = string(verr.Kind)
		}
	}
	return resp
}

func isUpstreamFailure(err error) bool {
	var perr *feed.ParseError
	var terr *feed.TransportError
	return errors.As(err, &perr) || errors.As(err, &terr)
}
