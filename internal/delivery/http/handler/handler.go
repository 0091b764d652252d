package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/delivery/http/request"
	"github.com/user/site-auditor/internal/delivery/http/response"
	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
	"github.com/user/site-auditor/internal/usecase"
)

// Pinger is a backing service the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	ctrl         usecase.Controller
	dependencies map[string]Pinger
	logger       *zap.Logger
}

func NewHandler(ctrl usecase.Controller, dependencies map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		ctrl:         ctrl,
		dependencies: dependencies,
		logger:       logger,
	}
}

func (h *Handler) HandleRunPending(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.RunPending(r.Context()); err != nil {
		h.writeRunError(w, "pending", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.RunResponse{Status: response.StatusPendingStarted})
}

func (h *Handler) HandleRunAll(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.RunAll(r.Context()); err != nil {
		h.writeRunError(w, "all", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.RunResponse{Status: response.StatusGlobalStarted})
}

func (h *Handler) HandleRunSite(w http.ResponseWriter, r *http.Request) {
	id, err := request.SiteID(r)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ctrl.RunSite(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrSiteNotFound):
		h.writeJSONError(w, "Site not found", http.StatusNotFound)
		return
	case errors.Is(err, usecase.ErrEmptyURL):
		h.writeJSONError(w, "Site has no domain or url to analyze", http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.writeRunError(w, "single", err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.SiteRunResponse{
		Status: response.StatusSingleCompleted,
		Result: result,
	})
}

func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	reports, err := h.ctrl.Results(r.Context())
	if err != nil {
		h.logger.Error("failed to list results", zap.Error(err))
		h.writeJSONError(w, "Could not retrieve results", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*entity.SiteReport{}
	}
	h.writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	// Buffered so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.ctrl.Export(r.Context(), &buf); err != nil {
		h.logger.Error("failed to export results", zap.Error(err))
		h.writeJSONError(w, "Could not export results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", h.ctrl.ExportContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.ctrl.ExportFileName()+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export download interrupted", zap.Error(err))
	}
}

func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := request.EventLimit(r)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	events, err := h.ctrl.Events(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read run events", zap.Error(err))
		h.writeJSONError(w, "Could not retrieve events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []entity.RunEvent{}
	}
	h.writeJSON(w, http.StatusOK, response.EventsResponse{Events: events})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	healthy := true
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			healthy = false
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !healthy {
		healthStatus["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, healthStatus)
}

func (h *Handler) writeRunError(w http.ResponseWriter, mode string, err error) {
	if errors.Is(err, usecase.ErrRunInProgress) {
		h.writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	h.logger.Error("failed to start analysis", zap.String("mode", mode), zap.Error(err))
	h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
