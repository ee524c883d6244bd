package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/delivery/http/response"
	"github.com/user/tariffs-service/internal/repository"
	"github.com/user/tariffs-service/internal/scheduler"
)

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 50
)

// TaskRunner is the part of the scheduler the API drives.
type TaskRunner interface {
	Trigger(name string) error
	Tasks() []scheduler.TaskInfo
}

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

type Handler struct {
	tasks     TaskRunner
	runStatus repository.RunStatusRepository
	checks    map[string]Pinger
	logger    *zap.Logger
}

// NewHandler creates the ops API handler. checks are reported by name on
// the health endpoint.
func NewHandler(tasks TaskRunner, runStatus repository.RunStatusRepository, checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		tasks:     tasks,
		runStatus: runStatus,
		checks:    checks,
		logger:    logger.Named("http"),
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Dependencies: make(map[string]string, len(h.checks))}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Dependencies[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "healthy"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runStatus.GetLastRun(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrRunStatusNotFound) {
			h.writeJSONError(w, "No pipeline run recorded yet", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get latest run", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewRunResponse(*run))
}

func (h *Handler) HandleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			h.writeJSONError(w, "limit must be an integer between 1 and 50", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runStatus.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	out := make([]response.RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, response.NewRunResponse(run))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	infos := h.tasks.Tasks()
	out := make([]response.TaskResponse, 0, len(infos))
	for _, t := range infos {
		out = append(out, response.TaskResponse{Name: t.Name, IntervalMS: t.Interval.Milliseconds(), Running: t.Running})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleTriggerPipeline(w http.ResponseWriter, r *http.Request) {
	err := h.tasks.Trigger(scheduler.TaskRefreshPipeline)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusAccepted, response.TriggerResponse{
			Status: "accepted",
			Tasks:  map[string]string{scheduler.TaskRefreshPipeline: "accepted"},
		})
	case errors.Is(err, scheduler.ErrTaskBusy):
		h.writeJSONError(w, "Pipeline run already in progress", http.StatusConflict)
	default:
		h.logger.Error("failed to trigger pipeline", zap.Error(err))
		h.writeJSONError(w, "Scheduler unavailable", http.StatusServiceUnavailable)
	}
}

// HandleTriggerRetention starts every retention task that is not already running.
func (h *Handler) HandleTriggerRetention(w http.ResponseWriter, r *http.Request) {
	resp := response.TriggerResponse{Status: "accepted", Tasks: make(map[string]string, len(scheduler.RetentionTasks))}
	for _, name := range scheduler.RetentionTasks {
		err := h.tasks.Trigger(name)
		switch {
		case err == nil:
			resp.Tasks[name] = "accepted"
		case errors.Is(err, scheduler.ErrTaskBusy):
			resp.Tasks[name] = "busy"
		default:
			h.logger.Error("failed to trigger retention task", zap.String("task", name), zap.Error(err))
			h.writeJSONError(w, "Scheduler unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
