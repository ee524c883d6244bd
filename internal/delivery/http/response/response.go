package response

import (
	"time"

	"github.com/user/tariffs-service/internal/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status       string            `json:"status"` // "ok", "degraded"
	Dependencies map[string]string `json:"dependencies"`
}

// TriggerResponse reports the outcome of a manual task trigger per task:
// "accepted" or "busy".
type TriggerResponse struct {
	Status string            `json:"status"`
	Tasks  map[string]string `json:"tasks"`
}

type TaskResponse struct {
	Name       string `json:"name"`
	IntervalMS int64  `json:"interval_ms"`
	Running    bool   `json:"running"`
}

// RunResponse is a DTO for a pipeline run, mirroring entity.RunStatus.
type RunResponse struct {
	Status     string                 `json:"status"` // "success", "failed"
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	DurationMS int64                  `json:"duration_ms"`
	Error      string                 `json:"error,omitempty"`
	Result     *entity.PipelineResult `json:"result,omitempty"`
}

func NewRunResponse(s entity.RunStatus) RunResponse {
	return RunResponse{
		Status:     s.Status,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		DurationMS: s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
		Error:      s.Error,
		Result:     s.Result,
	}
}
