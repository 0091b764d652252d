package response

import "github.com/user/site-auditor/internal/entity"

// Run statuses returned by the control endpoints.
const (
	StatusPendingStarted  = "pending_analysis_started"
	StatusGlobalStarted   = "global_analysis_started"
	StatusSingleCompleted = "single_analysis_completed"
)

type RunResponse struct {
	Status string `json:"status"`
}

// SiteRunResponse wraps the result of a synchronous single-site run.
type SiteRunResponse struct {
	Status string                 `json:"status"`
	Result *entity.AnalysisResult `json:"result"`
}

type EventsResponse struct {
	Events []entity.RunEvent `json:"events"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
