package dto

// HealthResponse is the body of the health endpoints. Backend names the store
// driver and Details carries per-dependency status on readiness.
type HealthResponse struct {
	Status  string            `json:"status"`
	Backend string            `json:"backend,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
