package dto

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type DependencyStatus struct {
	Status  string `json:"status"` // healthy | unhealthy | disabled
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	HealthResponse
	Checks map[string]DependencyStatus `json:"checks"`
}
