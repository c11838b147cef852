package domain

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// ComponentHealth reports reachability of one external dependency.
type ComponentHealth struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// Health aggregates component status without performing full round trips.
type Health struct {
	Status    string          `json:"status"`
	Embedder  ComponentHealth `json:"embedder"`
	Store     ComponentHealth `json:"store"`
	Generator ComponentHealth `json:"generator"`
}
