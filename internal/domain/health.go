package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// FlowMetrics is returned by GET /v1/metrics/flow.
type FlowMetrics struct {
	TotalTurns          int64            `json:"totalTurns"`
	TurnsByIntent       map[string]int64 `json:"turnsByIntent"`
	TurnsByOutcome      map[string]int64 `json:"turnsByOutcome"`
	ClassifierFallbacks int64            `json:"classifierFallbacks"`
	FallbackRate        float64          `json:"fallbackRate"`
	ExternalErrors      map[string]int64 `json:"externalErrors"`
	CacheHitRate        float64          `json:"cacheHitRate"`
	Period              string           `json:"period"`
}
