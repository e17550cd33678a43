package dtos

// HealthCheckResponse is served by GET /health.
type HealthCheckResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	DBLatency string `json:"db_latency"`
}
