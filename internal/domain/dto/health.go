package dto

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status" example:"ok"`
	Uptime        string `json:"uptime" example:"3h12m5s"`
	UptimeSeconds int64  `json:"uptimeSeconds" example:"11525"`
}
