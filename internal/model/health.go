package model

// Health is the backend's self-reported status.
type Health struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	JacEnabled bool   `json:"jac_enabled"`
}

// Healthy reports whether the backend considers itself healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}
