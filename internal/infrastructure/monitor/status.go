package monitor

import "time"

// Status is the last observed state of the planner's backing services.
// A service that is not configured reports Enabled false.
type Status struct {
	PostgreSQL ServiceStatus `json:"postgresql"`
	Redis      ServiceStatus `json:"redis"`
	LastCheck  time.Time     `json:"last_check"`
}

type ServiceStatus struct {
	Enabled bool `json:"enabled"`
	Online  bool `json:"online"`
}

// Healthy reports whether every configured service answered.
func (s Status) Healthy() bool {
	return s.PostgreSQL.ok() && s.Redis.ok()
}

func (s ServiceStatus) ok() bool {
	return !s.Enabled || s.Online
}
