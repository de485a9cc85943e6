package domain

import "context"

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status    string `json:"status" example:"ok"`
	Version   string `json:"version" example:"v1"`
	Timestamp string `json:"timestamp" example:"2026-10-14T09:30:00Z"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}
