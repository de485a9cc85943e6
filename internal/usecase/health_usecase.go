package usecase

import (
	"context"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/logger"
)

type healthUsecase struct {
	version string
	store   domain.Pinger
	now     func() time.Time
}

// NewHealthUsecase reports degraded when store fails its ping. store may be nil.
func NewHealthUsecase(version string, store domain.Pinger) domain.HealthUsecase {
	return &healthUsecase{version: version, store: store, now: time.Now}
}

func (u *healthUsecase) Check(ctx context.Context) domain.HealthStatus {
	status := "ok"
	if u.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := u.store.Ping(pingCtx); err != nil {
			logger.Log.Warn("rate limit store unhealthy", "error", err)
			status = "degraded"
		}
	}
	return domain.HealthStatus{
		Status:    status,
		Version:   u.version,
		Timestamp: u.now().UTC().Format(time.RFC3339),
	}
}
