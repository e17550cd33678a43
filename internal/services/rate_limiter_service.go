package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// RateLimiterService guards the public widget endpoints.
type RateLimiterService interface {
	CheckGuestBookingRateLimit(ctx context.Context, ip string) error
}

type rateLimiterService struct {
	repo   repositories.RateLimitRepository
	limit  int
	window time.Duration
}

// NewRateLimiterService returns a limiter that allows everything when repo
// is nil.
func NewRateLimiterService(repo repositories.RateLimitRepository, limit int, window time.Duration) RateLimiterService {
	return &rateLimiterService{repo: repo, limit: limit, window: window}
}

func (s *rateLimiterService) CheckGuestBookingRateLimit(ctx context.Context, ip string) error {
	if s.repo == nil || s.limit <= 0 || ip == "" {
		return nil
	}

	ipKey := fmt.Sprintf("guest_booking:ip:%s", ip)
	allowed, err := s.repo.IncrementAndCheck(ctx, ipKey, s.limit, s.window)
	if err != nil {
		// Redis trouble should not take bookings down with it.
		utils.Logger.WithError(err).Warn("Rate limit check failed; allowing request")
		return nil
	}
	if !allowed {
		utils.Logger.Warnf("Per-IP guest booking rate limit exceeded (key: %s)", ipKey)
		return utils.ErrRateLimitExceeded
	}
	return nil
}
