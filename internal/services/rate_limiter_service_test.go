package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/stretchr/testify/require"
)

type brokenLimiter struct{}

func (brokenLimiter) IncrementAndCheck(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func TestCheckGuestBookingRateLimit(t *testing.T) {
	ctx := context.Background()
	svc := NewRateLimiterService(testhelpers.NewMemoryRateLimiter(), 2, time.Hour)

	require.NoError(t, svc.CheckGuestBookingRateLimit(ctx, "10.0.0.1"))
	require.NoError(t, svc.CheckGuestBookingRateLimit(ctx, "10.0.0.1"))
	require.ErrorIs(t, svc.CheckGuestBookingRateLimit(ctx, "10.0.0.1"), utils.ErrRateLimitExceeded)

	require.NoError(t, svc.CheckGuestBookingRateLimit(ctx, "10.0.0.2"), "counted per IP")
	require.NoError(t, svc.CheckGuestBookingRateLimit(ctx, ""), "unknown client is not limited")
}

func TestCheckGuestBookingRateLimit_Disabled(t *testing.T) {
	ctx := context.Background()

	unset := NewRateLimiterService(nil, 1, time.Hour)
	zero := NewRateLimiterService(testhelpers.NewMemoryRateLimiter(), 0, time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, unset.CheckGuestBookingRateLimit(ctx, "10.0.0.1"))
		require.NoError(t, zero.CheckGuestBookingRateLimit(ctx, "10.0.0.1"))
	}
}

func TestCheckGuestBookingRateLimit_FailsOpen(t *testing.T) {
	svc := NewRateLimiterService(brokenLimiter{}, 1, time.Hour)
	require.NoError(t, svc.CheckGuestBookingRateLimit(context.Background(), "10.0.0.1"))
}
