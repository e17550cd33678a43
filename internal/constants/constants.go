package constants

import "time"

// Booking codes carry a source-specific prefix.
const (
	BookingCodePrefixApp      = "UNL-"
	BookingCodePrefixExternal = "EXT-"
	BookingCodePrefixWidget   = "WEB-"

	// A generated code may collide with an existing one under the unique index.
	BookingCodeAttempts = 3
)

// Pricing
const (
	DepositRate = 0.20
)

// Slot ordering: clock hours below this cutoff sort after the evening.
const LateNightCutoffHour = 6

// Notifier / outbox settings
const (
	OutboxEventSlotFreed  = "slot.freed"
	OutboxRelayBatchSize  = 100
	DefaultWatchRetention = 30 * 24 * time.Hour
)

// Guest booking rate limit
const (
	DefaultGuestBookingsPerIPPerHour = 20
	GuestBookingRateLimitWindow      = time.Hour
)

// Operator tokens
const (
	OperatorTokenTTL = 12 * time.Hour
)

// Common concurrency conflict / row-version conflict messages
const (
	ErrMsgRowVersionConflictRefresh = "The room has changed, please refresh"
)
