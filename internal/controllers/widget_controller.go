package controllers

import (
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// WidgetController serves the public, unauthenticated booking widget.
type WidgetController struct {
	bookings    *services.BookingService
	watches     *services.SlotWatchService
	rateLimiter services.RateLimiterService
}

func NewWidgetController(
	b *services.BookingService,
	sw *services.SlotWatchService,
	rl services.RateLimiterService,
) *WidgetController {
	return &WidgetController{bookings: b, watches: sw, rateLimiter: rl}
}

// ----------------------------------------------------------------
// POST /api/v1/widget/bookings
// ----------------------------------------------------------------
func (c *WidgetController) CreateGuestBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := c.rateLimiter.CheckGuestBookingRateLimit(ctx, utils.ClientIP(r)); err != nil {
		respondServiceError(w, err, "Could not create booking")
		return
	}

	var req dtos.GuestBookingRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	resp, err := c.bookings.CreateGuestBooking(ctx, req)
	if err != nil {
		respondServiceError(w, err, "Could not create booking")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// ----------------------------------------------------------------
// POST /api/v1/widget/slot-watches
// ----------------------------------------------------------------
func (c *WidgetController) SubscribeGuestHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dtos.GuestSlotWatchRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	key := slotKeyFrom(req.SlotWatchRequest)
	subscribed, err := c.watches.SubscribeGuest(ctx, req.Contact, key)
	if err != nil {
		respondServiceError(w, err, "Could not subscribe to slot")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SlotWatchResponse{Subscribed: subscribed})
}
