package controllers

import (
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// BookingController serves signed-in app users.
type BookingController struct {
	bookings *services.BookingService
}

func NewBookingController(b *services.BookingService) *BookingController {
	return &BookingController{bookings: b}
}

// ----------------------------------------------------------------
// POST /api/v1/bookings
// ----------------------------------------------------------------
func (c *BookingController) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req dtos.CreateBookingRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	resp, err := c.bookings.CreateBooking(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err, "Could not create booking")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/bookings/my
// ----------------------------------------------------------------
func (c *BookingController) ListMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(w, r)
	if !ok {
		return
	}

	out, err := c.bookings.ListMyBookings(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "Failed to list your bookings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListBookingsResponse{Results: out})
}

// ----------------------------------------------------------------
// POST /api/v1/bookings/{bookingId}/cancel
// ----------------------------------------------------------------
func (c *BookingController) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	if err := c.bookings.CancelBooking(r.Context(), bookingID, services.UserActor(userID)); err != nil {
		respondServiceError(w, err, "Could not cancel booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
