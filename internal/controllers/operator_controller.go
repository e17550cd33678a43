package controllers

import (
	"errors"
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/gorilla/mux"
)

// OperatorController serves the operator console: login, manual bookings,
// external blocks, lifecycle transitions and room maintenance.
type OperatorController struct {
	auth     *services.OperatorAuthService
	bookings *services.BookingService
	rooms    *services.RoomService
}

func NewOperatorController(
	auth *services.OperatorAuthService,
	bookings *services.BookingService,
	rooms *services.RoomService,
) *OperatorController {
	return &OperatorController{auth: auth, bookings: bookings, rooms: rooms}
}

// ----------------------------------------------------------------
// POST /api/v1/operator/login
// ----------------------------------------------------------------
func (c *OperatorController) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dtos.OperatorLoginRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	resp, err := c.auth.Login(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrLoginDisabled) {
			utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Operator login is not configured", nil, err)
			return
		}
		respondServiceError(w, err, "Login failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// POST /api/v1/operator/bookings
// ----------------------------------------------------------------
func (c *OperatorController) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}

	var req dtos.OperatorBookingRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	resp, err := c.bookings.CreateOperatorBooking(ctx, *actor.OperatorID, req)
	if err != nil {
		respondServiceError(w, err, "Could not create booking")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// ----------------------------------------------------------------
// POST /api/v1/operator/blocks
// ----------------------------------------------------------------
func (c *OperatorController) CreateBlockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}

	var req dtos.OperatorBookingRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	resp, err := c.bookings.CreateExternalBlock(ctx, *actor.OperatorID, req)
	if err != nil {
		respondServiceError(w, err, "Could not create block")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/operator/rooms/{roomId}/bookings?date=YYYY-MM-DD
// ----------------------------------------------------------------
func (c *OperatorController) ListRoomBookingsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	out, err := c.bookings.ListRoomBookings(r.Context(), actor, roomID, r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, err, "Failed to list bookings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListBookingsResponse{Results: out})
}

// ----------------------------------------------------------------
// POST /api/v1/operator/bookings/{bookingId}/cancel
// ----------------------------------------------------------------
func (c *OperatorController) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	if err := c.bookings.CancelBooking(r.Context(), bookingID, actor); err != nil {
		respondServiceError(w, err, "Could not cancel booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// POST /api/v1/operator/bookings/{bookingId}/complete
// ----------------------------------------------------------------
func (c *OperatorController) CompleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	if err := c.bookings.CompleteBooking(r.Context(), bookingID, actor); err != nil {
		respondServiceError(w, err, "Could not complete booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// POST /api/v1/operator/bookings/{bookingId}/reschedule
// ----------------------------------------------------------------
func (c *OperatorController) RescheduleBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	var req dtos.RescheduleBookingRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	if err := c.bookings.RescheduleBooking(ctx, bookingID, actor, req.Date, req.Time); err != nil {
		respondServiceError(w, err, "Could not reschedule booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// GET /api/v1/operator/rooms
// ----------------------------------------------------------------
func (c *OperatorController) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}

	out, err := c.rooms.ListRooms(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err, "Failed to list rooms")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListRoomsResponse{Results: out})
}

// ----------------------------------------------------------------
// PATCH /api/v1/operator/rooms/{roomId}
// ----------------------------------------------------------------
func (c *OperatorController) UpdateRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	var req dtos.UpdateRoomRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	room, err := c.rooms.UpdateRoom(ctx, actor, roomID, req)
	if err != nil {
		respondServiceError(w, err, "Could not update room")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, room)
}

// ----------------------------------------------------------------
// PUT /api/v1/operator/rooms/{roomId}/overrides/{date}
// ----------------------------------------------------------------
func (c *OperatorController) SetOverrideHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	var req dtos.SlotOverrideRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	o, err := c.rooms.SetOverride(ctx, actor, roomID, mux.Vars(r)["date"], req.Slots)
	if err != nil {
		respondServiceError(w, err, "Could not set slot override")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, o)
}

// ----------------------------------------------------------------
// DELETE /api/v1/operator/rooms/{roomId}/overrides/{date}
// ----------------------------------------------------------------
func (c *OperatorController) DeleteOverrideHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := operatorActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	if err := c.rooms.DeleteOverride(r.Context(), actor, roomID, mux.Vars(r)["date"]); err != nil {
		respondServiceError(w, err, "Could not remove slot override")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
