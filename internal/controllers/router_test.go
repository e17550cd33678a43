package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dstroumpakos/escape-app-sub001/internal/controllers"
	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/middleware"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type harness struct {
	t          *testing.T
	store      *testhelpers.MemoryStore
	keys       *testhelpers.Keys
	router     *mux.Router
	operatorID uuid.UUID
	room       *models.Room
}

func newHarness(t *testing.T, guestLimit int) *harness {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	keys := testhelpers.NewKeys(t)
	opID := uuid.New()
	room := store.CreateRoom(t, opID)

	watches := services.NewSlotWatchService(store.SlotWatches(), store.Rooms(), store.Ledger(), 0)
	bookings := services.NewBookingService(store.Rooms(), store.Bookings(), store.Ledger(), watches)
	availability := services.NewAvailabilityService(store.Rooms(), store.Overrides(), store.Bookings())
	limiter := services.NewRateLimiterService(testhelpers.NewMemoryRateLimiter(), guestLimit, 0)
	auth := services.NewOperatorAuthService(store.Operators(), keys.Private)
	rooms := services.NewRoomService(store.Rooms(), store.Overrides())

	router := controllers.NewRouter(controllers.Controllers{
		Health:       controllers.NewHealthController(fakePinger{}, "escape-booking-service"),
		Availability: controllers.NewAvailabilityController(availability),
		Booking:      controllers.NewBookingController(bookings),
		Widget:       controllers.NewWidgetController(bookings, watches, limiter),
		SlotWatch:    controllers.NewSlotWatchController(watches),
		Operator:     controllers.NewOperatorController(auth, bookings, rooms),
	}, keys.Public, nil)

	return &harness{t: t, store: store, keys: keys, router: router, operatorID: opID, room: room}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func (h *harness) userToken(sub string) string { return h.keys.Token(sub, middleware.RoleUser) }

func (h *harness) operatorToken() string {
	return h.keys.Token(h.operatorID.String(), middleware.RoleOperator)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (h *harness) bookingBody(date, slotTime string) dtos.CreateBookingRequest {
	return dtos.CreateBookingRequest{RoomID: h.room.ID, Date: date, Time: slotTime, Players: 3, Total: 99}
}

/* ───────────────────────────── public ───────────────────────────── */

func TestHealth(t *testing.T) {
	h := newHarness(t, 0)
	rr := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[dtos.HealthCheckResponse](t, rr)
	require.Equal(t, "OK", health.Status)
	require.Equal(t, "escape-booking-service", health.Service)

	down := controllers.NewHealthController(fakePinger{err: errors.New("dial tcp")}, "escape-booking-service")
	rr = httptest.NewRecorder()
	down.HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	h := newHarness(t, 0)
	path := "/api/v1/rooms/" + h.room.ID.String() + "/availability"

	rr := h.do(http.MethodGet, path+"?date="+testhelpers.Tuesday, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[dtos.AvailabilityResponse](t, rr)
	require.True(t, resp.Available)
	require.Len(t, resp.Slots, 3)
	require.Equal(t, "18:00", resp.Slots[0].Time)

	require.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, path, "", nil).Code)
	require.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, path+"?date=03/05/2030", "", nil).Code)
	require.Equal(t, http.StatusNotFound,
		h.do(http.MethodGet, "/api/v1/rooms/"+uuid.NewString()+"/availability?date="+testhelpers.Tuesday, "", nil).Code)
	require.Equal(t, http.StatusBadRequest,
		h.do(http.MethodGet, "/api/v1/rooms/not-a-uuid/availability?date="+testhelpers.Tuesday, "", nil).Code)
}

func TestWidgetBooking(t *testing.T) {
	h := newHarness(t, 2)
	body := dtos.GuestBookingRequest{
		RoomID: h.room.ID, Date: testhelpers.Friday, Time: "20:00", Players: 4,
		Name: "Guest", Contact: "guest@example.com",
	}

	rr := h.do(http.MethodPost, "/api/v1/widget/bookings", "", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	conf := decode[dtos.GuestBookingConfirmation](t, rr)
	require.Equal(t, 143.96, conf.Total)

	rr = h.do(http.MethodPost, "/api/v1/widget/bookings", "", body)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, utils.ErrCodeSlotConflict, decode[utils.ErrorResponse](t, rr).Code)

	// Third request from the same client is over the limit.
	body.Time = "22:00"
	rr = h.do(http.MethodPost, "/api/v1/widget/bookings", "", body)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestWidgetBooking_Validation(t *testing.T) {
	h := newHarness(t, 0)

	rr := h.do(http.MethodPost, "/api/v1/widget/bookings", "", dtos.GuestBookingRequest{
		RoomID: h.room.ID, Date: testhelpers.Friday, Time: "20:00", Players: 9, Name: "G", Contact: "c",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, utils.ErrCodeValidation, decode[utils.ErrorResponse](t, rr).Code)

	rr = h.do(http.MethodPost, "/api/v1/widget/bookings", "", map[string]any{"room_id": h.room.ID, "date": "tomorrow"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/widget/bookings", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	h.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	require.Equal(t, utils.ErrCodeInvalidPayload, decode[utils.ErrorResponse](t, raw).Code)
}

func TestWidgetSlotWatch(t *testing.T) {
	h := newHarness(t, 0)
	body := dtos.GuestSlotWatchRequest{
		SlotWatchRequest: dtos.SlotWatchRequest{RoomID: h.room.ID, Date: testhelpers.Friday, Time: "20:00"},
		Contact:          "guest@example.com",
	}
	for i := 0; i < 2; i++ {
		rr := h.do(http.MethodPost, "/api/v1/widget/slot-watches", "", body)
		require.Equal(t, http.StatusOK, rr.Code)
		require.True(t, decode[dtos.SlotWatchResponse](t, rr).Subscribed)
	}
}

/* ───────────────────────────── users ───────────────────────────── */

func TestUserBookingFlow(t *testing.T) {
	h := newHarness(t, 0)
	token := h.userToken("user-1")

	require.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/api/v1/bookings", "", h.bookingBody(testhelpers.Tuesday, "18:00")).Code)
	require.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/api/v1/bookings", h.operatorToken(), h.bookingBody(testhelpers.Tuesday, "18:00")).Code)

	rr := h.do(http.MethodPost, "/api/v1/bookings", token, h.bookingBody(testhelpers.Tuesday, "18:00"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[dtos.BookingCreatedResponse](t, rr)

	rr = h.do(http.MethodPost, "/api/v1/bookings", h.userToken("user-2"), h.bookingBody(testhelpers.Tuesday, "18:00"))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(http.MethodGet, "/api/v1/bookings/my", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[dtos.ListBookingsResponse](t, rr)
	require.Len(t, list.Results, 1)
	require.Equal(t, created.ID, list.Results[0].ID)

	cancelPath := "/api/v1/bookings/" + created.ID.String() + "/cancel"
	require.Equal(t, http.StatusForbidden, h.do(http.MethodPost, cancelPath, h.userToken("user-2"), nil).Code)
	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, cancelPath, token, nil).Code)
	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, cancelPath, token, nil).Code, "repeat cancel is a no-op")
	require.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/api/v1/bookings/"+uuid.NewString()+"/cancel", token, nil).Code)
}

func TestToggleSlotWatchEndpoint(t *testing.T) {
	h := newHarness(t, 0)
	body := dtos.SlotWatchRequest{RoomID: h.room.ID, Date: testhelpers.Friday, Time: "20:00"}

	rr := h.do(http.MethodPost, "/api/v1/slot-watches/toggle", h.userToken("u"), body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, decode[dtos.SlotWatchResponse](t, rr).Subscribed)

	rr = h.do(http.MethodPost, "/api/v1/slot-watches/toggle", h.userToken("u"), body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, decode[dtos.SlotWatchResponse](t, rr).Subscribed)
}

/* ───────────────────────────── operators ───────────────────────────── */

func TestOperatorLoginEndpoint(t *testing.T) {
	h := newHarness(t, 0)
	utils.PasswordHashCost = bcrypt.MinCost
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, h.store.Operators().Create(context.Background(), &models.Operator{
		ID: h.operatorID, Email: "ops@room.test", PasswordHash: hash, Role: models.OperatorRoleOperator,
	}))

	rr := h.do(http.MethodPost, "/api/v1/operator/login", "", dtos.OperatorLoginRequest{Email: "ops@room.test", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rr.Code)
	token := decode[dtos.OperatorLoginResponse](t, rr).AccessToken

	rr = h.do(http.MethodGet, "/api/v1/operator/rooms/"+h.room.ID.String()+"/bookings?date="+testhelpers.Tuesday, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(http.MethodPost, "/api/v1/operator/login", "", dtos.OperatorLoginRequest{Email: "ops@room.test", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = h.do(http.MethodPost, "/api/v1/operator/login", "", dtos.OperatorLoginRequest{Email: "not-an-email", Password: "x"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOperatorLifecycle(t *testing.T) {
	h := newHarness(t, 0)
	op := h.operatorToken()

	rr := h.do(http.MethodPost, "/api/v1/operator/blocks", op, dtos.OperatorBookingRequest{
		RoomID: h.room.ID, Date: testhelpers.Tuesday, Time: "18:00",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	block := decode[dtos.BookingCreatedResponse](t, rr)

	rr = h.do(http.MethodPost, "/api/v1/bookings", h.userToken("u"), h.bookingBody(testhelpers.Tuesday, "18:00"))
	require.Equal(t, http.StatusConflict, rr.Code, "external block occupies the slot")

	rr = h.do(http.MethodPost, "/api/v1/operator/bookings", op, dtos.OperatorBookingRequest{
		RoomID: h.room.ID, Date: testhelpers.Tuesday, Time: "20:00", Players: utils.Ptr(4), Total: utils.Ptr(140.0),
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	booking := decode[dtos.BookingCreatedResponse](t, rr)

	base := "/api/v1/operator/bookings/" + booking.ID.String()
	require.Equal(t, http.StatusConflict,
		h.do(http.MethodPost, base+"/reschedule", op, dtos.RescheduleBookingRequest{Date: testhelpers.Tuesday, Time: "18:00"}).Code)
	require.Equal(t, http.StatusNoContent,
		h.do(http.MethodPost, base+"/reschedule", op, dtos.RescheduleBookingRequest{Date: testhelpers.Tuesday, Time: "22:00"}).Code)
	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, base+"/complete", op, nil).Code)

	rr = h.do(http.MethodPost, base+"/cancel", op, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, utils.ErrCodeWrongStatus, decode[utils.ErrorResponse](t, rr).Code)

	require.Equal(t, http.StatusNoContent,
		h.do(http.MethodPost, "/api/v1/operator/bookings/"+block.ID.String()+"/cancel", op, nil).Code)

	rr = h.do(http.MethodGet, "/api/v1/operator/rooms/"+h.room.ID.String()+"/bookings?date="+testhelpers.Tuesday, op, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[dtos.ListBookingsResponse](t, rr).Results, 2)
}

func TestOperatorGuards(t *testing.T) {
	h := newHarness(t, 0)
	stranger := h.keys.Token(uuid.NewString(), middleware.RoleOperator)

	rr := h.do(http.MethodPost, "/api/v1/operator/blocks", stranger, dtos.OperatorBookingRequest{
		RoomID: h.room.ID, Date: testhelpers.Tuesday, Time: "18:00",
	})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(http.MethodPatch, "/api/v1/operator/rooms/"+h.room.ID.String(), stranger, dtos.UpdateRoomRequest{Active: utils.Ptr(false)})
	require.Equal(t, http.StatusForbidden, rr.Code)

	require.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/api/v1/operator/blocks", h.userToken("u"), nil).Code, "users cannot reach operator routes")
	require.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/api/v1/operator/blocks", h.keys.Token("not-a-uuid", middleware.RoleOperator), dtos.OperatorBookingRequest{
			RoomID: h.room.ID, Date: testhelpers.Tuesday, Time: "18:00",
		}).Code)
}

func TestListOperatorRoomsEndpoint(t *testing.T) {
	h := newHarness(t, 0)

	rr := h.do(http.MethodGet, "/api/v1/operator/rooms", h.operatorToken(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rooms := decode[dtos.ListRoomsResponse](t, rr).Results
	require.Len(t, rooms, 1)
	require.Equal(t, h.room.ID, rooms[0].ID)

	rr = h.do(http.MethodGet, "/api/v1/operator/rooms", h.keys.Token(uuid.NewString(), middleware.RoleOperator), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decode[dtos.ListRoomsResponse](t, rr).Results)

	require.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/v1/operator/rooms", h.userToken("u"), nil).Code)
}

func TestRoomMaintenanceEndpoints(t *testing.T) {
	h := newHarness(t, 0)
	op := h.operatorToken()
	roomPath := "/api/v1/operator/rooms/" + h.room.ID.String()

	rr := h.do(http.MethodPatch, roomPath, op, dtos.UpdateRoomRequest{Active: utils.Ptr(false)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.False(t, decode[models.Room](t, rr).Active)

	rr = h.do(http.MethodPost, "/api/v1/bookings", h.userToken("u"), h.bookingBody(testhelpers.Tuesday, "18:00"))
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, utils.ErrCodeRoomInactive, decode[utils.ErrorResponse](t, rr).Code)

	rr = h.do(http.MethodPatch, roomPath, op, dtos.UpdateRoomRequest{OperatingDays: &[]int16{9}})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	overridePath := roomPath + "/overrides/" + testhelpers.Tuesday
	rr = h.do(http.MethodPut, overridePath, op, dtos.SlotOverrideRequest{Slots: []models.OverrideSlot{{Time: "16:00", Price: 20, Available: true}}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = h.do(http.MethodGet, "/api/v1/rooms/"+h.room.ID.String()+"/availability?date="+testhelpers.Tuesday, "", nil)
	resp := decode[dtos.AvailabilityResponse](t, rr)
	require.Len(t, resp.Slots, 1)
	require.Equal(t, "16:00", resp.Slots[0].Time)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, overridePath, op, nil).Code)
	require.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, overridePath, op, nil).Code)
}

/* ───────────────────────────── admin ───────────────────────────── */

func TestAdminCleanup(t *testing.T) {
	h := newHarness(t, 0)
	h.store.AddWatch(t, models.SlotKey{RoomID: h.room.ID, Date: "2001-01-01", Time: "18:00"}, "u")

	require.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/v1/admin/slot-watches/cleanup", h.operatorToken(), nil).Code)

	rr := h.do(http.MethodPost, "/api/v1/admin/slot-watches/cleanup", h.keys.Token(uuid.NewString(), middleware.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 1, decode[dtos.SlotWatchCleanupResponse](t, rr).Deleted)
}
