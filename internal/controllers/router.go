package controllers

import (
	"crypto/rsa"
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/middleware"
	"github.com/dstroumpakos/escape-app-sub001/internal/routes"
	"github.com/gorilla/mux"
)

// Controllers bundles every handler set the router mounts.
type Controllers struct {
	Health       *HealthController
	Availability *AvailabilityController
	Booking      *BookingController
	Widget       *WidgetController
	SlotWatch    *SlotWatchController
	Operator     *OperatorController
}

// NewRouter mounts public, user, operator and admin routes. metrics may be
// nil.
func NewRouter(c Controllers, publicKey *rsa.PublicKey, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle(routes.Metrics, metrics).Methods(http.MethodGet)
	}
	router.HandleFunc(routes.RoomAvailability, c.Availability.GetAvailabilityHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.WidgetBookings, c.Widget.CreateGuestBookingHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.WidgetSlotWatches, c.Widget.SubscribeGuestHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.OperatorLogin, c.Operator.LoginHandler).Methods(http.MethodPost)

	// Signed-in users
	users := router.NewRoute().Subrouter()
	users.Use(middleware.AuthMiddleware(publicKey), middleware.RequireRole(middleware.RoleUser))
	users.HandleFunc(routes.Bookings, c.Booking.CreateBookingHandler).Methods(http.MethodPost)
	users.HandleFunc(routes.BookingsMy, c.Booking.ListMyBookingsHandler).Methods(http.MethodGet)
	users.HandleFunc(routes.BookingsCancel, c.Booking.CancelBookingHandler).Methods(http.MethodPost)
	users.HandleFunc(routes.SlotWatchToggle, c.SlotWatch.ToggleHandler).Methods(http.MethodPost)

	// Operators (admins pass the same guard with full access)
	ops := router.NewRoute().Subrouter()
	ops.Use(middleware.AuthMiddleware(publicKey), middleware.RequireRole(middleware.RoleOperator, middleware.RoleAdmin))
	ops.HandleFunc(routes.OperatorBookings, c.Operator.CreateBookingHandler).Methods(http.MethodPost)
	ops.HandleFunc(routes.OperatorBlocks, c.Operator.CreateBlockHandler).Methods(http.MethodPost)
	ops.HandleFunc(routes.OperatorRoomBookings, c.Operator.ListRoomBookingsHandler).Methods(http.MethodGet)
	ops.HandleFunc(routes.OperatorBookingCancel, c.Operator.CancelBookingHandler).Methods(http.MethodPost)
	ops.HandleFunc(routes.OperatorBookingComplete, c.Operator.CompleteBookingHandler).Methods(http.MethodPost)
	ops.HandleFunc(routes.OperatorBookingReschedule, c.Operator.RescheduleBookingHandler).Methods(http.MethodPost)
	ops.HandleFunc(routes.OperatorRooms, c.Operator.ListRoomsHandler).Methods(http.MethodGet)
	ops.HandleFunc(routes.OperatorRoom, c.Operator.UpdateRoomHandler).Methods(http.MethodPatch)
	ops.HandleFunc(routes.OperatorRoomOverride, c.Operator.SetOverrideHandler).Methods(http.MethodPut)
	ops.HandleFunc(routes.OperatorRoomOverride, c.Operator.DeleteOverrideHandler).Methods(http.MethodDelete)

	// Admin
	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware(publicKey), middleware.RequireRole(middleware.RoleAdmin))
	admin.HandleFunc(routes.AdminSlotWatchCleanup, c.SlotWatch.CleanupHandler).Methods(http.MethodPost)

	return router
}
