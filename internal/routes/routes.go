package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Public
	RoomAvailability  = "/api/v1/rooms/{roomId}/availability"
	WidgetBookings    = "/api/v1/widget/bookings"
	WidgetSlotWatches = "/api/v1/widget/slot-watches"
	OperatorLogin     = "/api/v1/operator/login"

	// Signed-in users
	Bookings        = "/api/v1/bookings"
	BookingsMy      = "/api/v1/bookings/my"
	BookingsCancel  = "/api/v1/bookings/{bookingId}/cancel"
	SlotWatchToggle = "/api/v1/slot-watches/toggle"

	// Operators
	OperatorBookings          = "/api/v1/operator/bookings"
	OperatorBlocks            = "/api/v1/operator/blocks"
	OperatorRoomBookings      = "/api/v1/operator/rooms/{roomId}/bookings"
	OperatorBookingCancel     = "/api/v1/operator/bookings/{bookingId}/cancel"
	OperatorBookingComplete   = "/api/v1/operator/bookings/{bookingId}/complete"
	OperatorBookingReschedule = "/api/v1/operator/bookings/{bookingId}/reschedule"
	OperatorRooms             = "/api/v1/operator/rooms"
	OperatorRoom              = "/api/v1/operator/rooms/{roomId}"
	OperatorRoomOverride      = "/api/v1/operator/rooms/{roomId}/overrides/{date}"

	// Admin
	AdminSlotWatchCleanup = "/api/v1/admin/slot-watches/cleanup"
)
