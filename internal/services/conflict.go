package services

import (
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
)

// HasConflict reports whether any booking in the (room, date) partition,
// other than excludeID, actively holds candidateTime. Times compare as
// opaque strings.
func HasConflict(existing []*models.Booking, candidateTime string, excludeID *uuid.UUID) bool {
	for _, b := range existing {
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.Time == candidateTime && b.IsActive() {
			return true
		}
	}
	return false
}

// occupiedTimes returns the set of times held by active bookings.
func occupiedTimes(existing []*models.Booking) map[string]struct{} {
	out := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		if b.IsActive() {
			out[b.Time] = struct{}{}
		}
	}
	return out
}
