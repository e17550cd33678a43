package controllers

import (
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

type AvailabilityController struct {
	availability *services.AvailabilityService
}

func NewAvailabilityController(a *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{availability: a}
}

// ----------------------------------------------------------------
// GET /api/v1/rooms/{roomId}/availability?date=YYYY-MM-DD
// ----------------------------------------------------------------
func (c *AvailabilityController) GetAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "date query parameter is required", nil)
		return
	}

	resp, err := c.availability.GetAvailability(r.Context(), roomID, date)
	if err != nil {
		respondServiceError(w, err, "Failed to load availability")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
