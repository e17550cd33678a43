package controllers

import (
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

type SlotWatchController struct {
	watches *services.SlotWatchService
}

func NewSlotWatchController(sw *services.SlotWatchService) *SlotWatchController {
	return &SlotWatchController{watches: sw}
}

// ----------------------------------------------------------------
// POST /api/v1/slot-watches/toggle
// ----------------------------------------------------------------
func (c *SlotWatchController) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userFromContext(w, r)
	if !ok {
		return
	}

	var req dtos.SlotWatchRequest
	if !decodeAndValidate(ctx, w, r, &req) {
		return
	}

	subscribed, err := c.watches.ToggleSlotWatch(ctx, userID, slotKeyFrom(req))
	if err != nil {
		respondServiceError(w, err, "Could not toggle slot watch")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SlotWatchResponse{Subscribed: subscribed})
}

// ----------------------------------------------------------------
// POST /api/v1/admin/slot-watches/cleanup
// ----------------------------------------------------------------
func (c *SlotWatchController) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.watches.Cleanup(r.Context())
	if err != nil {
		respondServiceError(w, err, "Slot watch cleanup failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SlotWatchCleanupResponse{Deleted: deleted})
}

func slotKeyFrom(req dtos.SlotWatchRequest) models.SlotKey {
	return models.SlotKey{RoomID: req.RoomID, Date: req.Date, Time: req.Time}
}
