package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports whether the ledger database answers.
type HealthController struct {
	db      Pinger
	service string
}

func NewHealthController(db Pinger, service string) *HealthController {
	return &HealthController{db: db, service: service}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	start := time.Now()
	if err := c.db.Ping(ctx); err != nil {
		utils.Logger.WithError(err).Error("Ledger DB unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{
		Status:    "OK",
		Service:   c.service,
		DBLatency: time.Since(start).Round(time.Microsecond).String(),
	})
}
