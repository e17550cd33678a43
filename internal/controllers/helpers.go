package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/middleware"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var validate = validator.New()

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// decodeAndValidate reads a JSON body into dst and runs its validator tags.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON body", nil, err)
		return false
	}
	if err := validate.StructCtx(ctx, dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := make([]fieldError, 0, len(validationErrors))
			for _, fe := range validationErrors {
				details = append(details, fieldError{Field: fe.Field(), Reason: fe.Tag()})
			}
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", details, err)
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request data", nil, err)
		}
		return false
	}
	return true
}

// respondServiceError maps domain errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error, fallbackMsg string) {
	var vErr *utils.ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, vErr.Error(),
			fieldError{Field: vErr.Field, Reason: vErr.Reason}, err)
	case errors.Is(err, utils.ErrSlotConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeSlotConflict, "Slot already booked", nil, err)
	case errors.Is(err, utils.ErrBookingNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Booking not found", nil, err)
	case errors.Is(err, utils.ErrRoomNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Room not found", nil, err)
	case errors.Is(err, utils.ErrNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Not found", nil, err)
	case errors.Is(err, utils.ErrAccessDenied):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", nil, err)
	case errors.Is(err, utils.ErrRoomInactive):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeRoomInactive, "Room is not accepting bookings", nil, err)
	case errors.Is(err, utils.ErrWrongStatus):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeWrongStatus, "Booking status does not allow this action", nil, err)
	case errors.Is(err, utils.ErrRowVersionConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeRowVersionConflict, constants.ErrMsgRowVersionConflictRefresh, nil, err)
	case errors.Is(err, utils.ErrRateLimitExceeded):
		utils.RespondErrorWithCode(w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many requests, try again later", nil, err)
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials, "Invalid email or password", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, fallbackMsg, nil, err)
	}
}

// pathUUID parses a mux path variable and writes a 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid "+name, nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// userFromContext returns the signed-in subject or writes a 401.
func userFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub, _, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil)
		return "", false
	}
	return sub, true
}

// operatorActor builds the ledger actor from an operator or admin token.
func operatorActor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	sub, role, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No operator in context", nil)
		return services.Actor{}, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid operator subject", nil, err)
		return services.Actor{}, false
	}
	actor := services.OperatorActor(id)
	actor.Admin = role == middleware.RoleAdmin
	return actor, true
}
