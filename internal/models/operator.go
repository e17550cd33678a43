package models

import (
	"time"

	"github.com/google/uuid"
)

type OperatorRole string

const (
	OperatorRoleOperator OperatorRole = "operator"
	OperatorRoleAdmin    OperatorRole = "admin"
)

// Operator is the business entity that owns rooms and their bookings.
type Operator struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         OperatorRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}
