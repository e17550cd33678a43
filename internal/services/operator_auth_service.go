package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/middleware"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// ErrLoginDisabled is returned when no signing key is configured.
var ErrLoginDisabled = errors.New("operator_login_disabled")

// OperatorAuthService exchanges operator credentials for a role-scoped
// access token.
type OperatorAuthService struct {
	operators  repositories.OperatorRepository
	privateKey *rsa.PrivateKey
}

func NewOperatorAuthService(operators repositories.OperatorRepository, privateKey *rsa.PrivateKey) *OperatorAuthService {
	return &OperatorAuthService{operators: operators, privateKey: privateKey}
}

func (s *OperatorAuthService) Login(ctx context.Context, req dtos.OperatorLoginRequest) (*dtos.OperatorLoginResponse, error) {
	if s.privateKey == nil {
		return nil, ErrLoginDisabled
	}

	op, err := s.operators.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if op == nil || !utils.CheckPasswordHash(req.Password, op.PasswordHash) {
		utils.Logger.WithField("email", req.Email).Warn("Operator login failed")
		return nil, utils.ErrInvalidCredentials
	}

	role := middleware.RoleOperator
	if op.Role == models.OperatorRoleAdmin {
		role = middleware.RoleAdmin
	}
	token, exp, err := middleware.SignToken(s.privateKey, op.ID.String(), role, constants.OperatorTokenTTL)
	if err != nil {
		return nil, err
	}
	utils.Logger.WithField("operator_id", op.ID).Info("Operator logged in")
	return &dtos.OperatorLoginResponse{AccessToken: token, ExpiresAt: exp}, nil
}
