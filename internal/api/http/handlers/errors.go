package handlers

import (
	"errors"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/validation"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// toHTTPError translates service errors into DomainErrors. Unknown errors
// pass through and are rendered as internal errors.
func toHTTPError(err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return apperrors.NewValidationError(verr.Message, map[string]any{"field": verr.Field})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return apperrors.NewConflict("Email already exists", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("Invalid email or password")
	case errors.Is(err, domain.ErrInvalidResetToken):
		return apperrors.NewUnauthorized("Invalid or expired reset token")
	case errors.Is(err, domain.ErrInvalidToken):
		return apperrors.NewUnauthorized(auth.MsgInvalidToken)
	default:
		return err
	}
}
