// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	businessflow "github.com/amirphl/Ejare/business_flow"
	"github.com/amirphl/Ejare/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/zap"
)

// baseHandler carries the response helpers shared by every handler
type baseHandler struct {
	logger *zap.Logger
}

func newBaseHandler(logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{logger: logger}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// createRequestContext bounds a flow invocation. The caller must call cancel.
func (h *baseHandler) createRequestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, utils.RequestTimeout)
}

func (h *baseHandler) createRequestContextWithTimeout(c fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get(businessflow.RequestIDKey)
}

func (h *baseHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get(fiber.HeaderUserAgent))
	metadata.SetRequestID(requestID(c))
	return metadata
}

func (h *baseHandler) invalidBody(c fiber.Ctx, err error) error {
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
}

// handleFlowError maps business errors onto HTTP statuses. Unclassified errors are logged and
// surface only as an opaque 500.
func (h *baseHandler) handleFlowError(c fiber.Ctx, err error, operation string) error {
	switch {
	case businessflow.IsValidationError(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", businessflow.ValidationFields(err))
	case businessflow.IsForbiddenRole(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Role is not allowed for registration", "ROLE_NOT_ALLOWED", nil)
	case businessflow.IsEmailAlreadyExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "email already registered", "EMAIL_EXISTS", nil)
	case businessflow.IsNationalIDAlreadyExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "national ID already registered", "NATIONAL_ID_EXISTS", nil)
	case businessflow.IsRateLimited(err):
		wait, _ := businessflow.RetryAfter(err)
		seconds := (&businessflow.RateLimitedError{RetryAfter: wait}).RetryAfterSeconds()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
		return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many failed login attempts. Please try again later.", "RATE_LIMITED",
			dto.RateLimitDetail{RetryAfterSeconds: seconds})
	case businessflow.IsInvalidCredentials(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
	case businessflow.IsAccountInactive(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", "ACCOUNT_INACTIVE", nil)
	case businessflow.IsAccountUnverified(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Email address is not verified", "ACCOUNT_UNVERIFIED", nil)
	case businessflow.IsVerificationTokenInvalid(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Verification token is invalid", "VERIFICATION_TOKEN_INVALID", nil)
	case businessflow.IsVerificationTokenExpired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Verification token has expired", "VERIFICATION_TOKEN_EXPIRED", nil)
	case businessflow.IsAccountNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
	case businessflow.IsInvalidSetting(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, businessMessage(err, "Invalid setting"), "INVALID_SETTING", nil)
	case businessflow.IsDependencyUnavailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable", "DEPENDENCY_UNAVAILABLE", nil)
	}

	h.logger.Error("Request failed",
		zap.String("operation", operation),
		zap.String("request_id", requestID(c)),
		zap.String("path", c.Path()),
		zap.Error(err))
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", nil)
}

func businessMessage(err error, fallback string) string {
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return fallback
}
