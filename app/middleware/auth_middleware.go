// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"github.com/gofiber/fiber/v3"
)

// Locals keys populated by Authenticate
const (
	AccountIDKey   = "account_id"
	TokenIDKey     = "token_id"
	TokenClaimsKey = "token_claims"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// accessToken reads the bearer header first and falls back to the session cookie
func accessToken(c fiber.Ctx) (string, string) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", "INVALID_AUTHORIZATION_FORMAT"
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return "", "MISSING_ACCESS_TOKEN"
		}
		return token, ""
	}
	if token := c.Cookies(utils.AccessTokenCookie); token != "" {
		return token, ""
	}
	return "", "MISSING_ACCESS_TOKEN"
}

// Authenticate validates the access token and stores its claims for downstream handlers
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, problem := accessToken(c)
		switch problem {
		case "INVALID_AUTHORIZATION_FORMAT":
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", problem)
		case "MISSING_ACCESS_TOKEN":
			return unauthorized(c, "Access token is required", problem)
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenWrongType):
				return unauthorized(c, "Refresh tokens cannot be used for API access", "TOKEN_WRONG_TYPE")
			default:
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			}
		}

		c.Locals(AccountIDKey, claims.AccountID)
		c.Locals(TokenIDKey, claims.TokenID)
		c.Locals(TokenClaimsKey, claims)

		return c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Authenticate
func ClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(TokenClaimsKey).(*services.TokenClaims)
	return claims, ok && claims != nil
}

// RequireRoles admits only authenticated callers holding one of roles. It must run after Authenticate.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[models.NormalizeRole(string(role))] = true
	}

	return func(c fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return unauthorized(c, "Authentication required", "UNAUTHENTICATED")
		}
		if !allowed[models.NormalizeRole(string(claims.Role))] {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Insufficient permissions",
				Error:   dto.ErrorDetail{Code: "FORBIDDEN"},
			})
		}
		return c.Next()
	}
}
