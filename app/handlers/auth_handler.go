package handlers

import (
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/middleware"
	businessflow "github.com/amirphl/Ejare/business_flow"
	"github.com/amirphl/Ejare/utils"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	VerifyEmail(c fiber.Ctx) error
	Me(c fiber.Ctx) error
}

// CookieConfig controls the attributes of the session cookies
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	baseHandler
	signupFlow businessflow.SignupFlow
	loginFlow  businessflow.LoginFlow
	cookies    CookieConfig
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(signupFlow businessflow.SignupFlow, loginFlow businessflow.LoginFlow, cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	if cookies.SameSite == "" {
		cookies.SameSite = fiber.CookieSameSiteLaxMode
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(logger),
		signupFlow:  signupFlow,
		loginFlow:   loginFlow,
		cookies:     cookies,
	}
}

func (h *AuthHandler) setCookie(c fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) setSessionCookies(c fiber.Ctx, auth *dto.AuthResponse) {
	now := time.Now()
	h.setCookie(c, utils.AccessTokenCookie, auth.AccessToken, now.Add(time.Duration(auth.ExpiresIn)*time.Second))
	h.setCookie(c, utils.RefreshTokenCookie, auth.RefreshToken, now.Add(time.Duration(auth.RefreshExpiresIn)*time.Second))
}

// Register handles account registration
// @Summary Register
// @Description Create an account for a publicly registrable role. Professional roles also get a profile.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error or role not allowed"
// @Failure 409 {object} dto.APIResponse "Email or national ID already registered"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.invalidBody(c, err)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.signupFlow.Register(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "register")
	}

	h.setSessionCookies(c, result)
	return h.SuccessResponse(c, fiber.StatusCreated, "Account created successfully", result)
}

// Login handles credential login
// @Summary Login
// @Description Authenticate with email and password. Repeated failures are rate limited.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account inactive or unverified"
// @Failure 429 {object} dto.APIResponse{error=dto.ErrorDetail{details=dto.RateLimitDetail}} "Too many failed attempts"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.invalidBody(c, err)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.loginFlow.Login(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "login")
	}

	h.setSessionCookies(c, result)
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new pair
// @Summary Refresh tokens
// @Description Issue a new token pair from the refresh_token cookie or the request body
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest false "Refresh token when the cookie is absent"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Tokens refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	token := c.Cookies(utils.RefreshTokenCookie)
	if token == "" && len(c.Body()) > 0 {
		var req dto.RefreshRequest
		if err := c.Bind().JSON(&req); err != nil {
			return h.invalidBody(c, err)
		}
		token = req.RefreshToken
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.loginFlow.Refresh(ctx, token, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "refresh")
	}

	h.setSessionCookies(c, result)
	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed", result)
}

// Logout clears the session cookies
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse "Logged out"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	expired := time.Unix(0, 0)
	h.setCookie(c, utils.AccessTokenCookie, "", expired)
	h.setCookie(c, utils.RefreshTokenCookie, "", expired)
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}

// VerifyEmail consumes an email verification token
// @Summary Verify email
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "Verification token"
// @Success 200 {object} dto.APIResponse{data=dto.VerifyEmailResponse} "Email verified"
// @Failure 400 {object} dto.APIResponse "Invalid or expired token"
// @Router /api/v1/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.invalidBody(c, err)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.signupFlow.VerifyEmail(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "verify_email")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Email verified", result)
}

// Me returns the identity carried by the access token
// @Summary Current account
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MeResponse} "Current account"
// @Failure 401 {object} dto.APIResponse "Unauthenticated"
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHENTICATED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Current account", dto.MeResponse{
		AccountID: claims.AccountID,
		UUID:      claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      string(claims.Role),
		ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
