package handlers

import (
	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/middleware"
	businessflow "github.com/amirphl/Ejare/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandlerInterface defines the contract for administrative handlers
type AdminHandlerInterface interface {
	SetActivation(c fiber.Ctx) error
	UpsertSetting(c fiber.Ctx) error
}

// AdminHandler exposes account approval and onboarding settings to administrators
type AdminHandler struct {
	baseHandler
	flow businessflow.AdminAccountFlow
}

func NewAdminHandler(flow businessflow.AdminAccountFlow, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(logger),
		flow:        flow,
	}
}

// SetActivation activates or deactivates an account
// @Summary Set account activation
// @Description Approve or suspend an account. Professional profiles follow the account state.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Account UUID"
// @Param request body dto.SetActivationRequest true "Activation state"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Activation updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{uuid}/activation [patch]
func (h *AdminHandler) SetActivation(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHENTICATED", nil)
	}

	var req dto.SetActivationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.invalidBody(c, err)
	}
	if req.Active == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR",
			map[string]string{"active": "active is required"})
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.flow.SetActivation(ctx, c.Params("uuid"), *req.Active, claims.AccountID, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "set_activation")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Account activation updated", result)
}

// UpsertSetting creates or replaces a system setting
// @Summary Upsert system setting
// @Description Onboarding settings accept boolean values only
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category path string true "Setting category"
// @Param key path string true "Setting key"
// @Param request body dto.UpsertSettingRequest true "Setting value"
// @Success 200 {object} dto.APIResponse{data=dto.SystemSettingDTO} "Setting stored"
// @Failure 400 {object} dto.APIResponse "Invalid setting"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/admin/settings/{category}/{key} [put]
func (h *AdminHandler) UpsertSetting(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHENTICATED", nil)
	}

	var req dto.UpsertSettingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.invalidBody(c, err)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.flow.UpsertSetting(ctx, c.Params("category"), c.Params("key"), &req, claims.AccountID, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "upsert_setting")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Setting stored", result)
}
