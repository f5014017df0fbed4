package handlers

import (
	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/middleware"
	businessflow "github.com/amirphl/Ejare/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// KYCHandler starts identity verification sessions
type KYCHandler struct {
	baseHandler
	flow businessflow.KYCFlow
}

func NewKYCHandler(flow businessflow.KYCFlow, logger *zap.Logger) *KYCHandler {
	return &KYCHandler{
		baseHandler: newBaseHandler(logger),
		flow:        flow,
	}
}

// Initiate opens a verification session with the configured provider
// @Summary Initiate KYC
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.InitiateKYCRequest false "Verification level"
// @Success 200 {object} dto.APIResponse{data=dto.InitiateKYCResponse} "Session opened"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Failure 503 {object} dto.APIResponse "Provider unavailable"
// @Router /api/v1/kyc/initiate [post]
func (h *KYCHandler) Initiate(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHENTICATED", nil)
	}

	var req dto.InitiateKYCRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.invalidBody(c, err)
		}
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()

	result, err := h.flow.Initiate(ctx, claims.AccountID, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "kyc_initiate")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Verification session opened", result)
}
