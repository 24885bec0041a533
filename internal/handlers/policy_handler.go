package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"claims-service/internal/models"
	"claims-service/internal/repository"
	"claims-service/internal/services"
	"claims-service/internal/utils"
)

type PolicyHandler struct {
	policies    *repository.PolicyRepository
	utilization services.UtilizationSource
}

func NewPolicyHandler(policies *repository.PolicyRepository, utilization services.UtilizationSource) *PolicyHandler {
	return &PolicyHandler{policies: policies, utilization: utilization}
}

func (h *PolicyHandler) Register(app *fiber.App) {
	group := app.Group("claims/protected/api/v1")

	policyGroup := group.Group("/policies")
	policyGroup.Post("/", h.CreatePolicy)                        // POST /policies
	policyGroup.Post("/validate", h.ValidatePolicy)              // POST /policies/validate
	policyGroup.Get("/utilization/:policy_id", h.GetUtilization) // GET /policies/utilization/:policy_id
	policyGroup.Get("/detail/:policy_id", h.GetPolicy)           // GET /policies/detail/:policy_id
}

// CreatePolicy validates and stores a policy configuration.
func (h *PolicyHandler) CreatePolicy(c fiber.Ctx) error {
	var policy models.PolicyConfig
	if err := c.Bind().Body(&policy); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_BODY", "Request body must be a policy configuration JSON"))
	}
	if err := policy.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_POLICY", err.Error()))
	}

	if err := h.policies.Upsert(c.Context(), &policy); err != nil {
		slog.Error("Failed to store policy", "policy_id", policy.PolicyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("STORE_FAILED", "Failed to store policy"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"policy_id": policy.PolicyID,
	}))
}

// ValidatePolicy reports structural problems in a policy configuration
// without storing it.
func (h *PolicyHandler) ValidatePolicy(c fiber.Ctx) error {
	var policy models.PolicyConfig
	if err := c.Bind().Body(&policy); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_BODY", "Request body must be a policy configuration JSON"))
	}

	response := models.ValidatePolicyResponse{Valid: true}
	if err := policy.Validate(); err != nil {
		response.Valid = false
		response.Problems = append(response.Problems, err.Error())
	}
	response.Warnings = policyWarnings(&policy)

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(response))
}

// GetUtilization returns the year-to-date usage snapshot for a policy.
func (h *PolicyHandler) GetUtilization(c fiber.Ctx) error {
	policyID := c.Params("policy_id")
	if policyID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_POLICY_ID", "Policy ID is required"))
	}

	utilization, err := h.utilization.GetUtilization(c.Context(), policyID)
	if err != nil {
		slog.Error("Failed to get policy utilization", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve policy utilization"))
	}
	if utilization == nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("POLICY_NOT_FOUND", "Policy not found"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(utilization))
}

// GetPolicy returns a stored policy configuration.
func (h *PolicyHandler) GetPolicy(c fiber.Ctx) error {
	policyID := c.Params("policy_id")
	if policyID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_POLICY_ID", "Policy ID is required"))
	}

	policy, err := h.policies.GetByID(c.Context(), policyID)
	if err != nil {
		slog.Error("Failed to get policy", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve policy"))
	}
	if policy == nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("POLICY_NOT_FOUND", "Policy not found"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(policy))
}

// policyWarnings flags optional fields that will fall back to defaults.
func policyWarnings(policy *models.PolicyConfig) []string {
	var warnings []string
	if policy.ClaimRequirements.DoctorRegistrationFormat == "" {
		warnings = append(warnings, fmt.Sprintf("doctor_registration_format not set, defaulting to %s", models.DefaultDoctorRegistrationFormat))
	}
	if policy.CoverageDetails.AnnualLimit <= 0 {
		warnings = append(warnings, "annual_limit not set, annual limit checks disabled")
	}
	if policy.CoverageDetails.PerClaimLimit <= 0 {
		warnings = append(warnings, "per_claim_limit not set, per-claim limit checks disabled")
	}
	if policy.FraudDetection.HighValueThreshold <= 0 {
		warnings = append(warnings, fmt.Sprintf("high_value_threshold not set, defaulting to %d", models.DefaultHighValueThreshold))
	}
	for _, category := range models.AllCategories {
		if policy.CoverageDetails.RuleFor(category) == nil {
			warnings = append(warnings, fmt.Sprintf("category %s has no coverage rule, items will be rejected", category))
		}
	}
	return warnings
}
