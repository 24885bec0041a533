package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"claims-service/internal/models"
	"claims-service/internal/services"
	"claims-service/internal/utils"
)

type ClaimHandler struct {
	processing *services.ClaimProcessingService
	extractor  *services.ExtractionService
}

func NewClaimHandler(processing *services.ClaimProcessingService, extractor *services.ExtractionService) *ClaimHandler {
	return &ClaimHandler{processing: processing, extractor: extractor}
}

func (h *ClaimHandler) Register(app *fiber.App) {
	group := app.Group("claims/protected/api/v1")

	claimGroup := group.Group("/claims")
	claimGroup.Post("/process", h.ProcessClaim)     // POST /claims/process
	claimGroup.Post("/extract", h.ExtractDocument)  // POST /claims/extract
	claimGroup.Get("/detail/:id", h.GetClaimDetail) // GET /claims/detail/:id
	claimGroup.Get("/recent", h.GetRecentClaims)    // GET /claims/recent
	claimGroup.Get("/statistics", h.GetStatistics)  // GET /claims/statistics
}

// ProcessClaim accepts a multipart submission with one file field per
// document type and runs the full adjudication pipeline.
func (h *ClaimHandler) ProcessClaim(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_FORM", "Request must be multipart/form-data"))
	}

	input := models.ProcessClaimInput{
		ClaimDate: c.FormValue("claim_date"),
		PolicyID:  c.FormValue("policy_id"),
		MemberID:  c.FormValue("member_id"),
	}
	for _, docType := range models.DocumentMergeOrder {
		for _, header := range form.File[string(docType)] {
			data, err := readUpload(header)
			if err != nil {
				return c.Status(http.StatusBadRequest).JSON(
					utils.CreateErrorResponse("UNREADABLE_FILE", "Could not read uploaded file "+header.Filename))
			}
			input.Documents = append(input.Documents, models.DocumentInput{
				Type:     docType,
				FileName: header.Filename,
				Data:     data,
			})
		}
	}
	if len(input.Documents) == 0 {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("NO_DOCUMENTS", "At least one document file is required"))
	}

	decision, err := h.processing.ProcessClaim(c.Context(), input)
	if err != nil {
		return writePipelineError(c, err, "Failed to process claim")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(decision))
}

// ExtractDocument runs field extraction for a single document without
// adjudicating, for intake debugging.
func (h *ClaimHandler) ExtractDocument(c fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_FILE", "A file field is required"))
	}
	docType := models.DocumentType(c.FormValue("document_type"))
	if !docType.IsValid() {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_DOCUMENT_TYPE", "document_type must be one of the supported types"))
	}
	data, err := readUpload(header)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNREADABLE_FILE", "Could not read uploaded file"))
	}

	extracted, err := h.extractor.Extract(c.Context(), models.DocumentInput{
		Type:     docType,
		FileName: header.Filename,
		Data:     data,
	}, c.FormValue("claim_date"))
	if err != nil {
		return writePipelineError(c, err, "Failed to extract document")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(extracted))
}

// GetClaimDetail returns the stored claim with items, issues, indicators,
// documents and its audit trail.
func (h *ClaimHandler) GetClaimDetail(c fiber.Ctx) error {
	claimID := c.Params("id")
	if claimID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_CLAIM_ID", "Claim ID is required"))
	}

	detail, err := h.processing.GetClaimDetail(c.Context(), claimID)
	if err != nil {
		return writePipelineError(c, err, "Failed to retrieve claim")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(detail))
}

// GetRecentClaims lists claims created within the last N days.
func (h *ClaimHandler) GetRecentClaims(c fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "7"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	claims, err := h.processing.GetRecentClaims(c.Context(), days, limit)
	if err != nil {
		return writePipelineError(c, err, "Failed to retrieve recent claims")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"claims": claims,
		"count":  len(claims),
	}))
}

// GetStatistics aggregates decision counts, optionally scoped by policy and
// created_at date range.
func (h *ClaimHandler) GetStatistics(c fiber.Ctx) error {
	stats, err := h.processing.GetStatistics(c.Context(),
		c.Query("policy_id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return writePipelineError(c, err, "Failed to retrieve claim statistics")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(stats))
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// writePipelineError maps pipeline error kinds to HTTP status codes.
func writePipelineError(c fiber.Ctx, err error, fallback string) error {
	var pe *services.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case services.KindMalformedInput:
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse(string(pe.Kind), pe.Message))
		case services.KindNotFound:
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse(string(pe.Kind), pe.Message))
		default:
			slog.Error("pipeline collaborator failure", "error", err)
			return c.Status(http.StatusBadGateway).JSON(
				utils.CreateErrorResponse(string(pe.Kind), pe.Message))
		}
	}
	slog.Error(fallback, "error", err)
	return c.Status(http.StatusInternalServerError).JSON(
		utils.CreateErrorResponse("INTERNAL_ERROR", fallback))
}
