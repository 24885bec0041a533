package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"claims-service/internal/database/minio"
	"claims-service/internal/models"
	"claims-service/internal/repository"
	"claims-service/internal/utils"
)

// BatchExtractor fans field extraction out over a set of documents.
type BatchExtractor interface {
	ExtractAll(ctx context.Context, docs []models.DocumentInput, claimDate string) ([]ExtractedDocumentPair, error)
}

// ProcessingDeps bundles the collaborators of the claim pipeline.
type ProcessingDeps struct {
	Extractor   BatchExtractor
	Merger      *DocumentMerger
	Eligibility *EligibilityChecker
	Validator   *DocumentValidator
	Verifier    *CoverageVerifier
	Analyzer    *CoverageAnalyzer
	Limits      *LimitValidator
	Necessity   *MedicalNecessityReviewer
	Fraud       *FraudDetector
	Engine      *DecisionEngine

	Claims     *repository.ClaimRepository
	Items      *repository.ClaimItemRepository
	Issues     *repository.IssueRepository
	Indicators *repository.FraudIndicatorRepository
	Audit      *repository.AuditRepository
	Uploads    *repository.DocumentUploadRepository
	Policies   *repository.PolicyRepository
	Members    *repository.MemberRepository

	Storage  *minio.MinioClient
	Notifier DecisionNotifier
	Cache    *CachedUtilizationSource
}

// ClaimProcessingService drives one claim through extraction, merging, the
// adjudication steps and persistence. Each stage result is a value handed to
// the next stage; nothing is accumulated on the service between claims.
type ClaimProcessingService struct {
	policy *models.PolicyConfig
	deps   ProcessingDeps
}

func NewClaimProcessingService(policy *models.PolicyConfig, deps ProcessingDeps) *ClaimProcessingService {
	return &ClaimProcessingService{policy: policy, deps: deps}
}

// ProcessClaim runs the full pipeline and returns the terminal decision.
func (s *ClaimProcessingService) ProcessClaim(ctx context.Context, input models.ProcessClaimInput) (*models.DecisionRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	claimDate := input.ClaimDate
	if claimDate == "" {
		claimDate = time.Now().Format(models.DateLayout)
	}

	pairs, err := s.deps.Extractor.ExtractAll(ctx, input.Documents, claimDate)
	if err != nil {
		return nil, err
	}

	claim, err := s.deps.Merger.Merge(ctx, pairs, claimDate)
	if err != nil {
		return nil, err
	}
	claim.PolicyID = input.PolicyID
	claim.MemberID = input.MemberID

	policy, err := s.resolvePolicy(ctx, claim)
	if err != nil {
		return nil, err
	}
	if err := s.resolveMember(ctx, claim); err != nil {
		return nil, err
	}

	if err := s.deps.Claims.Create(ctx, claim); err != nil {
		return nil, collaboratorFailure(err, "persisting claim %s", claim.ClaimID)
	}
	s.auditLog(ctx, claim.ClaimID, models.AuditCreated, utils.JSONMap{
		"total_amount":   claim.TotalAmount,
		"document_types": claim.DocumentTypesSubmitted,
		"policy_id":      claim.PolicyID,
	})
	s.storeDocuments(ctx, claim.ClaimID, input.Documents)

	decision, err := s.adjudicate(ctx, policy, claim)
	if err != nil {
		s.auditLog(ctx, claim.ClaimID, models.AuditError, utils.JSONMap{"error": err.Error()})
		return nil, err
	}
	return decision, nil
}

// adjudicate runs the ordered pipeline steps against an already persisted
// claim and records the outcome.
func (s *ClaimProcessingService) adjudicate(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord) (*models.DecisionRecord, error) {
	outputs := &PipelineOutputs{}

	var err error
	outputs.Eligibility, err = s.deps.Eligibility.Check(ctx, policy, claim)
	if err != nil {
		return nil, err
	}
	outputs.Validation = s.deps.Validator.Validate(policy, claim)
	outputs.Coverage = s.deps.Verifier.Verify(policy, claim)
	outputs.Analysis = s.deps.Analyzer.Analyze(ctx, policy, claim)
	outputs.Limits, err = s.deps.Limits.Validate(ctx, policy, claim, outputs.Analysis)
	if err != nil {
		return nil, err
	}
	outputs.Necessity, err = s.deps.Necessity.Review(ctx, policy, claim)
	if err != nil {
		return nil, err
	}
	outputs.Fraud = s.deps.Fraud.Detect(policy, claim)

	decision := s.deps.Engine.Decide(policy, claim, outputs)

	if err := s.persistDecision(ctx, claim, outputs, decision); err != nil {
		return nil, err
	}
	s.notify(ctx, decision)

	slog.Info("claim adjudicated",
		"claim_id", claim.ClaimID,
		"decision", decision.Decision,
		"approved_amount", decision.ApprovedAmount,
		"confidence", decision.ConfidenceScore,
		"fraud_score", decision.FraudScore)
	return decision, nil
}

func (s *ClaimProcessingService) persistDecision(ctx context.Context, claim *models.ClaimRecord, outputs *PipelineOutputs, decision *models.DecisionRecord) error {
	if err := s.deps.Issues.BulkCreate(ctx, claim.ClaimID, outputs.AllIssues()); err != nil {
		return collaboratorFailure(err, "persisting issues for claim %s", claim.ClaimID)
	}
	if err := s.deps.Items.BulkCreate(ctx, claim.ClaimID, decision.ItemBreakdown); err != nil {
		return collaboratorFailure(err, "persisting items for claim %s", claim.ClaimID)
	}
	if err := s.deps.Indicators.BulkCreate(ctx, claim.ClaimID, outputs.Fraud.Indicators); err != nil {
		return collaboratorFailure(err, "persisting fraud indicators for claim %s", claim.ClaimID)
	}
	if err := s.deps.Claims.UpdateDecision(ctx, claim.ClaimID, decision); err != nil {
		return collaboratorFailure(err, "recording decision for claim %s", claim.ClaimID)
	}
	s.auditLog(ctx, claim.ClaimID, string(decision.Decision), utils.JSONMap{
		"approved_amount":  decision.ApprovedAmount,
		"confidence_score": decision.ConfidenceScore,
		"fraud_score":      decision.FraudScore,
		"reason":           decision.Reason,
	})

	if decision.ApprovedAmount > 0 && claim.PolicyID != "" {
		if err := s.deps.Policies.IncrementClaimsYTD(ctx, claim.PolicyID, decision.ApprovedAmount); err != nil {
			return collaboratorFailure(err, "updating utilization for policy %s", claim.PolicyID)
		}
		if s.deps.Cache != nil {
			s.deps.Cache.Invalidate(ctx, claim.PolicyID)
		}
	}
	return nil
}

// resolvePolicy picks the policy governing this claim: an explicit policy id,
// then the policy number found in the documents, then the session policy.
func (s *ClaimProcessingService) resolvePolicy(ctx context.Context, claim *models.ClaimRecord) (*models.PolicyConfig, error) {
	if claim.PolicyID != "" && claim.PolicyID != s.policy.PolicyID {
		stored, err := s.deps.Policies.GetByID(ctx, claim.PolicyID)
		if err != nil {
			return nil, collaboratorFailure(err, "loading policy %s", claim.PolicyID)
		}
		if stored == nil {
			return nil, notFound("policy %s not found", claim.PolicyID)
		}
		return stored, nil
	}
	if claim.PolicyID == "" && claim.PolicyNumber != "" {
		stored, err := s.deps.Policies.GetByNumber(ctx, claim.PolicyNumber)
		if err != nil {
			return nil, collaboratorFailure(err, "loading policy by number %s", claim.PolicyNumber)
		}
		if stored != nil {
			claim.PolicyID = stored.PolicyID
			return stored, nil
		}
	}
	if claim.PolicyID == "" {
		claim.PolicyID = s.policy.PolicyID
	}
	return s.policy, nil
}

func (s *ClaimProcessingService) resolveMember(ctx context.Context, claim *models.ClaimRecord) error {
	if claim.MemberID != "" || claim.EmployeeID == "" || s.deps.Members == nil {
		return nil
	}
	member, err := s.deps.Members.GetByEmployeeID(ctx, claim.EmployeeID)
	if err != nil {
		return collaboratorFailure(err, "member lookup by employee id %s", claim.EmployeeID)
	}
	if member != nil {
		claim.MemberID = member.MemberID
	}
	return nil
}

// storeDocuments uploads the raw documents and records each upload. Storage
// problems are logged and skipped; the adjudication carries on without them.
func (s *ClaimProcessingService) storeDocuments(ctx context.Context, claimID string, docs []models.DocumentInput) {
	if s.deps.Storage == nil || s.deps.Uploads == nil {
		return
	}
	for _, doc := range docs {
		objectKey := fmt.Sprintf("%s/%s/%s", claimID, doc.Type, doc.FileName)
		if err := s.deps.Storage.UploadFile(ctx, minio.Storage.ClaimDocuments, objectKey, doc.Data, "application/octet-stream"); err != nil {
			slog.Warn("document upload failed", "claim_id", claimID, "file_name", doc.FileName, "error", err)
			continue
		}
		upload := &models.DocumentUpload{
			ClaimID:      claimID,
			DocumentType: doc.Type,
			FileName:     doc.FileName,
			FileType:     strings.TrimPrefix(filepath.Ext(doc.FileName), "."),
			ObjectKey:    objectKey,
			FileSize:     int64(len(doc.Data)),
		}
		if err := s.deps.Uploads.Create(ctx, upload); err != nil {
			slog.Warn("document upload record failed", "claim_id", claimID, "file_name", doc.FileName, "error", err)
		}
	}
}

func (s *ClaimProcessingService) notify(ctx context.Context, decision *models.DecisionRecord) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.PublishDecision(ctx, decision); err != nil {
		slog.Warn("decision event publish failed", "claim_id", decision.ClaimID, "error", err)
	}
}

func (s *ClaimProcessingService) auditLog(ctx context.Context, claimID, action string, details utils.JSONMap) {
	if s.deps.Audit == nil {
		return
	}
	if err := s.deps.Audit.Log(ctx, claimID, action, details); err != nil {
		slog.Warn("audit log write failed", "claim_id", claimID, "action", action, "error", err)
	}
}

func validateInput(input models.ProcessClaimInput) error {
	if len(input.Documents) == 0 {
		return malformedInput("at least one document is required")
	}
	for _, doc := range input.Documents {
		if !doc.Type.IsValid() {
			return malformedInput("unsupported document type %q", string(doc.Type))
		}
		if len(doc.Data) == 0 {
			return malformedInput("document %s is empty", doc.FileName)
		}
	}
	if input.ClaimDate != "" {
		if _, err := models.ParseDate(input.ClaimDate); err != nil {
			return malformedInput("claim_date: %v", err)
		}
	}
	return nil
}

// ClaimDetail aggregates everything stored about one claim.
type ClaimDetail struct {
	Claim      *models.ClaimRow        `json:"claim"`
	Items      []models.ItemAnalysis   `json:"items"`
	Issues     []models.Issue          `json:"issues"`
	Indicators []models.FraudIndicator `json:"fraud_indicators"`
	Uploads    []models.DocumentUpload `json:"documents"`
	AuditTrail []repository.AuditEntry `json:"audit_trail"`
}

// GetClaimDetail loads the stored claim with its items, issues, indicators,
// uploads and audit trail.
func (s *ClaimProcessingService) GetClaimDetail(ctx context.Context, claimID string) (*ClaimDetail, error) {
	exists, err := s.deps.Claims.Exists(ctx, claimID)
	if err != nil {
		return nil, collaboratorFailure(err, "checking claim %s", claimID)
	}
	if !exists {
		return nil, notFound("claim %s not found", claimID)
	}

	claim, err := s.deps.Claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, collaboratorFailure(err, "loading claim %s", claimID)
	}
	detail := &ClaimDetail{Claim: claim}

	if detail.Items, err = s.deps.Items.GetByClaimID(ctx, claimID); err != nil {
		return nil, collaboratorFailure(err, "loading items for claim %s", claimID)
	}
	if detail.Issues, err = s.deps.Issues.GetByClaimID(ctx, claimID); err != nil {
		return nil, collaboratorFailure(err, "loading issues for claim %s", claimID)
	}
	if detail.Indicators, err = s.deps.Indicators.GetByClaimID(ctx, claimID); err != nil {
		return nil, collaboratorFailure(err, "loading fraud indicators for claim %s", claimID)
	}
	if s.deps.Uploads != nil {
		if detail.Uploads, err = s.deps.Uploads.GetByClaimID(ctx, claimID); err != nil {
			return nil, collaboratorFailure(err, "loading documents for claim %s", claimID)
		}
	}
	if s.deps.Audit != nil {
		if detail.AuditTrail, err = s.deps.Audit.GetByClaimID(ctx, claimID); err != nil {
			return nil, collaboratorFailure(err, "loading audit trail for claim %s", claimID)
		}
	}
	return detail, nil
}

// GetRecentClaims lists claims created within the window, newest first.
func (s *ClaimProcessingService) GetRecentClaims(ctx context.Context, days, limit int) ([]models.ClaimRow, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.deps.Claims.GetRecent(ctx, days, limit)
	if err != nil {
		return nil, collaboratorFailure(err, "loading recent claims")
	}
	return rows, nil
}

// GetStatistics aggregates decision counts for reporting.
func (s *ClaimProcessingService) GetStatistics(ctx context.Context, policyID, startDate, endDate string) (*models.ClaimStatistics, error) {
	stats, err := s.deps.Claims.GetStatistics(ctx, policyID, startDate, endDate)
	if err != nil {
		return nil, collaboratorFailure(err, "loading claim statistics")
	}
	return stats, nil
}
