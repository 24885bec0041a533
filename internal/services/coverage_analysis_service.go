package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"claims-service/internal/models"
)

// CoverageAnalyzer performs the per-item financial adjudication. Each billable
// item ends up approved, partially approved or rejected, with claimed ==
// approved + rejected + copay holding for every analysis row.
type CoverageAnalyzer struct {
	matcher TestMatcher
}

func NewCoverageAnalyzer(matcher TestMatcher) *CoverageAnalyzer {
	return &CoverageAnalyzer{matcher: matcher}
}

func (a *CoverageAnalyzer) Analyze(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord) models.CoverageAnalysis {
	result := models.CoverageAnalysis{ItemAnalysis: []models.ItemAnalysis{}}
	diagnosis := strings.ToLower(claim.Diagnosis)

	for _, item := range claim.Items {
		if item.Amount <= 0 {
			continue
		}
		analysis := a.analyzeItem(ctx, policy, item, diagnosis)
		result.ItemAnalysis = append(result.ItemAnalysis, analysis)
		result.TotalApproved += analysis.ApprovedAmount
		result.TotalRejected += analysis.RejectedAmount
		result.TotalCopay += analysis.CopayAmount
	}

	result.TotalApproved = round2(result.TotalApproved)
	result.TotalRejected = round2(result.TotalRejected)
	result.TotalCopay = round2(result.TotalCopay)
	return result
}

func (a *CoverageAnalyzer) analyzeItem(ctx context.Context, policy *models.PolicyConfig, item models.LineItem, diagnosis string) models.ItemAnalysis {
	analysis := models.ItemAnalysis{
		Description:   item.Description,
		Category:      item.Category,
		ClaimedAmount: round2(item.Amount),
	}
	desc := strings.ToLower(item.Description)

	if term := matchExclusion(policy.Exclusions, desc, diagnosis); term != "" {
		return rejectItem(analysis, fmt.Sprintf("Matches policy exclusion %q", term))
	}
	if !item.Category.IsValid() {
		return rejectItem(analysis, fmt.Sprintf("Unknown claim category %q", string(item.Category)))
	}
	rule := policy.CoverageDetails.RuleFor(item.Category)
	if rule == nil || !rule.Covered {
		return rejectItem(analysis, fmt.Sprintf("Category %s is not covered", item.Category))
	}

	switch item.Category {
	case models.CategoryConsultation:
		return a.analyzeConsultation(analysis, rule)
	case models.CategoryDiagnostic:
		return a.analyzeDiagnostic(ctx, analysis, rule, desc)
	case models.CategoryPharmacy:
		return a.analyzePharmacy(analysis, rule, desc)
	case models.CategoryDental:
		return a.analyzeDental(analysis, rule, desc)
	case models.CategoryVision:
		return a.analyzeCapped(analysis, rule, "Vision care approved")
	default:
		return a.analyzeAlternative(analysis, rule, desc)
	}
}

// analyzeConsultation is the only handler that caps at the sub-limit instead
// of rejecting outright; copay applies to the payable base.
func (a *CoverageAnalyzer) analyzeConsultation(analysis models.ItemAnalysis, rule *models.CoverageRule) models.ItemAnalysis {
	amount := analysis.ClaimedAmount
	if rule.SubLimit > 0 && amount > rule.SubLimit {
		copay := round2(rule.SubLimit * rule.CopayPercentage / 100)
		analysis.CopayAmount = copay
		analysis.ApprovedAmount = round2(rule.SubLimit - copay)
		analysis.RejectedAmount = round2(amount - rule.SubLimit)
		analysis.SubLimitExceeded = true
		analysis.Status = models.ItemPartial
		analysis.Reason = fmt.Sprintf("Amount exceeds consultation sub-limit of %.2f; approved up to the limit", rule.SubLimit)
		return analysis
	}
	copay := round2(amount * rule.CopayPercentage / 100)
	analysis.CopayAmount = copay
	analysis.ApprovedAmount = round2(amount - copay)
	analysis.Status = models.ItemApproved
	analysis.Reason = fmt.Sprintf("Consultation approved with %.0f%% copay", rule.CopayPercentage)
	return analysis
}

func (a *CoverageAnalyzer) analyzeDiagnostic(ctx context.Context, analysis models.ItemAnalysis, rule *models.CoverageRule, desc string) models.ItemAnalysis {
	if len(rule.CoveredTests) > 0 && !a.testCovered(ctx, desc, rule.CoveredTests) {
		return rejectItem(analysis, "Test is not in the policy's covered test list")
	}
	if rule.SubLimit > 0 && analysis.ClaimedAmount > rule.SubLimit {
		analysis = rejectItem(analysis, fmt.Sprintf("Amount exceeds diagnostic sub-limit of %.2f", rule.SubLimit))
		analysis.SubLimitExceeded = true
		return analysis
	}
	analysis.ApprovedAmount = analysis.ClaimedAmount
	analysis.Status = models.ItemApproved
	analysis.Reason = "Diagnostic test covered in full"
	return analysis
}

func (a *CoverageAnalyzer) analyzePharmacy(analysis models.ItemAnalysis, rule *models.CoverageRule, desc string) models.ItemAnalysis {
	if rule.SubLimit > 0 && analysis.ClaimedAmount > rule.SubLimit {
		analysis = rejectItem(analysis, fmt.Sprintf("Amount exceeds pharmacy sub-limit of %.2f", rule.SubLimit))
		analysis.SubLimitExceeded = true
		return analysis
	}
	if strings.Contains(desc, "generic") {
		analysis.ApprovedAmount = analysis.ClaimedAmount
		analysis.Status = models.ItemApproved
		analysis.Reason = "Generic medication covered in full"
		return analysis
	}
	copay := round2(analysis.ClaimedAmount * rule.BrandedDrugsCopay / 100)
	analysis.CopayAmount = copay
	analysis.ApprovedAmount = round2(analysis.ClaimedAmount - copay)
	analysis.Status = models.ItemApproved
	analysis.Reason = fmt.Sprintf("Branded medication approved with %.0f%% copay", rule.BrandedDrugsCopay)
	return analysis
}

func (a *CoverageAnalyzer) analyzeDental(analysis models.ItemAnalysis, rule *models.CoverageRule, desc string) models.ItemAnalysis {
	if rule.SubLimit > 0 && analysis.ClaimedAmount > rule.SubLimit {
		analysis = rejectItem(analysis, fmt.Sprintf("Amount exceeds dental sub-limit of %.2f", rule.SubLimit))
		analysis.SubLimitExceeded = true
		return analysis
	}
	if len(rule.ProceduresCovered) > 0 && !listMatches(desc, rule.ProceduresCovered) {
		return rejectItem(analysis, "Procedure is not in the policy's covered procedure list")
	}
	analysis.ApprovedAmount = analysis.ClaimedAmount
	analysis.Status = models.ItemApproved
	analysis.Reason = "Dental procedure covered in full"
	return analysis
}

func (a *CoverageAnalyzer) analyzeAlternative(analysis models.ItemAnalysis, rule *models.CoverageRule, desc string) models.ItemAnalysis {
	if len(rule.CoveredTreatments) > 0 && !listMatches(desc, rule.CoveredTreatments) {
		return rejectItem(analysis, "Treatment is not in the policy's covered treatment list")
	}
	if rule.SubLimit > 0 && analysis.ClaimedAmount > rule.SubLimit {
		analysis = rejectItem(analysis, fmt.Sprintf("Amount exceeds alternative medicine sub-limit of %.2f", rule.SubLimit))
		analysis.SubLimitExceeded = true
		return analysis
	}
	analysis.ApprovedAmount = analysis.ClaimedAmount
	analysis.Status = models.ItemApproved
	analysis.Reason = "Alternative medicine treatment covered in full"
	return analysis
}

// analyzeCapped covers categories with no covered-service list.
func (a *CoverageAnalyzer) analyzeCapped(analysis models.ItemAnalysis, rule *models.CoverageRule, approvedReason string) models.ItemAnalysis {
	if rule.SubLimit > 0 && analysis.ClaimedAmount > rule.SubLimit {
		analysis = rejectItem(analysis, fmt.Sprintf("Amount exceeds sub-limit of %.2f", rule.SubLimit))
		analysis.SubLimitExceeded = true
		return analysis
	}
	analysis.ApprovedAmount = analysis.ClaimedAmount
	analysis.Status = models.ItemApproved
	analysis.Reason = approvedReason
	return analysis
}

// testCovered first tries lexical matching against the covered-test list and
// only escalates near misses to the semantic matcher. A matcher failure
// counts as not matched.
func (a *CoverageAnalyzer) testCovered(ctx context.Context, desc string, coveredTests []string) bool {
	if listMatches(desc, coveredTests) {
		return true
	}
	if a.matcher == nil {
		return false
	}
	matched, err := a.matcher.MatchesCoveredTest(ctx, desc, coveredTests)
	if err != nil {
		slog.Warn("semantic test matcher failed, treating as not matched", "description", desc, "error", err)
		return false
	}
	return matched
}

// listMatches reports whether the description matches any list entry by
// substring in either direction or by sharing a significant token.
func listMatches(desc string, entries []string) bool {
	descTokens := tokenize(desc)
	for _, entry := range entries {
		lowered := strings.ToLower(strings.TrimSpace(entry))
		if lowered == "" {
			continue
		}
		if strings.Contains(desc, lowered) || strings.Contains(lowered, desc) {
			return true
		}
		for token := range tokenize(lowered) {
			if descTokens[token] {
				return true
			}
		}
	}
	return false
}

func tokenize(s string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,;:()")
		if len(tok) > 3 {
			tokens[tok] = true
		}
	}
	return tokens
}

func rejectItem(analysis models.ItemAnalysis, reason string) models.ItemAnalysis {
	analysis.ApprovedAmount = 0
	analysis.CopayAmount = 0
	analysis.RejectedAmount = analysis.ClaimedAmount
	analysis.Status = models.ItemRejected
	analysis.Reason = reason
	return analysis
}
