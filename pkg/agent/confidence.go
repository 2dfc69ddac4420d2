package agent

import (
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/verification"
)

// ScoreConfidence derives a ConfidenceLevel from a citation verification
// Result, grounded on original_source/agents/invocation.py's
// _compute_confidence: any removed citation caps confidence at low
// (an assertion the model made was actively contradicted); otherwise a
// high verified-ratio with at least one checked citation is high;
// everything else, including the no-citations case, is medium.
func ScoreConfidence(r verification.Result) models.ConfidenceLevel {
	if r.CitationsRemoved > 0 {
		return models.ConfidenceLow
	}
	if r.CitationsChecked > 0 {
		ratio := float64(r.CitationsVerified) / float64(r.CitationsChecked)
		if ratio >= 0.8 {
			return models.ConfidenceHigh
		}
	}
	return models.ConfidenceMedium
}

// ToModelVerification converts a verification.Result into the persisted
// models.VerificationResult shape attached to a Message.
func ToModelVerification(r verification.Result) *models.VerificationResult {
	citations := make([]models.VerifiedCitation, 0, len(r.VerifiedCitations))
	for _, c := range r.VerifiedCitations {
		citations = append(citations, models.VerifiedCitation{
			Text:   c.CitationText,
			Type:   string(c.CitationType),
			Status: string(c.VerificationStatus),
		})
	}
	return &models.VerificationResult{
		Extracted:  r.CitationsChecked,
		Verified:   r.CitationsVerified,
		Unverified: r.CitationsUnverified,
		Removed:    r.CitationsRemoved,
		Issues:     r.Issues,
		Citations:  citations,
	}
}
