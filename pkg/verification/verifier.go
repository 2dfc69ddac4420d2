package verification

import (
	"context"
	"strings"

	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/metrics"
)

// Status is the closed three-way verification outcome for a citation,
// per spec.md §4.4.
type Status string

const (
	StatusVerified   Status = "verified"
	StatusUnverified Status = "unverified"
	StatusRemoved    Status = "removed"
)

// VerifiedCitation is a single citation's verification outcome.
type VerifiedCitation struct {
	CitationText      string
	CitationType      CitationType
	VerificationStatus Status
	ConfidenceScore   float64
	ErrorMessage      string
}

// Result is the aggregate outcome of verifying every citation found in
// a piece of response text.
type Result struct {
	CitationsChecked    int
	CitationsVerified   int
	CitationsUnverified int
	CitationsRemoved    int
	VerifiedCitations   []VerifiedCitation
	Issues              []string
}

// LegislationSearcher is the subset of *legislation.Client the verifier
// depends on, so callers can inject a test double without standing up
// an HTTP server.
type LegislationSearcher interface {
	SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error)
}

// Verifier checks extracted citations against the legislation gateway.
// Grounded on original_source/agents/verification.py::CitationVerificationAgent
// for the per-type branching and outcome taxonomy, and on
// agents/invocation.py::_verify_citations_rest for the REST-backed,
// act-name-deduplicated lookup strategy.
type Verifier struct {
	legislation LegislationSearcher
	metrics     *metrics.Registry
}

// NewVerifier constructs a Verifier backed by the given legislation
// search client.
func NewVerifier(searcher LegislationSearcher) *Verifier {
	return &Verifier{legislation: searcher}
}

// SetMetrics attaches a metrics.Registry so every verification outcome
// is counted by status. Optional; a Verifier with no metrics attached
// simply skips instrumentation.
func (v *Verifier) SetMetrics(m *metrics.Registry) {
	v.metrics = m
}

// VerifyResponse extracts and verifies every citation in responseText.
// Per-citation lookups are deduplicated by lowercased act name: within
// one call, each distinct legislation act incurs at most one lookup.
func (v *Verifier) VerifyResponse(ctx context.Context, responseText string) Result {
	extracted := ExtractAll(responseText)
	if len(extracted) == 0 {
		return Result{}
	}

	actCache := make(map[string]VerifiedCitation)
	verified := make([]VerifiedCitation, 0, len(extracted))
	var issues []string

	for _, c := range extracted {
		var result VerifiedCitation

		switch c.Type {
		case CitationLegislation:
			actKey := strings.ToLower(strings.TrimSpace(c.ActName))
			if cached, ok := actCache[actKey]; ok {
				result = cached
				result.CitationText = c.Text
			} else {
				result = v.verifyLegislation(ctx, c)
				actCache[actKey] = result
			}
		case CitationCaseLaw:
			result = v.verifyCaseLaw(c)
		case CitationPolicy:
			result = v.verifyPolicy(c)
		default:
			result = VerifiedCitation{
				CitationText:       c.Text,
				CitationType:       c.Type,
				VerificationStatus: StatusUnverified,
				ConfidenceScore:    0,
				ErrorMessage:       "unknown citation type",
			}
		}

		verified = append(verified, result)
		if result.VerificationStatus == StatusUnverified || result.VerificationStatus == StatusRemoved {
			issues = append(issues, result.CitationText+": "+result.ErrorMessage)
		}
	}

	out := Result{
		CitationsChecked:  len(extracted),
		VerifiedCitations: verified,
		Issues:            issues,
	}
	for _, vc := range verified {
		switch vc.VerificationStatus {
		case StatusVerified:
			out.CitationsVerified++
		case StatusUnverified:
			out.CitationsUnverified++
		case StatusRemoved:
			out.CitationsRemoved++
		}
		v.metrics.ObserveVerification(string(vc.VerificationStatus))
	}
	return out
}

// verifyLegislation looks up a legislation citation's act name via the
// gateway. A successful lookup with zero matches means the citation is
// asserted not to exist (removed); a lookup failure (upstream
// transient/service error) means the outcome could not be determined
// (unverified).
func (v *Verifier) verifyLegislation(ctx context.Context, c Citation) VerifiedCitation {
	query := c.ActName
	if query == "" {
		query = c.Text
	}

	resp, err := v.legislation.SearchLegislation(ctx, legislation.SearchLegislationParams{
		Query: query,
		Limit: 1,
	})
	if err != nil {
		return VerifiedCitation{
			CitationText:       c.Text,
			CitationType:       CitationLegislation,
			VerificationStatus: StatusUnverified,
			ConfidenceScore:    0,
			ErrorMessage:       "legislation service error: " + err.Error(),
		}
	}

	if resp.Success() {
		return VerifiedCitation{
			CitationText:       c.Text,
			CitationType:       CitationLegislation,
			VerificationStatus: StatusVerified,
			ConfidenceScore:    1.0,
		}
	}

	return VerifiedCitation{
		CitationText:       c.Text,
		CitationType:       CitationLegislation,
		VerificationStatus: StatusRemoved,
		ConfidenceScore:    0,
		ErrorMessage:       "legislation not found or section does not exist",
	}
}

// verifyCaseLaw is permanently unverified: the legislation service
// exposes no case-law search capability. Isolated in this one function
// per spec.md §9, so a future upstream capability only needs this
// function rewritten.
func (v *Verifier) verifyCaseLaw(c Citation) VerifiedCitation {
	return VerifiedCitation{
		CitationText:       c.Text,
		CitationType:       CitationCaseLaw,
		VerificationStatus: StatusUnverified,
		ConfidenceScore:    0,
		ErrorMessage:       "case law verification not available",
	}
}

// verifyPolicy is unverified: internal policy documents have no
// verification mechanism yet.
func (v *Verifier) verifyPolicy(c Citation) VerifiedCitation {
	return VerifiedCitation{
		CitationText:       c.Text,
		CitationType:       CitationPolicy,
		VerificationStatus: StatusUnverified,
		ConfidenceScore:    0,
		ErrorMessage:       "policy verification not yet implemented",
	}
}
