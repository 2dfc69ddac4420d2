package models

import "time"

// Rating is the red/amber/green rollup used across criteria and the
// overall review result.
type Rating string

const (
	RatingRed   Rating = "red"
	RatingAmber Rating = "amber"
	RatingGreen Rating = "green"
)

// PolicyReviewState is the lifecycle state of a PolicyReview.
type PolicyReviewState string

const (
	PolicyReviewPending    PolicyReviewState = "pending"
	PolicyReviewProcessing PolicyReviewState = "processing"
	PolicyReviewComplete   PolicyReviewState = "complete"
	PolicyReviewCancelled  PolicyReviewState = "cancelled"
	PolicyReviewError      PolicyReviewState = "error"
)

// CriterionResult is the evaluator's verdict for a single compliance
// criterion.
type CriterionResult struct {
	Criterion      ComplianceCriterion `json:"criterion"`
	Rating         Rating              `json:"rating"`
	Evidence       string              `json:"evidence,omitempty"`
	Recommendation string              `json:"recommendation,omitempty"`
}

// GapSeverity classifies a gap found during gap analysis.
type GapSeverity string

const (
	GapCritical  GapSeverity = "critical"
	GapImportant GapSeverity = "important"
)

// Gap is a single missing-section or red-criterion finding.
type Gap struct {
	Description string      `json:"description"`
	Severity    GapSeverity `json:"severity"`
}

// ActionPriority classifies a recommended action.
type ActionPriority string

const (
	ActionCritical  ActionPriority = "critical"
	ActionImportant ActionPriority = "important"
	ActionAdvisory  ActionPriority = "advisory"
)

// Action is a recommended remediation derived from a non-green
// criterion's recommendation text.
type Action struct {
	Description string         `json:"description"`
	Priority    ActionPriority `json:"priority"`
}

// PolicyReviewResult is the assembled outcome of a completed review.
type PolicyReviewResult struct {
	Overall            Rating            `json:"overall"`
	Criteria           []CriterionResult `json:"criteria"`
	Gaps               []Gap             `json:"gaps"`
	RecommendedActions []Action          `json:"recommended_actions"`
	Summary            string            `json:"summary"`
	Confidence         string            `json:"confidence"`
	Error              string            `json:"error,omitempty"`
}

// PolicyReview is tenant-scoped and belongs to a user.
type PolicyReview struct {
	ID                 string              `json:"id"`
	TenantID           string              `json:"tenant_id"`
	UserID             string              `json:"user_id"`
	PolicyDefinitionID string              `json:"policy_definition_id,omitempty"`
	Source             string              `json:"source"`
	State              PolicyReviewState   `json:"state"`
	Result             *PolicyReviewResult `json:"result,omitempty"`
	Version            int                 `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Cancellable reports whether the review is in a state from which a
// cancel request is honoured (pending or processing).
func (r *PolicyReview) Cancellable() bool {
	return r.State == PolicyReviewPending || r.State == PolicyReviewProcessing
}
