package models

import "time"

// Priority is the importance tier of a compliance criterion.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PolicyDefinitionGroup and PolicyDefinitionTopic are tenant-scoped
// labels attached to policy definitions.
type PolicyDefinitionGroup struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

type PolicyDefinitionTopic struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

// PolicyDefinitionStatus is the lifecycle state of a definition.
type PolicyDefinitionStatus string

const (
	PolicyDefinitionPending  PolicyDefinitionStatus = "pending"
	PolicyDefinitionActive   PolicyDefinitionStatus = "active"
	PolicyDefinitionDisabled PolicyDefinitionStatus = "disabled"
	PolicyDefinitionDeleted  PolicyDefinitionStatus = "deleted"
)

// ComplianceCriterion is one named requirement a policy review evaluates
// the uploaded document against.
type ComplianceCriterion struct {
	Name         string   `json:"name"`
	Priority     Priority `json:"priority"`
	Description  string   `json:"description"`
	CriteriaType string   `json:"criteria_type"`
}

// ScoringCriterion carries textual rating thresholds for a criterion.
type ScoringCriterion struct {
	Name         string `json:"name"`
	GreenThreshold string `json:"green_threshold"`
	AmberThreshold string `json:"amber_threshold"`
	RedThreshold   string `json:"red_threshold"`
}

// PolicyDefinition is unique by (tenant, URI).
type PolicyDefinition struct {
	ID                  string                  `json:"id"`
	TenantID            string                  `json:"tenant_id"`
	URI                 string                  `json:"uri"`
	Name                string                  `json:"name"`
	NameVariants        []string                `json:"name_variants,omitempty"`
	Status              PolicyDefinitionStatus  `json:"status"`
	GroupID             string                  `json:"group_id,omitempty"`
	TopicIDs            []string                `json:"topic_ids,omitempty"`
	RequiredSections    []string                `json:"required_sections"`
	ComplianceCriteria  []ComplianceCriterion   `json:"compliance_criteria"`
	ScoringCriteria     []ScoringCriterion      `json:"scoring_criteria"`
	LegislationReferences []string              `json:"legislation_references,omitempty"`
	ReviewCycle         string                  `json:"review_cycle,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// ValidStatusTransition reports whether a policy-definition status
// transition from `from` to `to` is legal; it delegates to the shared
// GenericStatus transition table since the two enums share the same
// lifecycle shape.
func ValidStatusTransition(from, to PolicyDefinitionStatus) bool {
	return ValidGenericTransition(GenericStatus(from), GenericStatus(to))
}
