package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinSkillsReturnsACopy(t *testing.T) {
	skills := BuiltinSkills()
	initialLen := len(skills)
	skills[0].Name = "mutated"

	assert.Equal(t, initialLen, len(BuiltinSkills()))
	assert.NotEqual(t, "mutated", BuiltinSkills()[0].Name)
}

func TestSkillsForDecisionLegislation(t *testing.T) {
	d := &RouterDecision{Intent: "research", Sources: []string{SourceUKLegislation}}
	skills := SkillsForDecision(d)

	assert.Len(t, skills, 1)
	assert.Equal(t, "housing-law-research", skills[0].ID)
}

func TestSkillsForDecisionDedupesAcrossSources(t *testing.T) {
	d := &RouterDecision{Intent: "research", Sources: []string{SourceUKLegislation, SourceCaseLaw}}
	skills := SkillsForDecision(d)

	assert.Len(t, skills, 1)
}

func TestSkillsForDecisionDraftingIntent(t *testing.T) {
	d := &RouterDecision{Intent: "draft an eviction notice letter", Sources: []string{SourceUKLegislation}}
	skills := SkillsForDecision(d)

	ids := make([]string, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	assert.Contains(t, ids, "housing-law-research")
	assert.Contains(t, ids, "tenant-communication-drafting")
}

func TestSkillsForDecisionNilIsEmpty(t *testing.T) {
	assert.Nil(t, SkillsForDecision(nil))
}
