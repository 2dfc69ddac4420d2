package agent

import "strings"

// Skill is a prompt-augmentation fragment the orchestrator can weave
// into the system prompt, grounded on
// original_source/agents/skills.py::Skill and its three builtin
// definitions.
type Skill struct {
	ID           string
	Name         string
	Description  string
	Instructions string
}

// builtinSkills are the three skills original_source ships: housing-law
// research, policy-compliance review, and tenant-communication
// drafting. Tenants may define more of their own in a later iteration;
// for now the registry is the fixed builtin set.
var builtinSkills = []Skill{
	{
		ID:          "housing-law-research",
		Name:        "Housing Law Research",
		Description: "Research UK housing legislation, case law, and statutory guidance",
		Instructions: "When researching housing law, always cite the specific Act and section " +
			"(e.g. \"Housing Act 1985, s.8(1)\"), and note when a provision has been amended or " +
			"superseded. Distinguish between England, Wales, Scotland, and Northern Ireland where " +
			"the law diverges.",
	},
	{
		ID:          "policy-compliance-review",
		Name:        "Policy Compliance Review",
		Description: "Assess internal policy documents against statutory and regulatory requirements",
		Instructions: "When reviewing policy compliance, reference the organisation's internal " +
			"policies by name and section, and cross-check against the legislation that governs " +
			"them. Flag gaps explicitly rather than implying compliance by omission.",
	},
	{
		ID:          "tenant-communication-drafting",
		Name:        "Tenant Communication Drafting",
		Description: "Draft clear, legally accurate communications to tenants",
		Instructions: "When drafting tenant-facing communication, use plain English, avoid legal " +
			"jargon without explanation, and ensure any statutory notice period or right referenced " +
			"is stated accurately and with its source.",
	},
}

// BuiltinSkills returns the fixed builtin skill registry.
func BuiltinSkills() []Skill {
	out := make([]Skill, len(builtinSkills))
	copy(out, builtinSkills)
	return out
}

// SkillsForDecision selects the skills relevant to a RouterDecision's
// declared sources, following original_source's select_skills
// intent-to-skill mapping: legislation queries pull in research,
// internal-policy queries pull in compliance review, and any query
// whose intent mentions a draft, a letter, or a notice pulls in the
// drafting skill.
func SkillsForDecision(d *RouterDecision) []Skill {
	if d == nil {
		return nil
	}
	var selected []Skill
	seen := make(map[string]bool)
	add := func(id string) {
		if seen[id] {
			return
		}
		for _, s := range builtinSkills {
			if s.ID == id {
				selected = append(selected, s)
				seen[id] = true
				return
			}
		}
	}

	for _, src := range d.Sources {
		switch src {
		case SourceUKLegislation, SourceCaseLaw:
			add("housing-law-research")
		case SourceInternalPolicies:
			add("policy-compliance-review")
		}
	}
	intent := strings.ToLower(d.Intent)
	if strings.Contains(intent, "draft") || strings.Contains(intent, "letter") || strings.Contains(intent, "notice") {
		add("tenant-communication-drafting")
	}
	return selected
}
