// Package verification implements C4: extracting legal citations from
// generated assistant text and checking each against the legislation
// gateway, producing a closed verified/unverified/removed outcome per
// citation.
package verification

import (
	"regexp"
	"strings"
)

// CitationType identifies which of the three citation kinds a citation
// is. Grounded on original_source/agents/verification.py's
// ExtractedCitation.citation_type string literals.
type CitationType string

const (
	CitationLegislation CitationType = "legislation"
	CitationCaseLaw     CitationType = "case_law"
	CitationPolicy      CitationType = "policy"
)

// Citation is a single citation found in response text, with
// type-specific fields populated depending on CitationType.
type Citation struct {
	Text             string
	Type             CitationType
	ActName          string
	Section          string
	Subsection       string
	CaseName         string
	NeutralCitation  string
	DocumentName     string
}

var (
	// Matches "Housing Act 1985, s.8(1)" or "Data Protection Act 2018, s.45".
	legislationPattern = regexp.MustCompile(
		`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*\s+Act\s+\d{4})` +
			`(?:,\s*s\.(\d+[A-Z]?)` +
			`(?:\((\d+[a-z]?)\))?)?`,
	)

	// Matches "R v Smith [2020] EWCA Crim 123".
	caseLawPattern = regexp.MustCompile(
		`([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]+)*\s+v\s+[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)` +
			`\s+\[(\d{4})\]\s+` +
			`([A-Z]+(?:\s+[A-Z][a-z]+)?)\s+` +
			`(\d+)`,
	)

	// Matches "Housing Allocation Policy, Section 3".
	policyPattern = regexp.MustCompile(
		`([A-Z][A-Za-z]+(?:\s+[A-Za-z]+)*\s+Policy)` +
			`(?:,\s*(Section\s+[\w\d]+))?`,
	)
)

// leadingConnectives are stripped, repeatedly and ignoring case, from the
// front of a captured name so citation text reflects the literal
// authority name rather than the sentence that introduced it.
var leadingConnectives = []string{
	"The ",
	"A ",
	"An ",
	"See ",
	"According to the ",
	"Under the ",
	"As established in ",
	"As ",
	"In ",
	"From ",
}

func stripLeadingConnective(s string) string {
	for {
		stripped := false
		for _, prefix := range leadingConnectives {
			if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
				s = s[len(prefix):]
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// ExtractAll extracts every legislation, case-law, and policy citation
// from text, in the order each pattern's matches occur. Grounded on
// original_source/agents/verification.py::CitationExtractor.extract_all.
func ExtractAll(text string) []Citation {
	var citations []Citation

	for _, m := range legislationPattern.FindAllStringSubmatch(text, -1) {
		actName := stripLeadingConnective(m[1])
		section := m[2]
		subsection := m[3]

		citationText := actName
		if section != "" {
			citationText += ", s." + section
			if subsection != "" {
				citationText += "(" + subsection + ")"
			}
		}

		citations = append(citations, Citation{
			Text:       citationText,
			Type:       CitationLegislation,
			ActName:    actName,
			Section:    section,
			Subsection: subsection,
		})
	}

	for _, m := range caseLawPattern.FindAllStringSubmatch(text, -1) {
		caseName := stripLeadingConnective(m[1])
		year, court, number := m[2], m[3], m[4]
		neutral := "[" + year + "] " + court + " " + number

		citations = append(citations, Citation{
			Text:            caseName + " " + neutral,
			Type:            CitationCaseLaw,
			CaseName:        caseName,
			NeutralCitation: neutral,
		})
	}

	for _, m := range policyPattern.FindAllStringSubmatch(text, -1) {
		docName := stripLeadingConnective(m[1])
		section := m[2]

		citationText := docName
		if section != "" {
			citationText += ", " + section
		}

		citations = append(citations, Citation{
			Text:         citationText,
			Type:         CitationPolicy,
			DocumentName: docName,
			Section:      section,
		})
	}

	return citations
}
