package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAll_Legislation(t *testing.T) {
	citations := ExtractAll("The Housing Act 1985, s.8(1) defines the landlord condition.")
	require.Len(t, citations, 1)
	c := citations[0]
	assert.Equal(t, CitationLegislation, c.Type)
	assert.Equal(t, "Housing Act 1985, s.8(1)", c.Text)
	assert.Equal(t, "Housing Act 1985", c.ActName)
	assert.Equal(t, "8", c.Section)
	assert.Equal(t, "1", c.Subsection)
}

func TestExtractAll_StripsLeadingConnectives(t *testing.T) {
	cases := []string{
		"The Housing Act 1985 applies.",
		"According to the Housing Act 1985 applies.",
		"Under the Housing Act 1985 applies.",
	}
	for _, text := range cases {
		citations := ExtractAll(text)
		require.Len(t, citations, 1, text)
		assert.Equal(t, "Housing Act 1985", citations[0].ActName, text)
	}
}

func TestExtractAll_CaseLaw(t *testing.T) {
	citations := ExtractAll("As established in R v Smith [2020] EWCA Crim 123, the test applies.")
	require.Len(t, citations, 1)
	c := citations[0]
	assert.Equal(t, CitationCaseLaw, c.Type)
	assert.Equal(t, "R v Smith", c.CaseName)
	assert.Equal(t, "[2020] EWCA Crim 123", c.NeutralCitation)
	assert.Equal(t, "R v Smith [2020] EWCA Crim 123", c.Text)
}

func TestExtractAll_Policy(t *testing.T) {
	citations := ExtractAll("See the Housing Allocation Policy, Section 3 for details.")
	require.Len(t, citations, 1)
	c := citations[0]
	assert.Equal(t, CitationPolicy, c.Type)
	assert.Equal(t, "Housing Allocation Policy", c.DocumentName)
	assert.Equal(t, "Section 3", c.Section)
	assert.Equal(t, "Housing Allocation Policy, Section 3", c.Text)
}

func TestExtractAll_Mixed(t *testing.T) {
	text := "Housing Act 1985, s.8(1) and Housing Act 1985, s.999 and R v Smith [2020] EWCA Crim 123 are relevant."
	citations := ExtractAll(text)
	require.Len(t, citations, 3)
	assert.Equal(t, CitationLegislation, citations[0].Type)
	assert.Equal(t, CitationLegislation, citations[1].Type)
	assert.Equal(t, CitationCaseLaw, citations[2].Type)
}

func TestExtractAll_NoCitations(t *testing.T) {
	assert.Empty(t, ExtractAll("This text cites nothing in particular."))
}
