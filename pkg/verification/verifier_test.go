package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldergate-legal/core/pkg/legislation"
)

type fakeSearcher struct {
	calls    int
	byQuery  map[string]int
	verified map[string]bool
	err      error
}

func (f *fakeSearcher) SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.verified[p.Query]; ok {
		return &legislation.SearchResponse{Verified: v, Limit: p.Limit}, nil
	}
	total := f.byQuery[p.Query]
	return &legislation.SearchResponse{Total: total, Limit: p.Limit}, nil
}

func TestVerifyResponse_VerifiedCitation(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]int{"Housing Act 1985": 1}}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "The Housing Act 1985, s.8(1) defines the landlord condition.")

	require.Equal(t, 1, result.CitationsChecked)
	assert.Equal(t, 1, result.CitationsVerified)
	assert.Equal(t, 0, result.CitationsRemoved)
	assert.Equal(t, 0, result.CitationsUnverified)
	require.Len(t, result.VerifiedCitations, 1)
	assert.Equal(t, "Housing Act 1985, s.8(1)", result.VerifiedCitations[0].CitationText)
	assert.Equal(t, StatusVerified, result.VerifiedCitations[0].VerificationStatus)
}

func TestVerifyResponse_BareVerifiedPayloadIsTreatedAsSuccess(t *testing.T) {
	// spec.md §4.4/§8 scenario 1: the legislation service may answer
	// with {"verified": true} instead of the {total, results} envelope.
	searcher := &fakeSearcher{verified: map[string]bool{"Housing Act 1985": true}}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "The Housing Act 1985, s.8(1) defines the landlord condition.")

	require.Equal(t, 1, result.CitationsChecked)
	assert.Equal(t, 1, result.CitationsVerified)
	assert.Equal(t, 0, result.CitationsRemoved)
	assert.Equal(t, 0, result.CitationsUnverified)
	assert.Equal(t, StatusVerified, result.VerifiedCitations[0].VerificationStatus)
}

func TestVerifyResponse_BareVerifiedFalsePayloadIsRemoved(t *testing.T) {
	searcher := &fakeSearcher{verified: map[string]bool{"Housing Act 1985": false}}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "According to the Housing Act 1985, s.999, ...")

	require.Equal(t, 1, result.CitationsChecked)
	assert.Equal(t, 0, result.CitationsVerified)
	assert.Equal(t, 1, result.CitationsRemoved)
}

func TestVerifyResponse_FabricatedCitation(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]int{}}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "According to the Housing Act 1985, s.999, tenants have no such right.")

	require.Equal(t, 1, result.CitationsChecked)
	assert.Equal(t, 0, result.CitationsVerified)
	assert.Equal(t, 1, result.CitationsRemoved)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "Housing Act 1985, s.999")
}

func TestVerifyResponse_MixedCitations(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]int{"Housing Act 1985": 1}}
	v := NewVerifier(searcher)

	text := "Housing Act 1985, s.8(1) and Housing Act 1985, s.999 and R v Smith [2020] EWCA Crim 123 are relevant."
	result := v.VerifyResponse(context.Background(), text)

	require.Equal(t, 3, result.CitationsChecked)
	assert.Equal(t, 2, result.CitationsVerified)
	assert.Equal(t, 1, result.CitationsRemoved)
	// Dedup: both legislation citations share an act name, so only one lookup.
	assert.Equal(t, 1, searcher.calls)
}

func TestVerifyResponse_DedupesByActName(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]int{"Housing Act 1985": 1}}
	v := NewVerifier(searcher)

	text := "Housing Act 1985, s.1 then Housing Act 1985, s.2 then Housing Act 1985, s.3."
	result := v.VerifyResponse(context.Background(), text)

	assert.Equal(t, 3, result.CitationsChecked)
	assert.Equal(t, 3, result.CitationsVerified)
	assert.Equal(t, 1, searcher.calls)
}

func TestVerifyResponse_UpstreamErrorIsUnverifiedNotRemoved(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "The Housing Act 1985, s.8 applies.")

	assert.Equal(t, 0, result.CitationsVerified)
	assert.Equal(t, 0, result.CitationsRemoved)
	assert.Equal(t, 1, result.CitationsUnverified)
}

func TestVerifyResponse_CaseLawAlwaysUnverified(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]int{}}
	v := NewVerifier(searcher)

	result := v.VerifyResponse(context.Background(), "R v Smith [2020] EWCA Crim 123 is binding.")

	require.Equal(t, 1, result.CitationsChecked)
	assert.Equal(t, 0, result.CitationsVerified)
	assert.Equal(t, 1, result.CitationsUnverified)
	assert.Equal(t, 0, searcher.calls)
}

func TestVerifyResponse_NoCitations(t *testing.T) {
	v := NewVerifier(&fakeSearcher{})
	result := v.VerifyResponse(context.Background(), "Nothing to see here.")
	assert.Equal(t, 0, result.CitationsChecked)
	assert.Empty(t, result.VerifiedCitations)
}
