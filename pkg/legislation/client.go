// Package legislation is the Legislation Gateway (C3): a REST client for
// the external UK legislation service, a primary/fallback health manager,
// and a change-detection job, following
// original_source/backend/src/yourai/knowledge/lex_rest.py's operation
// list and tarsy's hand-rolled-HTTP-client style (no generic REST-client
// library appears anywhere in the corpus).
package legislation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// DefaultTimeout matches lex_rest.py's _DEFAULT_TIMEOUT.
const DefaultTimeout = 30 * time.Second

// Legislation is a single Act or Statutory Instrument.
type Legislation struct {
	ID                  string    `json:"id"`
	URI                 string    `json:"uri"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Type                string    `json:"type"`
	Year                int       `json:"year"`
	Number              int       `json:"number"`
	Status              string    `json:"status"`
	NumberOfProvisions  int       `json:"number_of_provisions"`
	Text                string    `json:"text,omitempty"`
	EnactmentDate       *time.Time `json:"enactment_date,omitempty"`
	Extent              []string  `json:"extent,omitempty"`
}

// Section is a single provision within a piece of legislation.
type Section struct {
	ID                string   `json:"id"`
	URI               string   `json:"uri"`
	LegislationID     string   `json:"legislation_id"`
	Number            *int     `json:"number,omitempty"`
	LegislationType   string   `json:"legislation_type"`
	LegislationYear   int      `json:"legislation_year"`
	LegislationNumber int      `json:"legislation_number"`
	Text              string   `json:"text,omitempty"`
	Title             string   `json:"title,omitempty"`
	Extent            []string `json:"extent,omitempty"`
	ProvisionType     string   `json:"provision_type,omitempty"`
}

// IsHistorical reports whether the parent Act predates 1963, per
// spec.md §4.3's "pre-1963 historical flag".
func (s Section) IsHistorical() bool {
	return s.LegislationYear < 1963
}

// FullText is the complete text content of a piece of legislation.
type FullText struct {
	Legislation Legislation `json:"legislation"`
	FullText    string      `json:"full_text"`
}

// Amendment links affecting and changed legislation.
type Amendment struct {
	ID                  string `json:"id"`
	ChangedLegislation  string `json:"changed_legislation"`
	ChangedYear         int    `json:"changed_year"`
	ChangedNumber       string `json:"changed_number"`
	ChangedURL          string `json:"changed_url"`
	AffectingURL        string `json:"affecting_url"`
	AffectingLegislation string `json:"affecting_legislation,omitempty"`
	TypeOfEffect        string `json:"type_of_effect,omitempty"`
}

// ExplanatoryNote is an explanatory note for a piece of legislation.
type ExplanatoryNote struct {
	ID            string   `json:"id"`
	LegislationID string   `json:"legislation_id"`
	Text          string   `json:"text"`
	Route         []string `json:"route,omitempty"`
	Order         int      `json:"order"`
	NoteType      string   `json:"note_type,omitempty"`
	SectionType   string   `json:"section_type,omitempty"`
	SectionNumber *int     `json:"section_number,omitempty"`
}

// SearchResponse is the paginated envelope for legislation search.
// Upstream responses are schema-tolerant per spec.md §4.4's
// "Interpretation of upstream responses": alongside the standard
// {total, results} search envelope, the legislation service may answer
// a citation check with a bare verification-style payload
// ({"verified": true}, {"found": true}, or {"exists": true}) carrying
// none of the search fields. Both shapes decode into this one struct;
// unknown/absent fields default to their zero value rather than erroring.
type SearchResponse struct {
	Results  []map[string]any `json:"results"`
	Total    int              `json:"total"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
	Verified bool             `json:"verified,omitempty"`
	Found    bool             `json:"found,omitempty"`
	Exists   bool             `json:"exists,omitempty"`
}

// Success reports whether the response indicates the queried item
// exists, tolerating either the standard search envelope or a
// verification-style boolean payload, per spec.md §4.4.
func (r SearchResponse) Success() bool {
	return r.Total >= 1 || len(r.Results) > 0 || r.Verified || r.Found || r.Exists
}

// Stats is the live dataset statistics response.
type Stats map[string]any

// SearchLegislationParams narrows a legislation search.
type SearchLegislationParams struct {
	Query              string
	YearFrom, YearTo   *int
	LegislationType    []string
	Offset, Limit      int
	IncludeText        bool
}

// SearchSectionsParams narrows a section search.
type SearchSectionsParams struct {
	Query               string
	LegislationID       string
	LegislationCategory []string
	LegislationType     []string
	YearFrom, YearTo    *int
	Offset, Size        int
	IncludeText         bool
}

// Client is a REST client for one legislation-service endpoint. Every
// operation is a POST with a JSON body, matching the Lex API convention
// (lex_rest.py's docstring), except health_check/get_stats which are
// GET.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client bound to baseURL, with timeout defaulting
// to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: trimTrailingSlash(baseURL), http: &http.Client{Timeout: timeout}}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// SearchLegislation searches Acts and Statutory Instruments by title,
// content, or metadata.
func (c *Client) SearchLegislation(ctx context.Context, p SearchLegislationParams) (*SearchResponse, error) {
	body := map[string]any{
		"query":        p.Query,
		"offset":       p.Offset,
		"limit":        orDefault(p.Limit, 10),
		"include_text": p.IncludeText,
	}
	if p.YearFrom != nil {
		body["year_from"] = *p.YearFrom
	}
	if p.YearTo != nil {
		body["year_to"] = *p.YearTo
	}
	if p.LegislationType != nil {
		body["legislation_type"] = p.LegislationType
	}
	var out SearchResponse
	if err := c.post(ctx, "/legislation/search", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupLegislation retrieves a single Act or SI by citation.
func (c *Client) LookupLegislation(ctx context.Context, legislationType string, year, number int) (*Legislation, error) {
	body := map[string]any{"legislation_type": legislationType, "year": year, "number": number}
	var out Legislation
	if err := c.post(ctx, "/legislation/lookup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLegislationSections gets all sections for a specific piece of
// legislation.
func (c *Client) GetLegislationSections(ctx context.Context, legislationID string, limit int) ([]Section, error) {
	body := map[string]any{"legislation_id": legislationID, "limit": orDefault(limit, 10)}
	var out []Section
	if err := c.post(ctx, "/legislation/section/lookup", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLegislationFullText gets the complete text content of a piece of
// legislation.
func (c *Client) GetLegislationFullText(ctx context.Context, legislationID string, includeSchedules bool) (*FullText, error) {
	body := map[string]any{"legislation_id": legislationID, "include_schedules": includeSchedules}
	var out FullText
	if err := c.post(ctx, "/legislation/text", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchLegislationSections finds text within legislation sections.
func (c *Client) SearchLegislationSections(ctx context.Context, p SearchSectionsParams) ([]Section, error) {
	body := map[string]any{
		"query":        p.Query,
		"offset":       p.Offset,
		"size":         orDefault(p.Size, 10),
		"include_text": p.IncludeText,
	}
	if p.LegislationID != "" {
		body["legislation_id"] = p.LegislationID
	}
	if p.LegislationCategory != nil {
		body["legislation_category"] = p.LegislationCategory
	}
	if p.LegislationType != nil {
		body["legislation_type"] = p.LegislationType
	}
	if p.YearFrom != nil {
		body["year_from"] = *p.YearFrom
	}
	if p.YearTo != nil {
		body["year_to"] = *p.YearTo
	}
	var out []Section
	if err := c.post(ctx, "/legislation/section/search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchAmendments searches amendments by affected legislation.
func (c *Client) SearchAmendments(ctx context.Context, legislationID string, searchAmended bool, size int) ([]Amendment, error) {
	body := map[string]any{"legislation_id": legislationID, "search_amended": searchAmended, "size": orDefault(size, 100)}
	var out []Amendment
	if err := c.post(ctx, "/amendment/search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchAmendmentSections searches within amendment sections.
func (c *Client) SearchAmendmentSections(ctx context.Context, provisionID string, searchAmended bool, size int) ([]Amendment, error) {
	body := map[string]any{"provision_id": provisionID, "search_amended": searchAmended, "size": orDefault(size, 100)}
	var out []Amendment
	if err := c.post(ctx, "/amendment/section/search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchExplanatoryNotes finds explanatory notes by text content.
func (c *Client) SearchExplanatoryNotes(ctx context.Context, query, legislationID string, size int) ([]ExplanatoryNote, error) {
	body := map[string]any{"query": query, "size": orDefault(size, 20)}
	if legislationID != "" {
		body["legislation_id"] = legislationID
	}
	var out []ExplanatoryNote
	if err := c.post(ctx, "/explanatory_note/section/search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetExplanatoryNotesByLegislation gets explanatory notes for a specific
// piece of legislation.
func (c *Client) GetExplanatoryNotesByLegislation(ctx context.Context, legislationID string, limit int) ([]ExplanatoryNote, error) {
	body := map[string]any{"legislation_id": legislationID, "limit": orDefault(limit, 1000)}
	var out []ExplanatoryNote
	if err := c.post(ctx, "/explanatory_note/legislation/lookup", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetExplanatoryNoteBySection gets the explanatory note for a specific
// section.
func (c *Client) GetExplanatoryNoteBySection(ctx context.Context, legislationID string, sectionNumber int) (*ExplanatoryNote, error) {
	body := map[string]any{"legislation_id": legislationID, "section_number": sectionNumber}
	var out ExplanatoryNote
	if err := c.post(ctx, "/explanatory_note/section/lookup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthCheck checks the health of the legislation service.
func (c *Client) HealthCheck(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "/healthcheck", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats gets live dataset statistics.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.get(ctx, "/api/stats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return ierrors.Internal("build legislation request", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return ierrors.Internal("marshal legislation request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return ierrors.Internal("build legislation request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return ierrors.UpstreamTransient("legislation service", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierrors.UpstreamTransient("legislation service", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return ierrors.NotFound("legislation resource", req.URL.Path)
		}
		return ierrors.UpstreamService("legislation service", fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ierrors.UpstreamService("legislation service", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
