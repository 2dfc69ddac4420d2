package agent

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/retrieval"
)

// LegislationSource is the subset of *legislation.Client the knowledge
// workers depend on, kept narrow so tests can substitute a fake.
type LegislationSource interface {
	SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error)
	SearchLegislationSections(ctx context.Context, p legislation.SearchSectionsParams) ([]legislation.Section, error)
}

// legislationTopActs is the number of distinct Acts the legislation
// worker enriches with section-level excerpts, per
// original_source/agents/orchestrator.py's "top 3 acts" enrichment
// rule: a broad Act-title search returns many hits, but only the
// highest-ranked few are worth the extra section lookup round-trip.
const legislationTopActs = 3

// knowledgeResultLimit bounds how many sources each worker contributes,
// keeping the assembled system prompt a bounded size regardless of how
// many hits a search returns.
const knowledgeResultLimit = 5

// Workers runs the parallel knowledge-retrieval stage: one goroutine per
// source category named in a RouterDecision, following
// original_source/agents/orchestrator.py::AgentOrchestrator's
// parallel-worker fan-out (asyncio.gather over source-specific
// coroutines, adapted to goroutines + sync.WaitGroup).
type Workers struct {
	retrieval   *retrieval.Service
	legislation LegislationSource
	logger      *slog.Logger
}

// NewWorkers constructs a Workers bound to the retrieval core and
// legislation gateway.
func NewWorkers(retrievalSvc *retrieval.Service, legislationSource LegislationSource) *Workers {
	return &Workers{retrieval: retrievalSvc, legislation: legislationSource, logger: slog.With("component", "agent.workers")}
}

// Retrieve runs every worker named in decision.Sources concurrently and
// assembles their output into one KnowledgeContext. A single worker's
// failure does not fail the others: it is logged and that worker
// simply contributes no sources, mirroring the tolerant-degradation
// behaviour spec.md §4.5 requires of the orchestrator stage.
func (w *Workers) Retrieve(ctx context.Context, tenantID, query string, decision *RouterDecision) *KnowledgeContext {
	kc := &KnowledgeContext{}
	if decision == nil {
		return kc
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, src := range decision.Sources {
		switch src {
		case SourceInternalPolicies:
			wg.Add(1)
			go func() {
				defer wg.Done()
				sources := w.internalPolicies(ctx, tenantID, query)
				mu.Lock()
				kc.PolicySources = append(kc.PolicySources, sources...)
				mu.Unlock()
			}()
		case SourceUKLegislation:
			wg.Add(1)
			go func() {
				defer wg.Done()
				sources := w.ukLegislation(ctx, query)
				mu.Lock()
				kc.LegislationSources = append(kc.LegislationSources, sources...)
				mu.Unlock()
			}()
		case SourceCaseLaw:
			wg.Add(1)
			go func() {
				defer wg.Done()
				sources := w.caseLaw()
				mu.Lock()
				kc.CaseLawSources = append(kc.CaseLawSources, sources...)
				mu.Unlock()
			}()
		}
	}
	wg.Wait()
	return kc
}

func (w *Workers) internalPolicies(ctx context.Context, tenantID, query string) []KnowledgeSource {
	results, err := w.retrieval.HybridSearch(ctx, retrieval.Query{
		Text:     query,
		TenantID: tenantID,
		Filter:   retrieval.Filter{Categories: []string{"policy"}},
		Limit:    knowledgeResultLimit,
	})
	if err != nil {
		w.logger.Warn("internal policy search failed", "error", err)
		return nil
	}

	out := make([]KnowledgeSource, 0, len(results))
	for _, r := range results {
		out = append(out, KnowledgeSource{
			Kind:       "policy",
			PolicyName: r.DocumentName,
			DocURI:     r.DocumentURI,
			Content:    r.Content,
			Score:      r.Score,
		})
	}
	return out
}

func (w *Workers) ukLegislation(ctx context.Context, query string) []KnowledgeSource {
	resp, err := w.legislation.SearchLegislation(ctx, legislation.SearchLegislationParams{
		Query: query,
		Limit: legislationTopActs,
	})
	if err != nil {
		w.logger.Warn("legislation search failed", "error", err)
		return nil
	}

	out := make([]KnowledgeSource, 0, len(resp.Results))
	for i, row := range resp.Results {
		legID, _ := row["id"].(string)
		title, _ := row["title"].(string)
		year := intFromAny(row["year"])
		uri, _ := row["uri"].(string)

		out = append(out, KnowledgeSource{
			Kind:       "legislation",
			ActName:    title,
			Year:       year,
			DocURI:     uri,
			Historical: year > 0 && year < 1963,
		})

		if legID == "" || i >= legislationTopActs {
			continue
		}
		sections, err := w.legislation.SearchLegislationSections(ctx, legislation.SearchSectionsParams{
			Query:         query,
			LegislationID: legID,
			Size:          2,
		})
		if err != nil {
			w.logger.Warn("legislation section search failed", "legislation_id", legID, "error", err)
			continue
		}
		for _, s := range sections {
			out = append(out, KnowledgeSource{
				Kind:       "legislation",
				ActName:    title,
				Year:       year,
				Section:    sectionLabel(s),
				Content:    s.Text,
				DocURI:     s.URI,
				Historical: year > 0 && year < 1963,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > knowledgeResultLimit {
		out = out[:knowledgeResultLimit]
	}
	return out
}

// caseLaw is a gated no-op: the legislation gateway exposes no case-law
// search capability (the same gap pkg/verification.verifyCaseLaw
// isolates), so the worker always returns nothing rather than guessing.
func (w *Workers) caseLaw() []KnowledgeSource {
	return nil
}

func sectionLabel(s legislation.Section) string {
	if s.Title != "" {
		return s.Title
	}
	if s.Number != nil {
		return "s." + strconv.Itoa(*s.Number)
	}
	return ""
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
