// Package retrieval is the Retrieval Core (C2): Reciprocal Rank Fusion
// over a vector search and a keyword search, enrichment against the
// relational store, and a pluggable reranker, following the shape of
// original_source/backend/src/yourai/knowledge/search.py's
// hybrid_search/rrf_fusion, adapted into Go with tarsy's
// interface-per-dependency style (pkg/llm.Client, pkg/mcp.Client) for
// the embedder/vector-store/keyword-store/reranker seams.
package retrieval

// RRFConstant is the k in `1 / (k + rank)`, matching spec.md §4.2.
const RRFConstant = 60

// RankedChunk is one chunk identifier with its 1-indexed rank in a
// single result list (vector or keyword).
type RankedChunk struct {
	ChunkID string
	Rank    int // 1-indexed
}

// FusedChunk is a chunk identifier with its combined RRF score.
type FusedChunk struct {
	ChunkID string
	Score   float64
}

// Fuse combines any number of ranked result lists via Reciprocal Rank
// Fusion: score(chunk) = Σ 1/(k+rank) over every list the chunk
// appears in. The result is sorted by descending score; ties are
// broken by the order lists were passed in and, within a list, by
// ascending rank — so a chunk ranked in an earlier-passed list wins a
// tie, matching "vector result wins ties in practice" when vector is
// passed first.
func Fuse(k int, lists ...[]RankedChunk) []FusedChunk {
	if k <= 0 {
		k = RRFConstant
	}

	scores := make(map[string]float64)
	firstSeenOrder := make(map[string]int)
	order := 0

	for _, list := range lists {
		for _, rc := range list {
			scores[rc.ChunkID] += 1.0 / float64(k+rc.Rank)
			if _, ok := firstSeenOrder[rc.ChunkID]; !ok {
				firstSeenOrder[rc.ChunkID] = order
				order++
			}
		}
	}

	fused := make([]FusedChunk, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, FusedChunk{ChunkID: id, Score: score})
	}

	sortFusedStable(fused, firstSeenOrder)
	return fused
}

// sortFusedStable sorts by descending score, breaking ties by the
// order a chunk was first encountered across the input lists (earlier
// lists, and earlier ranks within a list, sort first).
func sortFusedStable(fused []FusedChunk, firstSeenOrder map[string]int) {
	// insertion sort is adequate here: result sets are bounded by the
	// configured k (default 200 per list), never large enough to need
	// anything fancier, and stability matters more than asymptotics.
	for i := 1; i < len(fused); i++ {
		j := i
		for j > 0 && less(fused[j], fused[j-1], firstSeenOrder) {
			fused[j], fused[j-1] = fused[j-1], fused[j]
			j--
		}
	}
}

func less(a, b FusedChunk, order map[string]int) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return order[a.ChunkID] < order[b.ChunkID]
}

// RankedFromIDs converts an ordered slice of chunk IDs (as returned by
// a vector or keyword store, best match first) into 1-indexed
// RankedChunk entries.
func RankedFromIDs(ids []string) []RankedChunk {
	ranked := make([]RankedChunk, len(ids))
	for i, id := range ids {
		ranked[i] = RankedChunk{ChunkID: id, Rank: i + 1}
	}
	return ranked
}
