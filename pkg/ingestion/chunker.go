// Package ingestion covers the minimal slice of the document-ingestion
// pipeline the Retrieval Core needs to have *something* to index: text
// extraction and chunking themselves are out of scope per spec.md §1
// ("document text extraction and chunking pipelines ... are inputs to
// the retrieval core"), but C2 needs a Chunker contract and one concrete
// strategy to exercise document processing end to end. Grounded on
// original_source/backend/src/yourai/knowledge/chunking.py's two
// strategies (structure-aware, fixed-size sliding window) with tiktoken
// token-counting replaced by a whitespace-word approximation, since no
// tokenizer library appears anywhere in the retrieval pack.
package ingestion

import (
	"strings"
)

// Chunk is one piece of a document ready for embedding, grounded on
// chunking.py's Chunk dataclass.
type Chunk struct {
	Content         string
	Index           int
	SectionHeading  string
	WordCount       int
	ByteRangeStart  int
	ByteRangeEnd    int
}

// Section is a heading-delimited piece of a document's structure, as
// produced by an (out-of-scope) text-extraction stage.
type Section struct {
	Heading string
	Content string
}

// Chunker splits document text into indexable chunks.
type Chunker interface {
	Chunk(text string, sections []Section) []Chunk
}

// SlidingWindowChunker is the naive default Chunker: structure-aware
// when sections with headings are supplied, otherwise a fixed-size
// sliding window over whitespace-delimited words with overlap, per
// spec.md §6's chunk target/max/overlap token configuration (here
// measured in words rather than BPE tokens, since the word count is the
// portable proxy available without a tokenizer dependency).
type SlidingWindowChunker struct {
	TargetWords  int
	MaxWords     int
	OverlapWords int
}

// NewSlidingWindowChunker constructs a SlidingWindowChunker from the
// configured token targets (spec.md §6), clamping to sane minimums.
func NewSlidingWindowChunker(targetTokens, maxTokens, overlapTokens int) *SlidingWindowChunker {
	if targetTokens <= 0 {
		targetTokens = 400
	}
	if maxTokens <= targetTokens {
		maxTokens = targetTokens + targetTokens/2
	}
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		overlapTokens = targetTokens / 8
	}
	return &SlidingWindowChunker{TargetWords: targetTokens, MaxWords: maxTokens, OverlapWords: overlapTokens}
}

// Chunk implements Chunker.
func (c *SlidingWindowChunker) Chunk(text string, sections []Section) []Chunk {
	hasHeadings := false
	for _, s := range sections {
		if s.Heading != "" {
			hasHeadings = true
			break
		}
	}
	if len(sections) > 1 && hasHeadings {
		return c.chunkStructureAware(sections)
	}
	return c.chunkFixedSize(text)
}

func (c *SlidingWindowChunker) chunkStructureAware(sections []Section) []Chunk {
	var chunks []Chunk
	index := 0
	byteOffset := 0

	for _, section := range sections {
		content := strings.TrimSpace(section.Content)
		if content == "" && section.Heading == "" {
			continue
		}
		full := content
		if section.Heading != "" && content != "" {
			full = section.Heading + "\n" + content
		} else if section.Heading != "" {
			full = section.Heading
		}

		words := strings.Fields(full)
		if len(words) <= c.MaxWords {
			chunks = append(chunks, c.newChunk(full, index, section.Heading, byteOffset))
			index++
			byteOffset += len(full)
			continue
		}

		for start := 0; start < len(words); {
			end := min(start+c.TargetWords, len(words))
			part := strings.Join(words[start:end], " ")
			chunks = append(chunks, c.newChunk(part, index, section.Heading, byteOffset))
			index++
			byteOffset += len(part)
			advance := max(end-start-c.OverlapWords, 1)
			start += advance
			if end >= len(words) {
				break
			}
		}
	}
	return chunks
}

func (c *SlidingWindowChunker) chunkFixedSize(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	words := strings.Fields(text)
	if len(words) <= c.MaxWords {
		return []Chunk{c.newChunk(text, 0, "", 0)}
	}

	var chunks []Chunk
	index := 0
	byteOffset := 0
	for start := 0; start < len(words); {
		end := min(start+c.TargetWords, len(words))
		part := strings.Join(words[start:end], " ")
		chunks = append(chunks, c.newChunk(part, index, "", byteOffset))
		index++
		byteOffset += len(part)
		advance := max(end-start-c.OverlapWords, 1)
		start += advance
		if end >= len(words) {
			break
		}
	}
	return chunks
}

func (c *SlidingWindowChunker) newChunk(content string, index int, heading string, byteOffset int) Chunk {
	return Chunk{
		Content:        content,
		Index:          index,
		SectionHeading: heading,
		WordCount:      len(strings.Fields(content)),
		ByteRangeStart: byteOffset,
		ByteRangeEnd:   byteOffset + len(content),
	}
}
