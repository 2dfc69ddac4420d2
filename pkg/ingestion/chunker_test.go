package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowChunker_FixedSizeSmallDocumentIsOneChunk(t *testing.T) {
	c := NewSlidingWindowChunker(400, 600, 50)
	chunks := c.Chunk("a short document with very few words", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSlidingWindowChunker_FixedSizeSplitsLongDocumentWithOverlap(t *testing.T) {
	c := NewSlidingWindowChunker(10, 12, 3)
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	chunks := c.Chunk(strings.Join(words, " "), nil)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestSlidingWindowChunker_StructureAwareUsesSectionHeadings(t *testing.T) {
	c := NewSlidingWindowChunker(400, 600, 50)
	sections := []Section{
		{Heading: "Section 1", Content: "first section body"},
		{Heading: "Section 2", Content: "second section body"},
	}
	chunks := c.Chunk("ignored when sections are meaningful", sections)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Section 1", chunks[0].SectionHeading)
	assert.Equal(t, "Section 2", chunks[1].SectionHeading)
}

func TestSlidingWindowChunker_EmptyTextProducesNoChunks(t *testing.T) {
	c := NewSlidingWindowChunker(400, 600, 50)
	assert.Empty(t, c.Chunk("   ", nil))
}

func TestSlidingWindowChunker_OversizedSectionIsSplit(t *testing.T) {
	c := NewSlidingWindowChunker(5, 6, 1)
	words := make([]string, 20)
	for i := range words {
		words[i] = "term"
	}
	sections := []Section{
		{Heading: "Big", Content: strings.Join(words, " ")},
		{Heading: "Small", Content: "short body"},
	}
	chunks := c.Chunk("", sections)
	require.Greater(t, len(chunks), 2)
}
