package report

import (
	"strings"
	"testing"
)

func TestChunkShortDocument(t *testing.T) {
	chunker := NewChunker(600, 100)
	chunks := chunker.Chunk("Short report about a company.", false)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Fatalf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].Text != "Short report about a company." {
		t.Fatalf("unexpected chunk text: %q", chunks[0].Text)
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	chunker := NewChunker(600, 100)
	if chunks := chunker.Chunk("", true); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := chunker.Chunk("   \n\n  ", true); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestChunkIndicesAreDense(t *testing.T) {
	chunker := NewChunker(50, 10)
	var b strings.Builder
	b.WriteString("# Overview\n")
	b.WriteString(strings.Repeat("The company sells widgets across regions. ", 20))
	b.WriteString("\n# Margins\n\n\n")
	b.WriteString(strings.Repeat("Gross margin holds near forty percent yearly. ", 20))
	chunks := chunker.Chunk(b.String(), true)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("index gap at position %d: got %d", i, chunk.Index)
		}
		if chunk.Text == "" {
			t.Fatalf("empty chunk emitted at index %d", i)
		}
	}
}

func TestChunkSectionDetection(t *testing.T) {
	chunker := NewChunker(600, 100)
	text := "# Executive Summary\nStrong quarter overall.\n## Revenue Breakdown\nHardware revenue grew."
	chunks := chunker.Chunk(text, true)
	sections := make(map[string]bool)
	for _, chunk := range chunks {
		sections[chunk.Section] = true
	}
	if !sections["Executive Summary"] {
		t.Fatalf("missing Executive Summary section, got %v", sections)
	}
	if !sections["Revenue Breakdown"] {
		t.Fatalf("missing Revenue Breakdown section, got %v", sections)
	}
}

func TestChunkNoHeadersFallbackSection(t *testing.T) {
	chunker := NewChunker(600, 100)
	chunks := chunker.Chunk("plain text without any headers at all", true)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Section != sectionNoHeaders {
		t.Fatalf("expected fallback section %q, got %q", sectionNoHeaders, chunks[0].Section)
	}
}

func TestChunkCoversWholeDocument(t *testing.T) {
	chunker := NewChunker(25, 5)
	sentences := []string{
		"Alpha designs chips for data centers.",
		"Beta revenue comes mostly from cloud contracts.",
		"Gamma margins expanded during the second quarter.",
		"Delta demand peaks before the holiday season.",
	}
	text := strings.Join(sentences, " ")
	chunks := chunker.Chunk(text, false)
	if len(chunks) < 2 {
		t.Fatalf("expected overlapping chunks, got %d", len(chunks))
	}
	joined := strings.Join(chunkTexts(chunks), " ")
	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		for _, word := range words {
			if !strings.Contains(joined, word) {
				t.Fatalf("word %q lost during chunking", word)
			}
		}
	}
}

func TestChunkSentenceBoundaryPreferred(t *testing.T) {
	chunker := NewChunker(25, 5)
	text := strings.Repeat("The first fact holds. Another fact follows here today. ", 5)
	chunks := chunker.Chunk(text, false)
	boundaryAligned := 0
	for _, chunk := range chunks {
		if strings.HasSuffix(chunk.Text, ".") {
			boundaryAligned++
		}
	}
	if boundaryAligned == 0 {
		t.Fatalf("no chunk ended on a sentence boundary: %v", chunkTexts(chunks))
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("expected 100 tokens, got %d", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty text, got %d", got)
	}
}

func chunkTexts(chunks []ChunkRecord) []string {
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Text
	}
	return out
}
