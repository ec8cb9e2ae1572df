package report

import (
	"regexp"
	"strings"
)

// Chunk sizing is expressed in approximate tokens; one token is taken as four
// characters. The same ratio backs EstimateTokens so sizing stays consistent
// across the pipeline.
const charsPerToken = 4

const (
	defaultChunkTokens   = 600
	defaultOverlapTokens = 100
)

// sectionNoHeaders labels the single section used when a document contains no
// recognizable headers.
const sectionNoHeaders = "Full Report"

// sectionLeading labels text appearing before the first header.
const sectionLeading = "Introduction"

// ChunkRecord is one bounded segment of a document, positioned by rune
// offsets into its section. Index is assigned globally across sections and is
// always dense: dropped empty segments never create gaps.
type ChunkRecord struct {
	Text      string
	Section   string
	Index     int
	StartChar int
	EndChar   int
}

// Chunker splits long documents into overlapping, section-aware segments
// sized for independent embedding.
type Chunker struct {
	chunkSizeChars int
	overlapChars   int
}

// NewChunker builds a chunker with the given target size and overlap in
// tokens. Non-positive values fall back to the defaults (600/100).
func NewChunker(chunkTokens, overlapTokens int) *Chunker {
	if chunkTokens <= 0 {
		chunkTokens = defaultChunkTokens
	}
	if overlapTokens < 0 || overlapTokens >= chunkTokens {
		overlapTokens = defaultOverlapTokens
		if overlapTokens >= chunkTokens {
			overlapTokens = chunkTokens / 4
		}
	}
	return &Chunker{
		chunkSizeChars: chunkTokens * charsPerToken,
		overlapChars:   overlapTokens * charsPerToken,
	}
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

var (
	headerPattern   = regexp.MustCompile(`^(#{1,3}\s+.+|\d+\.\s+[A-Z].+|[A-Z][^:]+:)$`)
	sentenceEndings = regexp.MustCompile(`[.!?]\s+[A-Z]`)
)

// Chunk splits text into ordered chunk records. With preserveSections the
// document is first partitioned at header-like lines and each section is
// chunked independently; indices run sequentially across sections. The
// operation is total: empty input yields no chunks, short input yields one.
func (c *Chunker) Chunk(text string, preserveSections bool) []ChunkRecord {
	var chunks []ChunkRecord
	if preserveSections {
		for _, section := range splitSections(text) {
			chunks = append(chunks, c.chunkText(section.text, section.name)...)
		}
	} else {
		chunks = c.chunkText(text, "")
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

type section struct {
	name string
	text string
}

func splitSections(text string) []section {
	var sections []section
	current := sectionLeading
	var buffer []string
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		sections = append(sections, section{name: current, text: strings.Join(buffer, "\n")})
		buffer = nil
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if headerPattern.MatchString(trimmed) {
			flush()
			current = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			buffer = []string{line}
			continue
		}
		buffer = append(buffer, line)
	}
	flush()
	if len(sections) == 0 {
		return []section{{name: sectionNoHeaders, text: text}}
	}
	if len(sections) == 1 && sections[0].name == sectionLeading {
		sections[0].name = sectionNoHeaders
	}
	return sections
}

func (c *Chunker) chunkText(text, sectionName string) []ChunkRecord {
	runes := []rune(text)
	total := len(runes)
	var chunks []ChunkRecord
	emit := func(start, end int) {
		chunkText := strings.TrimSpace(string(runes[start:end]))
		if chunkText == "" {
			return
		}
		chunks = append(chunks, ChunkRecord{
			Text:      chunkText,
			Section:   sectionName,
			StartChar: start,
			EndChar:   end,
		})
	}

	if total <= c.chunkSizeChars {
		emit(0, total)
		return chunks
	}

	start := 0
	for start < total {
		end := start + c.chunkSizeChars
		if end >= total {
			emit(start, total)
			break
		}
		// Prefer a sentence boundary within the final fifth of the window.
		searchStart := end - c.chunkSizeChars/5
		if searchStart < start {
			searchStart = start
		}
		if boundary := findSentenceBoundary(runes, searchStart, end); boundary > start {
			end = boundary
		}
		emit(start, end)
		next := end - c.overlapChars
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// findSentenceBoundary locates the last sentence ending within
// runes[start:end], returning the position just before the following
// capital letter, or -1 when none is found.
func findSentenceBoundary(runes []rune, start, end int) int {
	window := string(runes[start:end])
	matches := sentenceEndings.FindAllStringIndex(window, -1)
	if len(matches) == 0 {
		return -1
	}
	last := matches[len(matches)-1]
	// last[1] is the byte offset just past the capital letter; back up one
	// rune and convert the byte offset into a rune offset.
	prefix := window[:last[1]]
	prefixRunes := []rune(prefix)
	return start + len(prefixRunes) - 1
}
