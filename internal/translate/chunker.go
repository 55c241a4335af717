package translate

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 200

	// ChunkSeparator joins translated chunks back together.
	ChunkSeparator = "\n\n"
)

// Chunk is one ordered, possibly overlapping slice of a document's text.
type Chunk struct {
	Index int
	Text  string
}

// SplitChunks splits text into ordered chunks of at most size runes with
// overlap runes shared between neighbours, preferring paragraph, line, then
// word boundaries.
func SplitChunks(text string, size, overlap int) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: p})
	}
	return chunks, nil
}
