package embedding

import "strings"

// Chunker packs text into segments of at most maxLen runes, an approximation
// of the provider's token limit.
type Chunker struct {
	maxLen int
}

// NewChunker creates a chunker with the given maximum segment length in runes.
func NewChunker(maxLen int) *Chunker {
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &Chunker{maxLen: maxLen}
}

// Split packs label, a newline, and text into ordered segments. The label
// rides along as a leading virtual line so it biases the averaged document
// vector. Packing is purely positional: each segment consumes the maximal
// prefix of the remaining input, and the final partial remainder forms the
// last segment.
func (c *Chunker) Split(label, text string) []string {
	var segments []string
	var part strings.Builder
	remaining := c.maxLen

	for _, input := range []string{label, "\n", text} {
		runes := []rune(input)
		start := 0
		for len(runes)-start > remaining {
			part.WriteString(string(runes[start : start+remaining]))
			segments = append(segments, part.String())
			part.Reset()
			start += remaining
			remaining = c.maxLen
		}
		if tail := len(runes) - start; tail > 0 {
			part.WriteString(string(runes[start:]))
			remaining -= tail
		}
	}
	if part.Len() > 0 {
		segments = append(segments, part.String())
	}
	return segments
}
