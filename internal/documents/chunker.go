package documents

import "strings"

// Default chunking parameters, in whitespace-delimited words.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is the unit of embedding and retrieval: a bounded word window
// of extracted text with its page/unit provenance.
type Chunk struct {
	Text           string
	Page           int
	ChunkIndex     int
	SourceFilename string
}

// Chunker slides a fixed-size word window over unit text, advancing by
// windowSize-overlap words each step. The final partial window is still
// emitted.
type Chunker struct {
	windowSize int
	overlap    int
}

// NewChunker validates the window parameters up front. An overlap at or
// above the window size would never advance, so it is rejected here
// rather than looping forever on the first upload.
func NewChunker(windowSize, overlap int) (*Chunker, error) {
	if windowSize <= 0 {
		return nil, &ConfigError{Reason: "chunk window size must be positive"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Reason: "chunk overlap must not be negative"}
	}
	if overlap >= windowSize {
		return nil, &ConfigError{Reason: "chunk overlap must be smaller than the window size"}
	}
	return &Chunker{windowSize: windowSize, overlap: overlap}, nil
}

// Split returns the overlapping word windows of text, in order. Text
// with no words yields no chunks; text of up to windowSize words yields
// exactly one.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.windowSize - c.overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + c.windowSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// ChunkUnits turns extracted units into provenance-carrying chunks.
// ChunkIndex restarts at zero within each unit.
func (c *Chunker) ChunkUnits(units []Unit, sourceFilename string) []Chunk {
	var chunks []Chunk
	for _, unit := range units {
		for idx, text := range c.Split(unit.Text) {
			chunks = append(chunks, Chunk{
				Text:           text,
				Page:           unit.Number,
				ChunkIndex:     idx,
				SourceFilename: sourceFilename,
			})
		}
	}
	return chunks
}
