package chunker

import (
	"strings"

	"docquery/internal/models"
)

// Split cuts text into chunks of at most size runes where each chunk repeats
// the last overlap runes of its predecessor. The window slides by
// size-overlap runes, so re-chunking the same text with the same parameters
// always yields the same chunks.
//
// Whitespace-only input yields no chunks; input no longer than size yields a
// single chunk holding the whole (trimmed) text. A window that reaches the
// end of the text is the last chunk, even if shorter than size.
func Split(text string, size, overlap int) []models.Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	content := strings.TrimSpace(text)
	if content == "" {
		return nil
	}

	runes := []rune(content)
	if len(runes) <= size {
		return []models.Chunk{{Content: content, Ordinal: 0}}
	}

	step := size - overlap
	var chunks []models.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Content: string(runes[start:end]),
			Ordinal: len(chunks),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Join reassembles the original text from a full ordered chunk sequence by
// dropping each chunk's leading overlap region. Inverse of Split.
func Join(chunks []models.Chunk, overlap int) string {
	if overlap < 0 {
		overlap = 0
	}
	var b strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk.Content)
		if i > 0 && len(runes) >= overlap {
			runes = runes[overlap:]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}
