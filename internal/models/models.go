package models

// Chunk is a bounded-length segment of extracted document text. Ordinals are
// dense and 0-based in document order.
type Chunk struct {
	Content string
	Ordinal int
}
