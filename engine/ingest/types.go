package ingest

import "github.com/hackfolio/guidebot/engine/domain"

// SourceFile is one documentation file as read from disk or received over
// the re-ingest subject.
type SourceFile struct {
	// Path is the corpus-relative path, e.g. "data/docs/judging/add-judges.md".
	Path string `json:"path"`
	// Content is the raw markdown text.
	Content string `json:"content"`
}

// ChunkedFile is a SourceFile split into retrieval units.
type ChunkedFile struct {
	SourceFile
	Checksum string
	Chunks   []domain.Chunk
}

// EmbeddedFile pairs each chunk with its embedding, index-aligned.
type EmbeddedFile struct {
	ChunkedFile
	Embeddings [][]float32
}

// Report summarizes one file's ingestion.
type Report struct {
	Path    string `json:"path"`
	Chunks  int    `json:"chunks"`
	Skipped bool   `json:"skipped"`
}
