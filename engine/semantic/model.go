package semantic

// SearchResult is a single vector search hit.
type SearchResult struct {
	ID          string  `json:"id"`
	Score       float32 `json:"score"`
	Content     string  `json:"content"`
	SourcePath  string  `json:"source_path"`
	StartOffset int     `json:"start_offset"`
	DocID       string  `json:"doc_id"`
}

// VectorRecord is a single embedded chunk to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // content, source_path, start_offset, doc_id
}
