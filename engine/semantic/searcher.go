package semantic

import (
	"context"

	"github.com/hackfolio/guidebot/engine/domain"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the text-in, scored-chunks-out view of the vector store that
// the retriever works against: it embeds the query and runs k-NN search.
type Searcher struct {
	embed Embedder
	store *VectorStore
}

// NewSearcher creates a Searcher over the given embedder and store.
func NewSearcher(embed Embedder, store *VectorStore) *Searcher {
	return &Searcher{embed: embed, store: store}
}

// Search returns the k nearest chunks for a text query, best first.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, domain.RetrievalError("embed query", err)
	}
	hits, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, domain.RetrievalError("vector search", err)
	}

	chunks := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		chunks[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{
				Content:     h.Content,
				SourcePath:  h.SourcePath,
				StartOffset: h.StartOffset,
			},
			Score: h.Score,
		}
	}
	return chunks, nil
}
