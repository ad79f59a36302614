// Package ingest builds the documentation corpus: it chunks markdown
// files, embeds the chunks, and writes them to the vector store, recording
// each file in the document registry. Unchanged files are skipped by
// checksum.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/hackfolio/guidebot/engine/domain"
	"github.com/hackfolio/guidebot/engine/registry"
	"github.com/hackfolio/guidebot/engine/semantic"
	"github.com/hackfolio/guidebot/pkg/fn"
	"github.com/hackfolio/guidebot/pkg/natsutil"
)

// SubjectReingest is the NATS subject carrying SourceFile payloads for
// on-demand re-ingestion.
const SubjectReingest = "guidebot.ingest"

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the vector-store slice the pipeline writes through.
type Store interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	DeleteBySourcePath(ctx context.Context, sourcePath string) error
}

// Catalog is the registry slice the pipeline records into.
type Catalog interface {
	Checksum(ctx context.Context, path string) (string, error)
	Upsert(ctx context.Context, doc registry.Document) error
}

// Options tunes the chunker and embedding fan-out.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	EmbedWorkers int
}

// DefaultOptions returns the corpus defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultOverlap,
		EmbedWorkers: 4,
	}
}

// Pipeline ingests documentation files end to end.
type Pipeline struct {
	embed   Embedder
	store   Store
	catalog Catalog
	opts    Options
	logger  *slog.Logger

	chunk      fn.Stage[SourceFile, ChunkedFile]
	embedStage fn.Stage[ChunkedFile, EmbeddedFile]
	write      fn.Stage[EmbeddedFile, Report]
}

// New creates a Pipeline. A nil catalog disables change detection and
// registry recording.
func New(embed Embedder, store Store, catalog Catalog, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{embed: embed, store: store, catalog: catalog, opts: opts, logger: logger}
	p.chunk = fn.TracedStage("ingest.chunk", p.chunkStage)
	p.embedStage = fn.TracedStage("ingest.embed", p.embedChunks)
	p.write = fn.TracedStage("ingest.store", p.storeStage)
	return p
}

// Run ingests one file. Files whose checksum matches the registry are
// skipped without touching the vector store.
func (p *Pipeline) Run(ctx context.Context, file SourceFile) (Report, error) {
	sum := Checksum(file.Content)
	if p.catalog != nil {
		prev, err := p.catalog.Checksum(ctx, file.Path)
		if err != nil {
			return Report{}, fmt.Errorf("ingest: checksum lookup %s: %w", file.Path, err)
		}
		if prev == sum {
			p.logger.Debug("ingest: unchanged, skipping", "path", file.Path)
			return Report{Path: file.Path, Skipped: true}, nil
		}
	}

	stage := fn.Then(p.chunk, fn.Then(p.embedStage, p.write))
	report, err := stage(ctx, file).Unwrap()
	if err != nil {
		return Report{}, err
	}
	p.logger.Info("ingest: stored", "path", file.Path, "chunks", report.Chunks)
	return report, nil
}

// RunAll ingests a batch of files sequentially, collecting per-file
// reports. Individual failures abort the batch.
func (p *Pipeline) RunAll(ctx context.Context, files []SourceFile) ([]Report, error) {
	reports := make([]Report, 0, len(files))
	for _, f := range files {
		r, err := p.Run(ctx, f)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Consume subscribes the pipeline to the re-ingest subject so documentation
// updates can be pushed without redeploying.
func (p *Pipeline) Consume(nc *nats.Conn) (*nats.Subscription, error) {
	return natsutil.QueueSubscribe(nc, SubjectReingest, "ingest", func(ctx context.Context, file SourceFile) {
		if _, err := p.Run(ctx, file); err != nil {
			p.logger.Error("ingest: reingest failed", "path", file.Path, "error", err)
		}
	})
}

func (p *Pipeline) chunkStage(_ context.Context, file SourceFile) fn.Result[ChunkedFile] {
	chunks := ChunkMarkdown(file.Path, file.Content, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return fn.Errf[ChunkedFile]("ingest: %s produced no chunks", file.Path)
	}
	return fn.Ok(ChunkedFile{SourceFile: file, Checksum: Checksum(file.Content), Chunks: chunks})
}

func (p *Pipeline) embedChunks(ctx context.Context, file ChunkedFile) fn.Result[EmbeddedFile] {
	results := fn.ParMapResult(file.Chunks, p.opts.EmbedWorkers, func(c domain.Chunk) fn.Result[[]float32] {
		return fn.FromPair(p.embed.Embed(ctx, c.Content))
	})
	embeddings, err := fn.Collect(results).Unwrap()
	if err != nil {
		return fn.Err[EmbeddedFile](fmt.Errorf("ingest: embed %s: %w", file.Path, err))
	}
	return fn.Ok(EmbeddedFile{ChunkedFile: file, Embeddings: embeddings})
}

func (p *Pipeline) storeStage(ctx context.Context, file EmbeddedFile) fn.Result[Report] {
	// Replace rather than append: stale chunks from the previous version
	// must not survive a re-ingest.
	if err := p.store.DeleteBySourcePath(ctx, file.Path); err != nil {
		return fn.Err[Report](fmt.Errorf("ingest: clear %s: %w", file.Path, err))
	}

	records := make([]semantic.VectorRecord, len(file.Chunks))
	for i, c := range file.Chunks {
		records[i] = semantic.VectorRecord{
			ID:        PointID(file.Path, c.StartOffset),
			Embedding: file.Embeddings[i],
			Payload: map[string]any{
				"content":      c.Content,
				"source_path":  c.SourcePath,
				"start_offset": c.StartOffset,
				"doc_id":       file.Path,
			},
		}
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		return fn.Err[Report](fmt.Errorf("ingest: upsert %s: %w", file.Path, err))
	}

	if p.catalog != nil {
		doc := registry.Document{
			Path:       file.Path,
			Title:      Title(file.Path, file.Content),
			Checksum:   file.Checksum,
			Chunks:     len(file.Chunks),
			IngestedAt: time.Now().UTC(),
		}
		if err := p.catalog.Upsert(ctx, doc); err != nil {
			return fn.Err[Report](fmt.Errorf("ingest: register %s: %w", file.Path, err))
		}
	}
	return fn.Ok(Report{Path: file.Path, Chunks: len(file.Chunks)})
}

// PointID derives a deterministic vector-store ID from the chunk's
// position, so re-ingesting the same content overwrites in place.
func PointID(path string, startOffset int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s-%d", path, startOffset))).String()
}
