// Package registry tracks which documentation files have been ingested.
// The registry backs change detection (skip unchanged files by checksum)
// and the corpus listing exposed over the HTTP API.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrNotFound is returned when a document path is not registered.
var ErrNotFound = errors.New("registry: document not found")

// Document is one ingested documentation file.
type Document struct {
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	Chunks     int       `json:"chunks"`
	IngestedAt time.Time `json:"ingested_at"`
}

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// Registry is a Neo4j-backed document registry.
type Registry struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// New creates a Registry over an existing driver.
func New(driver neo4j.DriverWithContext) *Registry {
	return &Registry{driver: driver}
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (r *Registry) session(ctx context.Context) runner {
	if r.newSession != nil {
		return r.newSession(ctx)
	}
	return &sessionAdapter{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// Upsert records a document after (re-)ingestion.
func (r *Registry) Upsert(ctx context.Context, doc Document) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx,
		`MERGE (d:Document {path: $path})
		 SET d.title = $title, d.checksum = $checksum, d.chunks = $chunks, d.ingested_at = $ingested_at`,
		map[string]any{
			"path":        doc.Path,
			"title":       doc.Title,
			"checksum":    doc.Checksum,
			"chunks":      doc.Chunks,
			"ingested_at": doc.IngestedAt.UTC().Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("registry: upsert %s: %w", doc.Path, err)
	}
	return nil
}

// Get returns one registered document by path.
func (r *Registry) Get(ctx context.Context, path string) (Document, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx,
		"MATCH (d:Document {path: $path}) RETURN d.path, d.title, d.checksum, d.chunks, d.ingested_at",
		map[string]any{"path": path})
	if err != nil {
		return Document{}, fmt.Errorf("registry: get %s: %w", path, err)
	}
	if !res.Next(ctx) {
		return Document{}, ErrNotFound
	}
	return fromRecord(res.Record())
}

// Checksum returns the stored checksum for a path, or "" if the document
// has never been ingested.
func (r *Registry) Checksum(ctx context.Context, path string) (string, error) {
	doc, err := r.Get(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Checksum, nil
}

// List returns all registered documents ordered by path.
func (r *Registry) List(ctx context.Context) ([]Document, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx,
		"MATCH (d:Document) RETURN d.path, d.title, d.checksum, d.chunks, d.ingested_at ORDER BY d.path",
		nil)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}

	var docs []Document
	for res.Next(ctx) {
		doc, err := fromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document from the registry.
func (r *Registry) Delete(ctx context.Context, path string) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx,
		"MATCH (d:Document {path: $path}) DETACH DELETE d",
		map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("registry: delete %s: %w", path, err)
	}
	return nil
}

func fromRecord(rec *neo4j.Record) (Document, error) {
	var doc Document
	if len(rec.Values) < 5 {
		return doc, fmt.Errorf("registry: short record: %d values", len(rec.Values))
	}
	doc.Path, _ = rec.Values[0].(string)
	doc.Title, _ = rec.Values[1].(string)
	doc.Checksum, _ = rec.Values[2].(string)
	if n, ok := rec.Values[3].(int64); ok {
		doc.Chunks = int(n)
	}
	if s, ok := rec.Values[4].(string); ok {
		doc.IngestedAt, _ = time.Parse(time.RFC3339, s)
	}
	return doc, nil
}
