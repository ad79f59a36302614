package registry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// fakeResult iterates over canned records.
type fakeResult struct {
	records []*neo4j.Record
	pos     int
}

func (f *fakeResult) Next(context.Context) bool {
	if f.pos >= len(f.records) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeResult) Record() *neo4j.Record {
	return f.records[f.pos-1]
}

// fakeRunner captures queries and replays canned results.
type fakeRunner struct {
	records    []*neo4j.Record
	runErr     error
	lastCypher string
	lastParams map[string]any
	closed     bool
}

func (f *fakeRunner) Run(_ context.Context, cypher string, params map[string]any) (result, error) {
	f.lastCypher = cypher
	f.lastParams = params
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &fakeResult{records: f.records}, nil
}

func (f *fakeRunner) Close(context.Context) error {
	f.closed = true
	return nil
}

func withRunner(f *fakeRunner) *Registry {
	r := New(nil)
	r.newSession = func(context.Context) runner { return f }
	return r
}

func docRecord(path, checksum string) *neo4j.Record {
	return &neo4j.Record{Values: []any{path, "Add Judges", checksum, int64(6), "2025-11-03T12:00:00Z"}}
}

func TestUpsert(t *testing.T) {
	f := &fakeRunner{}
	r := withRunner(f)

	err := r.Upsert(context.Background(), Document{
		Path:       "docs/judging/add-judges.md",
		Title:      "Add Judges",
		Checksum:   "abc123",
		Chunks:     6,
		IngestedAt: time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !strings.Contains(f.lastCypher, "MERGE (d:Document") {
		t.Errorf("cypher = %q", f.lastCypher)
	}
	if f.lastParams["checksum"] != "abc123" {
		t.Errorf("params = %v", f.lastParams)
	}
	if !f.closed {
		t.Error("session not closed")
	}
}

func TestGet(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{docRecord("docs/judging/add-judges.md", "abc123")}}
	r := withRunner(f)

	doc, err := r.Get(context.Background(), "docs/judging/add-judges.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Title != "Add Judges" || doc.Chunks != 6 || doc.Checksum != "abc123" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.IngestedAt.IsZero() {
		t.Error("ingested_at not parsed")
	}
}

func TestGetNotFound(t *testing.T) {
	r := withRunner(&fakeRunner{})
	_, err := r.Get(context.Background(), "docs/missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChecksumMissingIsEmpty(t *testing.T) {
	r := withRunner(&fakeRunner{})
	sum, err := r.Checksum(context.Background(), "docs/new.md")
	if err != nil || sum != "" {
		t.Fatalf("Checksum = (%q, %v), want empty and nil", sum, err)
	}
}

func TestChecksumFound(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{docRecord("docs/a.md", "deadbeef")}}
	r := withRunner(f)
	sum, err := r.Checksum(context.Background(), "docs/a.md")
	if err != nil || sum != "deadbeef" {
		t.Fatalf("Checksum = (%q, %v)", sum, err)
	}
}

func TestList(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{
		docRecord("docs/a.md", "1"),
		docRecord("docs/b.md", "2"),
	}}
	r := withRunner(f)

	docs, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d", len(docs))
	}
}

func TestRunErrorWrapped(t *testing.T) {
	f := &fakeRunner{runErr: errors.New("connection refused")}
	r := withRunner(f)
	if _, err := r.List(context.Background()); err == nil || !strings.Contains(err.Error(), "registry: list") {
		t.Fatalf("err = %v", err)
	}
}
