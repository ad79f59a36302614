// Package main implements the corpus ingestion tool: it walks the
// documentation tree, chunks and embeds every markdown file, and writes the
// chunks to the vector store. With -consume it stays running and serves
// re-ingest requests pushed over NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hackfolio/guidebot/engine/ingest"
	"github.com/hackfolio/guidebot/engine/registry"
	"github.com/hackfolio/guidebot/engine/semantic"
	"github.com/hackfolio/guidebot/pkg/ollama"
)

// EmbedDims matches the nomic-embed-text output size.
const EmbedDims = 768

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "data/docs", "documentation root to ingest")
	consume := flag.Bool("consume", false, "stay running and serve re-ingest requests from NATS")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*dir, *consume, logger); err != nil {
		logger.Error("ingest failed", "err", err)
		os.Exit(1)
	}
}

func run(dir string, consume bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm := ollama.New(
		envOr("OLLAMA_URL", "http://localhost:11434"),
		envOr("EMBED_MODEL", "nomic-embed-text"),
		envOr("CHAT_MODEL", "llama3.1"),
	)

	store, err := semantic.New(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "guidebot"))
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, EmbedDims); err != nil {
		return err
	}

	neo4jDriver, err := neo4j.NewDriverWithContext(
		envOr("NEO4J_URL", "neo4j://localhost:7687"),
		neo4j.BasicAuth(envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASS", "password"), ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	pipeline := ingest.New(llm, store, registry.New(neo4jDriver), ingest.DefaultOptions(), logger)

	files, err := loadFiles(dir)
	if err != nil {
		return err
	}
	logger.Info("loaded documentation files", "dir", dir, "count", len(files))

	reports, err := pipeline.RunAll(ctx, files)
	if err != nil {
		return err
	}
	var stored, skipped int
	for _, r := range reports {
		if r.Skipped {
			skipped++
		} else {
			stored++
		}
	}
	logger.Info("ingest complete", "stored", stored, "skipped", skipped)

	if !consume {
		return nil
	}

	nc, err := nats.Connect(envOr("NATS_URL", nats.DefaultURL), nats.Name("guidebot-ingest"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := pipeline.Consume(nc)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ingest.SubjectReingest, err)
	}
	defer sub.Unsubscribe()

	logger.Info("waiting for re-ingest requests", "subject", ingest.SubjectReingest)
	<-ctx.Done()
	return nil
}

// loadFiles collects every .md and .mdx file under dir, keeping the
// dir-relative path with the dir prefix so stored source paths match the
// public documentation layout.
func loadFiles(dir string) ([]ingest.SourceFile, error) {
	var files []ingest.SourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, ingest.SourceFile{
			Path:    filepath.ToSlash(path),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
