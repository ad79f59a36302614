package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hackfolio/guidebot/engine/domain"
)

const (
	// DefaultChunkSize is the target chunk length in bytes. Sized for
	// context preservation over retrieval granularity.
	DefaultChunkSize = 1600
	// DefaultOverlap is how much adjacent chunks share, to keep procedures
	// that straddle a boundary answerable from either chunk.
	DefaultOverlap = 500
)

// segment is a paragraph-level piece of the document with its byte offset.
type segment struct {
	text   string
	offset int
}

// splitSegments breaks markdown into paragraph segments at blank lines and
// heading boundaries, preserving byte offsets into the original text.
// Oversized paragraphs are hard-split at chunkSize so packing always
// terminates.
func splitSegments(content string, chunkSize int) []segment {
	var segs []segment
	offset := 0
	for _, para := range strings.Split(content, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			offset += len(para) + 2
			continue
		}
		lead := strings.Index(para, trimmed)
		start := offset + lead
		for len(trimmed) > chunkSize {
			cut := strings.LastIndex(trimmed[:chunkSize], "\n")
			if cut <= 0 {
				cut = chunkSize
			}
			segs = append(segs, segment{text: strings.TrimSpace(trimmed[:cut]), offset: start})
			start += cut
			trimmed = strings.TrimLeft(trimmed[cut:], "\n")
		}
		if trimmed != "" {
			segs = append(segs, segment{text: trimmed, offset: start})
		}
		offset += len(para) + 2
	}
	return segs
}

// ChunkMarkdown splits a documentation file into overlapping chunks of
// roughly chunkSize bytes. Paragraphs are never split unless they alone
// exceed the chunk size; each chunk records the byte offset of its first
// paragraph.
func ChunkMarkdown(path, content string, chunkSize, overlap int) []domain.Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}

	segs := splitSegments(content, chunkSize)
	if len(segs) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(segs) {
		var b strings.Builder
		end := start
		for end < len(segs) {
			addition := len(segs[end].text)
			if b.Len() > 0 {
				addition += 2
			}
			if b.Len()+addition > chunkSize && b.Len() > 0 {
				break
			}
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(segs[end].text)
			end++
		}

		chunks = append(chunks, domain.Chunk{
			Content:     b.String(),
			SourcePath:  path,
			StartOffset: segs[start].offset,
		})
		if end >= len(segs) {
			break
		}

		// Step back over trailing segments until the overlap budget is
		// spent, but always advance past the previous start.
		next := end
		backed := 0
		for next > start+1 && backed+len(segs[next-1].text) <= overlap {
			next--
			backed += len(segs[next].text)
		}
		start = next
	}
	return chunks
}

// Title extracts a document title: the first level-one heading, or the
// file name with hyphens as spaces when there is none.
func Title(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	name := path
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".mdx")
	name = strings.TrimSuffix(name, ".md")
	return strings.ReplaceAll(name, "-", " ")
}

// Checksum returns the hex SHA-256 of the file content, used to skip
// unchanged files on re-ingest.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
