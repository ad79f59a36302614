package compose

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hackfolio/guidebot/engine/domain"
)

// SourceURL maps a stored chunk path to its public documentation URL.
// The mapping is pure: strip the data prefix and markdown extension, then
// append to the base URL.
func SourceURL(baseURL, sourcePath string) string {
	p := strings.TrimPrefix(sourcePath, "data/")
	p = strings.TrimSuffix(p, ".mdx")
	p = strings.TrimSuffix(p, ".md")
	return baseURL + p
}

// SourceTitle derives a human-readable title from a chunk path: the file
// name with hyphens as spaces, title-cased.
func SourceTitle(sourcePath string) string {
	name := sourcePath
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".mdx")
	name = strings.TrimSuffix(name, ".md")
	name = strings.ReplaceAll(name, "-", " ")
	return titleCase(name)
}

// FormatSources renders the citation list for the retained chunks as
// markdown links, deduplicated by title and URL in first-seen order and
// capped at max entries.
func FormatSources(baseURL string, chunks []domain.ScoredChunk, max int) string {
	var lines []string
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.SourcePath == "" {
			continue
		}
		title := SourceTitle(c.SourcePath)
		url := SourceURL(baseURL, c.SourcePath)
		key := title + "|" + url
		if seen[key] {
			continue
		}
		seen[key] = true
		lines = append(lines, fmt.Sprintf("• [%s](%s)", title, url))
		if len(lines) >= max {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
