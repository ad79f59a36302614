package domain

import "strings"

// MaxQueryLen bounds incoming questions. Telegram caps messages at 4096
// characters; anything longer is junk for retrieval anyway.
const MaxQueryLen = 4096

// ValidateQuery checks a user question before it enters the pipeline.
func ValidateQuery(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return ErrQueryEmpty
	}
	if len(q) > MaxQueryLen {
		return ErrQueryTooLong
	}
	return nil
}
