package request

import (
	"fmt"
	"strings"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 4096
	MaxAuthorLen   = 64
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	query  string
	author string
	limit  int
}

// New validates and normalizes search parameters. Empty author means no filter.
func New(query, author string, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	author = strings.TrimSpace(author)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}
	if len(author) > MaxAuthorLen {
		return Request{}, fmt.Errorf("author too long (max %d bytes)", MaxAuthorLen)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{query: query, author: author, limit: limit}, nil
}

// Query returns the search text.
func (r Request) Query() string { return r.query }

// Author returns the author filter, empty when unfiltered.
func (r Request) Author() string { return r.author }

// HasAuthor reports whether an author filter is set.
func (r Request) HasAuthor() bool { return r.author != "" }

// Limit returns the maximum number of results.
func (r Request) Limit() int { return r.limit }
