package poem

import (
	"fmt"

	"github.com/kailas-cloud/poemdex/internal/domain"
)

// Record is one poem entry (immutable value object).
type Record struct {
	id         int64
	title      string
	author     string
	paragraphs string
	kind       string
	vector     []float32
}

// New validates and creates a Record without a vector.
// Text fields are bounded in bytes by the schema; paragraphs must be non-empty.
func New(id int64, title, author, paragraphs, kind string) (Record, error) {
	checks := []struct {
		name  string
		value string
		max   int
	}{
		{FieldTitle, title, MaxTitleLen},
		{FieldAuthor, author, MaxAuthorLen},
		{FieldParagraphs, paragraphs, MaxParagraphsLen},
		{FieldType, kind, MaxTypeLen},
	}
	for _, c := range checks {
		if len(c.value) > c.max {
			return Record{}, fmt.Errorf("%w: record %d: %s too long (%d > %d bytes)",
				domain.ErrInvalidRecord, id, c.name, len(c.value), c.max)
		}
	}
	if paragraphs == "" {
		return Record{}, fmt.Errorf("%w: record %d: %s is required", domain.ErrInvalidRecord, id, FieldParagraphs)
	}

	return Record{id: id, title: title, author: author, paragraphs: paragraphs, kind: kind}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id int64, title, author, paragraphs, kind string, vector []float32) Record {
	return Record{id: id, title: title, author: author, paragraphs: paragraphs, kind: kind, vector: vector}
}

// WithVector returns a copy carrying the embedding of its paragraphs.
func (r Record) WithVector(v []float32) Record {
	r.vector = v
	return r
}

// ID returns the primary key.
func (r Record) ID() int64 { return r.id }

// Title returns the poem title.
func (r Record) Title() string { return r.title }

// Author returns the poem author.
func (r Record) Author() string { return r.author }

// Paragraphs returns the normalized poem text.
func (r Record) Paragraphs() string { return r.paragraphs }

// Type returns the classification tag.
func (r Record) Type() string { return r.kind }

// Vector returns the dense embedding, nil before ingestion attaches it.
func (r Record) Vector() []float32 { return r.vector }

// HasVector reports whether a vector of the schema width is attached.
func (r Record) HasVector() bool { return len(r.vector) == VectorDim }
