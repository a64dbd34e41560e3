// Package poem defines the poem record and the static collection schema it is stored under.
package poem

import (
	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/collection/field"
)

// Schema field names.
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldAuthor     = "author"
	FieldParagraphs = "paragraphs"
	FieldType       = "type"
	FieldVector     = "dense_vectors"
)

// Schema limits.
const (
	MaxTitleLen      = 1024
	MaxAuthorLen     = 64
	MaxParagraphsLen = 1024
	MaxTypeLen       = 16
	VectorDim        = domain.DefaultDimensions
	ShardCount       = 2
)

// Schema is the fixed field list of the poem collection.
var Schema = []field.Field{
	field.MustNew(FieldAuthor, field.Varchar, field.MaxLength(MaxAuthorLen)),
	field.MustNew(FieldParagraphs, field.Varchar, field.MaxLength(MaxParagraphsLen)),
	field.MustNew(FieldTitle, field.Varchar, field.MaxLength(MaxTitleLen)),
	field.MustNew(FieldID, field.Int64, field.Primary()),
	field.MustNew(FieldType, field.Varchar, field.MaxLength(MaxTypeLen)),
	field.MustNew(FieldVector, field.FloatVector, field.Dim(VectorDim)),
}

// OutputFields are the record fields returned with every search hit.
var OutputFields = []string{FieldParagraphs, FieldTitle, FieldAuthor}
