package record

import (
	"strconv"

	"github.com/kailas-cloud/poemdex/internal/db/redis"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// recordToHash converts a poem Record into a flat map for HSET.
// The vector is stored as a little-endian FLOAT32 blob, the layout FT indexes read.
func recordToHash(r poem.Record) map[string]string {
	return map[string]string{
		poem.FieldID:         strconv.FormatInt(r.ID(), 10),
		poem.FieldTitle:      r.Title(),
		poem.FieldAuthor:     r.Author(),
		poem.FieldParagraphs: r.Paragraphs(),
		poem.FieldType:       r.Type(),
		poem.FieldVector:     redis.VectorToBytes(r.Vector()),
	}
}
