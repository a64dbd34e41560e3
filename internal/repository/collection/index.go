package collection

import (
	"fmt"

	"github.com/kailas-cloud/poemdex/internal/db"
	domcol "github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/collection/field"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// buildIndex derives the FT index from the stored schema.
// Only filterable fields are indexed: the primary key as NUMERIC, the author as an exact TAG,
// the type as a TAG, and the vector as HNSW/COSINE. Other varchar fields stay plain hash fields.
func buildIndex(indexName, recordPrefix string, col domcol.Collection, spec domcol.IndexSpec) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName).Prefix(recordPrefix)

	for _, f := range col.Fields() {
		switch {
		case f.FieldType() == field.FloatVector:
			b.VectorHNSW(f.Name(), f.Dim(), db.DistanceCosine, spec.M, spec.EFConstruct, spec.EFRuntime)
		case f.IsPrimary():
			b.Numeric(f.Name())
		case f.Name() == poem.FieldAuthor:
			b.ExactTag(f.Name())
		case f.Name() == poem.FieldType:
			b.Tag(f.Name())
		}
	}

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", indexName, err)
	}
	return def, nil
}
