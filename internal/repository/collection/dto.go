package collection

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/poemdex/internal/domain/collection"
	"github.com/kailas-cloud/poemdex/internal/domain/collection/field"
)

// fieldRow is the JSON-serializable representation of a schema field for HSET.
type fieldRow struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	MaxLength int    `json:"max_length,omitempty"`
	Dim       int    `json:"dim,omitempty"`
	Primary   bool   `json:"primary,omitempty"`
}

// collectionToHash converts a domain Collection to a map for HSET.
func collectionToHash(col collection.Collection) (map[string]string, error) {
	rows := make([]fieldRow, len(col.Fields()))
	for i, f := range col.Fields() {
		rows[i] = fieldRow{
			Name:      f.Name(),
			Type:      string(f.FieldType()),
			MaxLength: f.MaxLength(),
			Dim:       f.Dim(),
			Primary:   f.IsPrimary(),
		}
	}
	fieldsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return map[string]string{
		"name":        col.Name(),
		"fields_json": string(fieldsJSON),
		"shards":      strconv.Itoa(col.Shards()),
		"vector_dim":  strconv.Itoa(col.VectorDim()),
		"created_at":  strconv.FormatInt(col.CreatedAt(), 10),
	}, nil
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (collection.Collection, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}

	shards, err := strconv.Atoi(m["shards"])
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid shards: %w", err)
	}

	var rows []fieldRow
	if err := json.Unmarshal([]byte(m["fields_json"]), &rows); err != nil {
		return collection.Collection{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	fields := make([]field.Field, len(rows))
	for i, r := range rows {
		opts := make([]field.Option, 0, 3)
		if r.MaxLength > 0 {
			opts = append(opts, field.MaxLength(r.MaxLength))
		}
		if r.Dim > 0 {
			opts = append(opts, field.Dim(r.Dim))
		}
		if r.Primary {
			opts = append(opts, field.Primary())
		}
		f, err := field.New(r.Name, field.Type(r.Type), opts...)
		if err != nil {
			return collection.Collection{}, fmt.Errorf("field %s: %w", r.Name, err)
		}
		fields[i] = f
	}

	return collection.Reconstruct(m["name"], fields, shards, createdAt), nil
}
