package collection

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/poemdex/internal/domain/collection/field"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is the record container aggregate (immutable value object).
type Collection struct {
	name      string
	fields    []field.Field
	shards    int
	createdAt int64
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validateFields(fields []field.Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	seen := make(map[string]bool, len(fields))
	var primaries, vectors int
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
		if f.IsPrimary() {
			primaries++
		}
		if f.FieldType() == field.FloatVector {
			vectors++
		}
	}
	if primaries != 1 {
		return fmt.Errorf("schema needs exactly one primary key, got %d", primaries)
	}
	if vectors != 1 {
		return fmt.Errorf("schema needs exactly one vector field, got %d", vectors)
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Fields: unique names, one primary key, one vector field.
func New(name string, fields []field.Field, shards int) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if shards <= 0 {
		return Collection{}, fmt.Errorf("shard count must be positive")
	}
	if err := validateFields(fields); err != nil {
		return Collection{}, err
	}

	return Collection{
		name:      name,
		fields:    fields,
		shards:    shards,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name string, fields []field.Field, shards int, createdAt int64) Collection {
	return Collection{name: name, fields: fields, shards: shards, createdAt: createdAt}
}

// ValidateName checks a collection name without building a Collection.
func ValidateName(name string) error { return validateName(name) }

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Fields returns the schema fields.
func (c Collection) Fields() []field.Field { return c.fields }

// Shards returns the fixed shard count.
func (c Collection) Shards() int { return c.shards }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// VectorField returns the single vector field.
func (c Collection) VectorField() field.Field {
	for _, f := range c.fields {
		if f.FieldType() == field.FloatVector {
			return f
		}
	}
	return field.Field{}
}

// VectorDim returns the width of the vector field.
func (c Collection) VectorDim() int { return c.VectorField().Dim() }

// FieldByName looks up a field by name.
func (c Collection) FieldByName(name string) (field.Field, bool) {
	for _, f := range c.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}
