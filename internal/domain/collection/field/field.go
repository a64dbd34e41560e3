package field

import "fmt"

// Type is the storage type of a schema field.
type Type string

// Field type constants.
const (
	Int64       Type = "int64"
	Varchar     Type = "varchar"
	FloatVector Type = "float_vector"
)

// Field is an immutable value object describing one schema column.
type Field struct {
	name      string
	fieldType Type
	maxLength int
	dim       int
	primary   bool
}

// Option tunes a Field at construction.
type Option func(*Field)

// MaxLength bounds a varchar field, in bytes.
func MaxLength(n int) Option { return func(f *Field) { f.maxLength = n } }

// Dim sets the width of a vector field.
func Dim(n int) Option { return func(f *Field) { f.dim = n } }

// Primary marks the primary key field.
func Primary() Option { return func(f *Field) { f.primary = true } }

// New validates and creates a Field.
// Varchar needs a positive max length, FloatVector a positive dim, only Int64 can be primary.
func New(name string, ft Type, opts ...Option) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}

	f := Field{name: name, fieldType: ft}
	for _, o := range opts {
		o(&f)
	}

	switch ft {
	case Int64:
	case Varchar:
		if f.maxLength <= 0 {
			return Field{}, fmt.Errorf("varchar field %q needs a positive max length", name)
		}
	case FloatVector:
		if f.dim <= 0 {
			return Field{}, fmt.Errorf("vector field %q needs a positive dim", name)
		}
	default:
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	if f.primary && ft != Int64 {
		return Field{}, fmt.Errorf("primary key %q must be int64", name)
	}
	return f, nil
}

// MustNew is New for static schema declarations.
func MustNew(name string, ft Type, opts ...Option) Field {
	f, err := New(name, ft, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's storage type.
func (f Field) FieldType() Type { return f.fieldType }

// MaxLength returns the varchar bound in bytes, 0 for other types.
func (f Field) MaxLength() int { return f.maxLength }

// Dim returns the vector width, 0 for other types.
func (f Field) Dim() int { return f.dim }

// IsPrimary reports whether the field is the primary key.
func (f Field) IsPrimary() bool { return f.primary }
