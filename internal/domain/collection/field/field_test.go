package field

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	tests := []struct {
		name string
		ft   Type
		opts []Option
	}{
		{"id", Int64, []Option{Primary()}},
		{"author", Varchar, []Option{MaxLength(64)}},
		{"dense_vectors", FloatVector, []Option{Dim(512)}},
		{strings.Repeat("x", 64), Int64, nil},
	}

	for _, tt := range tests {
		f, err := New(tt.name, tt.ft, tt.opts...)
		if err != nil {
			t.Errorf("New(%q, %q) unexpected error: %v", tt.name, tt.ft, err)
			continue
		}
		if f.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", f.Name(), tt.name)
		}
		if f.FieldType() != tt.ft {
			t.Errorf("FieldType() = %q, want %q", f.FieldType(), tt.ft)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		ft      Type
		opts    []Option
		wantMsg string
	}{
		{"empty name", "", Int64, nil, "required"},
		{"long name", strings.Repeat("x", 65), Int64, nil, "too long"},
		{"varchar without length", "title", Varchar, nil, "max length"},
		{"vector without dim", "v", FloatVector, nil, "dim"},
		{"unknown type", "x", Type("json"), nil, "invalid field type"},
		{"varchar primary", "title", Varchar, []Option{MaxLength(8), Primary()}, "must be int64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.field, tt.ft, tt.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	f := MustNew("paragraphs", Varchar, MaxLength(1024))
	if f.MaxLength() != 1024 || f.Dim() != 0 || f.IsPrimary() {
		t.Errorf("unexpected accessors: len=%d dim=%d primary=%v", f.MaxLength(), f.Dim(), f.IsPrimary())
	}
	v := MustNew("dense_vectors", FloatVector, Dim(512))
	if v.Dim() != 512 {
		t.Errorf("Dim() = %d, want 512", v.Dim())
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNew("", Int64)
}
