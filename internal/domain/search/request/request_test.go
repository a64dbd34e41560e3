package request

import (
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  床前的月光 ", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "床前的月光" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.HasAuthor() {
		t.Error("expected no author filter")
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New("q", "李白", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
	if r.Author() != "李白" {
		t.Errorf("Author() = %q", r.Author())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		author string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"long query", strings.Repeat("q", MaxQueryLength+1), ""},
		{"long author", "q", strings.Repeat("a", MaxAuthorLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.query, tt.author, 5); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParams_InBand(t *testing.T) {
	p := DefaultParams(5)
	tests := []struct {
		score float64
		want  bool
	}{
		{0.05, false},
		{0.1, false},
		{0.1001, true},
		{0.5, true},
		{1.0, true},
		{1.0001, false},
	}
	for _, tt := range tests {
		if got := p.InBand(tt.score); got != tt.want {
			t.Errorf("InBand(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams(10).Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := []Params{
		{Metric: "L2", NProbe: 16, Radius: 0.1, RangeFilter: 1, Limit: 1},
		{Metric: MetricCosine, NProbe: 0, Radius: 0.1, RangeFilter: 1, Limit: 1},
		{Metric: MetricCosine, NProbe: 16, Radius: 0.1, RangeFilter: 1, Limit: 0},
		{Metric: MetricCosine, NProbe: 16, Radius: 1, RangeFilter: 0.5, Limit: 1},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestParams_WithLimit(t *testing.T) {
	p := DefaultParams(10)
	if p.WithLimit(3).Limit != 3 {
		t.Error("WithLimit(3) not applied")
	}
	if p.WithLimit(0).Limit != 10 {
		t.Error("WithLimit(0) must keep the current limit")
	}
}
