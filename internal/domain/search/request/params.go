package request

import "fmt"

// MetricCosine is the only similarity metric a poem collection supports.
const MetricCosine = "COSINE"

// Params is the fixed search configuration sent to the vector store.
type Params struct {
	Metric      string
	NProbe      int     // query-time candidate probe count
	Radius      float64 // exclusive lower bound on similarity
	RangeFilter float64 // inclusive upper bound on similarity
	Limit       int
}

// DefaultParams returns cosine search with nprobe 16 over the band (0.1, 1].
func DefaultParams(limit int) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Params{
		Metric:      MetricCosine,
		NProbe:      16,
		Radius:      0.1,
		RangeFilter: 1,
		Limit:       limit,
	}
}

// Validate checks that the band is well formed.
func (p Params) Validate() error {
	if p.Metric != MetricCosine {
		return fmt.Errorf("unsupported metric %q", p.Metric)
	}
	if p.NProbe <= 0 {
		return fmt.Errorf("nprobe must be positive")
	}
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if p.Radius >= p.RangeFilter {
		return fmt.Errorf("radius %g must be below range_filter %g", p.Radius, p.RangeFilter)
	}
	return nil
}

// InBand reports whether a similarity score lies in (Radius, RangeFilter].
func (p Params) InBand(score float64) bool {
	return score > p.Radius && score <= p.RangeFilter
}

// WithLimit returns a copy with a different result bound.
func (p Params) WithLimit(limit int) Params {
	if limit > 0 {
		p.Limit = limit
	}
	return p
}
