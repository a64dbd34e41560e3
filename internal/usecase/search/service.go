// Package search answers poem queries by semantic similarity.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/metrics"
)

// ErrInvalidRequest signals a query that fails validation.
var ErrInvalidRequest = errors.New("invalid search request")

const (
	sourceLocal    = "local"
	sourceDelegate = "delegate"
)

// Config holds engine settings.
type Config struct {
	Collection string
	Params     request.Params
}

// Engine embeds a query and searches the collection, optionally trying a delegate first.
type Engine struct {
	store    Store
	embed    domain.Embedder
	delegate Delegate
	cfg      Config
	logger   *zap.Logger
}

// New creates a search engine. delegate may be nil.
func New(store Store, embed domain.Embedder, delegate Delegate, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Params.Metric == "" {
		cfg.Params = request.DefaultParams(request.DefaultLimit)
	}
	return &Engine{store: store, embed: embed, delegate: delegate, cfg: cfg, logger: logger}
}

// Search returns poems similar to query.
func (e *Engine) Search(ctx context.Context, query string) ([]result.Result, error) {
	req, err := request.New(query, "", e.cfg.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return e.Do(ctx, req)
}

// SearchByAuthor returns poems similar to query written by author. The store applies the filter.
func (e *Engine) SearchByAuthor(ctx context.Context, query, author string) ([]result.Result, error) {
	req, err := request.New(query, author, e.cfg.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !req.HasAuthor() {
		return nil, fmt.Errorf("%w: author is required", ErrInvalidRequest)
	}
	return e.Do(ctx, req)
}

// Do executes a validated request. No match is an empty slice and a nil error;
// a store failure matches domain.ErrQuery.
func (e *Engine) Do(ctx context.Context, req request.Request) ([]result.Result, error) {
	if e.delegate != nil {
		if res, ok := e.tryDelegate(ctx, req); ok {
			return res, nil
		}
	}

	start := time.Now()
	res, err := e.searchLocal(ctx, req)
	metrics.SearchDuration.WithLabelValues(sourceLocal).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(sourceLocal, "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(sourceLocal, outcome(res)).Inc()
	return res, nil
}

// tryDelegate returns the delegate's hits verbatim, or false when the local path must run.
func (e *Engine) tryDelegate(ctx context.Context, req request.Request) ([]result.Result, bool) {
	start := time.Now()
	res, err := e.delegate.Search(ctx, req.Query(), req.Author(), req.Limit())
	metrics.SearchDuration.WithLabelValues(sourceDelegate).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(sourceDelegate, "error").Inc()
		metrics.DelegateFallbackTotal.Inc()
		e.logger.Warn("External search failed, falling back to local index",
			zap.String("query", req.Query()),
			zap.Error(err),
		)
		return nil, false
	}
	metrics.SearchRequestsTotal.WithLabelValues(sourceDelegate, outcome(res)).Inc()
	if res == nil {
		res = []result.Result{}
	}
	return res, true
}

func (e *Engine) searchLocal(ctx context.Context, req request.Request) ([]result.Result, error) {
	emb, err := e.embed.Embed(ctx, []string{req.Query()})
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if err := domain.CheckResult(emb, 1, 0); err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	var expr filter.Expression
	if req.HasAuthor() {
		expr, err = filter.Equals(poem.FieldAuthor, req.Author())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	params := e.cfg.Params.WithLimit(req.Limit())
	hits, err := e.store.Search(ctx, e.cfg.Collection, emb.Dense[0], params, expr, poem.OutputFields)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrQuery, e.cfg.Collection, err)
	}

	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if params.InBand(h.Distance) {
			out = append(out, h)
		}
	}
	if len(out) > params.Limit {
		out = out[:params.Limit]
	}

	e.logger.Debug("Local search completed",
		zap.String("collection", e.cfg.Collection),
		zap.Bool("author_filter", req.HasAuthor()),
		zap.Int("hits", len(hits)),
		zap.Int("in_band", len(out)),
	)
	return out, nil
}

func outcome(res []result.Result) string {
	if len(res) == 0 {
		return "empty"
	}
	return "hit"
}
