// Package ingest loads poem source files into a collection.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
	"github.com/kailas-cloud/poemdex/internal/metrics"
)

// DefaultBatchSize is the number of records per insert call.
const DefaultBatchSize = 1000

// Config holds pipeline settings.
type Config struct {
	BatchSize int
	Policy    poem.ParagraphPolicy
	Progress  ProgressFunc
}

// FileFailure records why one source file was skipped.
type FileFailure struct {
	Path string
	Err  error
}

// Report summarizes one ingestion run.
type Report struct {
	Files    int // source files found
	Ingested int // files fully inserted
	Records  int // records inserted across all files
	Failures []FileFailure
	Elapsed  time.Duration
}

// Pipeline parses, embeds and inserts source files one at a time.
type Pipeline struct {
	embedder domain.Embedder
	writer   Writer
	cfg      Config
	logger   *zap.Logger
}

// New creates an ingestion pipeline.
func New(embedder domain.Embedder, writer Writer, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Policy == "" {
		cfg.Policy = poem.PolicyFirst
	}
	return &Pipeline{embedder: embedder, writer: writer, cfg: cfg, logger: logger}
}

// Ingest loads every *.json file under dir into collection. A file that fails to parse,
// embed or insert is recorded in the report and skipped; the run continues with the next file.
// Only an unreadable directory or context cancellation stops the run.
func (p *Pipeline) Ingest(ctx context.Context, collection, dir string) (Report, error) {
	start := time.Now()
	var report Report

	files, err := listSources(dir)
	if err != nil {
		return report, err
	}
	report.Files = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, fmt.Errorf("ingest interrupted: %w", err)
		}

		n, err := p.ingestFile(ctx, collection, path)
		report.Records += n
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.Elapsed = time.Since(start)
				return report, fmt.Errorf("ingest interrupted: %w", ctxErr)
			}
			metrics.IngestFilesTotal.WithLabelValues(failureLabel(err)).Inc()
			p.logger.Warn("Skipping source file",
				zap.String("file", path),
				zap.Int("inserted", n),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		metrics.IngestFilesTotal.WithLabelValues("ok").Inc()
		report.Ingested++
	}

	report.Elapsed = time.Since(start)
	p.logger.Info("Ingestion completed",
		zap.String("collection", collection),
		zap.Int("files", report.Files),
		zap.Int("failed", len(report.Failures)),
		zap.Int("records", report.Records),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// ingestFile returns the number of records inserted before any error.
func (p *Pipeline) ingestFile(ctx context.Context, collection, path string) (int, error) {
	records, err := readRecords(path, p.cfg.Policy)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Paragraphs()
	}
	emb, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d records: %w", len(texts), err)
	}
	if err := domain.CheckResult(emb, len(records), poem.VectorDim); err != nil {
		return 0, err
	}
	for i := range records {
		records[i] = records[i].WithVector(emb.Dense[i])
	}

	inserted := 0
	for offset := 0; offset < len(records); offset += p.cfg.BatchSize {
		end := min(offset+p.cfg.BatchSize, len(records))
		batchStart := time.Now()
		if err := p.writer.Insert(ctx, collection, records[offset:end]); err != nil {
			return inserted, fmt.Errorf("insert records %d-%d: %w", offset, end, err)
		}
		metrics.IngestBatchDuration.Observe(time.Since(batchStart).Seconds())
		metrics.IngestRecordsTotal.Add(float64(end - offset))
		inserted = end

		if p.cfg.Progress != nil {
			p.cfg.Progress(path, inserted, len(records))
		}
		p.logger.Debug("Inserted batch",
			zap.String("file", path),
			zap.Int("inserted", inserted),
			zap.Int("total", len(records)),
		)
	}
	return inserted, nil
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrParse):
		return "parse_error"
	case errors.Is(err, domain.ErrEmbedding):
		return "embedding_error"
	default:
		return "insert_error"
	}
}
