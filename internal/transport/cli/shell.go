// Package cli is the interactive line-oriented front end.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/usecase/collection"
	"github.com/kailas-cloud/poemdex/internal/usecase/search"
	"github.com/kailas-cloud/poemdex/internal/version"
)

const (
	cmdCreate = "create"
	cmdSearch = "search"
	cmdDelete = "delete"
	cmdExit   = "exit"
)

const usage = `commands:
  create   recreate the collection and load the poem files
  search   enter search mode ("<query>" or "<query> <author>", "exit" to leave)
  delete   drop the collection
  exit     quit`

const searchUsage = `search mode: "<query>" or "<query> <author>", "exit" to leave`

// Config holds shell settings.
type Config struct {
	Collection string
	InputDir   string
}

// Shell reads commands from in and writes results to out.
type Shell struct {
	admin    Admin
	searcher Searcher
	cfg      Config
	in       *bufio.Scanner
	out      io.Writer
	logger   *zap.Logger

	banner lipgloss.Style
	prompt lipgloss.Style
	failed lipgloss.Style
}

// New creates a shell.
func New(admin Admin, searcher Searcher, cfg Config, in io.Reader, out io.Writer, logger *zap.Logger) *Shell {
	r := lipgloss.NewRenderer(out)
	return &Shell{
		admin:    admin,
		searcher: searcher,
		cfg:      cfg,
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   logger,
		banner: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2),
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		failed: r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Run prints the banner and processes commands until exit, EOF or ctx cancellation.
// Command failures are printed and never end the loop.
func (s *Shell) Run(ctx context.Context) error {
	title := fmt.Sprintf("poemdex %s\nclassical poetry semantic search\n\n%s", version.String(), usage)
	fmt.Fprintln(s.out, s.banner.Render(title))

	for {
		line, ok := s.read("poemdex> ")
		if !ok {
			return s.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		switch fields := strings.Fields(line); {
		case len(fields) == 0:
			continue
		case len(fields) > 1:
			fmt.Fprintln(s.out, usage)
		case fields[0] == cmdCreate:
			s.create(ctx)
		case fields[0] == cmdSearch:
			if !s.searchLoop(ctx) {
				return s.in.Err()
			}
		case fields[0] == cmdDelete:
			s.delete(ctx)
		case fields[0] == cmdExit:
			return nil
		default:
			fmt.Fprintln(s.out, usage)
		}
	}
}

func (s *Shell) read(prompt string) (string, bool) {
	fmt.Fprint(s.out, s.prompt.Render(prompt))
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		return "", false
	}
	return s.in.Text(), true
}

func (s *Shell) create(ctx context.Context) {
	start := time.Now()
	report, err := s.admin.CreateVectorDB(ctx, s.cfg.Collection, s.cfg.InputDir)
	if err != nil {
		s.fail("create", err)
		return
	}
	fmt.Fprintf(s.out, "collection %s ready: %d records from %d/%d files, ingestion took %s\n",
		s.cfg.Collection, report.Records, report.Ingested, report.Files, report.Elapsed.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Fprintf(s.out, "  skipped %s: %v\n", f.Path, f.Err)
	}
	s.logger.Debug("Create command finished", zap.Duration("elapsed", time.Since(start)))
}

func (s *Shell) delete(ctx context.Context) {
	outcome, err := s.admin.DeleteCollection(ctx, s.cfg.Collection)
	if err != nil {
		s.fail("delete", err)
		return
	}
	if outcome == collection.OutcomeNotFound {
		fmt.Fprintf(s.out, "collection %s does not exist\n", s.cfg.Collection)
		return
	}
	fmt.Fprintf(s.out, "collection %s deleted\n", s.cfg.Collection)
}

// searchLoop returns false when input ended inside the loop.
func (s *Shell) searchLoop(ctx context.Context) bool {
	fmt.Fprintln(s.out, searchUsage)
	for {
		line, ok := s.read("search> ")
		if !ok {
			return false
		}
		if ctx.Err() != nil {
			return true
		}

		fields := strings.Fields(line)
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1 && fields[0] == cmdExit:
			return true
		case len(fields) == 1:
			s.render(s.searcher.Search(ctx, fields[0]))
		case len(fields) == 2:
			s.render(s.searcher.SearchByAuthor(ctx, fields[0], fields[1]))
		default:
			fmt.Fprintln(s.out, searchUsage)
		}
	}
}

func (s *Shell) render(res []result.Result, err error) {
	if err != nil {
		s.fail("search", err)
		return
	}
	fmt.Fprint(s.out, search.FormatText(res))
	if len(res) == 0 {
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) fail(cmd string, err error) {
	s.logger.Warn("Command failed", zap.String("command", cmd), zap.Error(err))
	fmt.Fprintln(s.out, s.failed.Render(fmt.Sprintf("%s failed: %v", cmd, err)))
}
