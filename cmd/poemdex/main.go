// Command poemdex runs the poem search shell, HTTP API, GitHub event handler
// and collection admin commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/poemdex"
	"github.com/kailas-cloud/poemdex/internal/config"
	logpkg "github.com/kailas-cloud/poemdex/internal/logger"
	chiTransport "github.com/kailas-cloud/poemdex/internal/transport/chi"
	"github.com/kailas-cloud/poemdex/internal/transport/cli"
	"github.com/kailas-cloud/poemdex/internal/transport/event"
	collectionuc "github.com/kailas-cloud/poemdex/internal/usecase/collection"
	"github.com/kailas-cloud/poemdex/internal/version"
)

const usage = `usage: poemdex [shell|serve|event|create|delete] [flags]

  shell    interactive create/search/delete loop (default)
  serve    HTTP API: GET /v1/search, /health, /metrics
  event    answer one GitHub issue or comment event
  create   recreate the collection from the input directory
  delete   drop the collection`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "poemdex:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cmd := "shell"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting poemdex",
		zap.String("command", cmd),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("collection", cfg.Collection.Name),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// a second signal kills the process, even when the shell is blocked on stdin
		<-ctx.Done()
		stop()
	}()

	switch cmd {
	case "shell":
		return withClient(ctx, cfg, logger, func(c *poemdex.Client) error {
			sh := cli.New(c, c, cli.Config{Collection: cfg.Collection.Name, InputDir: cfg.Ingest.InputDir},
				os.Stdin, os.Stdout, logger)
			return sh.Run(ctx)
		})
	case "serve":
		return withClient(ctx, cfg, logger, func(c *poemdex.Client) error {
			return serve(ctx, cfg, c, logger)
		})
	case "event":
		return runEvent(ctx, cfg, args, logger)
	case "create":
		return runCreate(ctx, cfg, args, logger)
	case "delete":
		return withClient(ctx, cfg, logger, func(c *poemdex.Client) error {
			out, err := c.DeleteCollection(ctx, cfg.Collection.Name)
			if err != nil {
				return err
			}
			if out == collectionuc.OutcomeNotFound {
				fmt.Printf("collection %s does not exist\n", cfg.Collection.Name)
				return nil
			}
			fmt.Printf("collection %s deleted\n", cfg.Collection.Name)
			return nil
		})
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func withClient(ctx context.Context, cfg config.Config, logger *zap.Logger, fn func(*poemdex.Client) error) error {
	c, err := poemdex.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func runCreate(ctx context.Context, cfg config.Config, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	dir := fs.String("dir", cfg.Ingest.InputDir, "directory holding the poem JSON files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withClient(ctx, cfg, logger, func(c *poemdex.Client) error {
		report, err := c.CreateVectorDB(ctx, cfg.Collection.Name, *dir)
		if err != nil {
			return err
		}
		fmt.Printf("collection %s ready: %d records from %d/%d files in %s\n",
			cfg.Collection.Name, report.Records, report.Ingested, report.Files,
			report.Elapsed.Round(time.Millisecond))
		for _, f := range report.Failures {
			fmt.Printf("  skipped %s: %v\n", f.Path, f.Err)
		}
		return nil
	})
}

func runEvent(ctx context.Context, cfg config.Config, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("event", flag.ContinueOnError)
	path := fs.String("payload", os.Getenv("GITHUB_EVENT_PATH"), "GitHub event payload file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("event: no payload (set GITHUB_EVENT_PATH or -payload)")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("event: read payload: %w", err)
	}
	payload, err := event.ParsePayload(raw)
	if err != nil {
		return err
	}

	token := cfg.Event.GitHubToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	gh, err := event.NewGitHubClient(cfg.Event.GitHubAPIURL, token)
	if err != nil {
		return err
	}

	return withClient(ctx, cfg, logger, func(c *poemdex.Client) error {
		out, err := event.NewHandler(c, gh, logger).Handle(ctx, payload)
		if err != nil {
			return err
		}
		logger.Info("Event handled", zap.String("outcome", string(out)))
		return nil
	})
}

func serve(ctx context.Context, cfg config.Config, c *poemdex.Client, logger *zap.Logger) error {
	server := chiTransport.NewServer(c, c, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
