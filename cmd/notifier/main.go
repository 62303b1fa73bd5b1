// Command notifier matches upcoming tourism events to interested users and
// dispatches one reminder per (user, event) pair.
//
// Usage:
//
//	notifier run --now 2025-01-01 --horizon 3
//	notifier serve
//	notifier bootstrap
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/go-event-notifier/internal/application/notification"
	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/domain"
	"github.com/go-event-notifier/internal/infrastructure/dynamo"
	transporthttp "github.com/go-event-notifier/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}

	root := &cobra.Command{
		Use:           "notifier",
		Short:         "Tourism event notification engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), serveCmd(), bootstrapCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("closing sink", "error", err)
		}
	}()
	return fn(ctx, a)
}

// --------------------------------------------------------------------------
// run
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		now     string
		horizon int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one batch pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := horizonOption(cmd.Flags().Changed("horizon"), horizon)
			if err != nil {
				return err
			}
			opts := notification.RunOptions{HorizonDays: h, Workers: workers}
			return withApp(func(ctx context.Context, a *app) error {
				if now != "" {
					t, err := notification.ParseNow(now, a.loc)
					if err != nil {
						return err
					}
					opts.Now = t
				}
				summary, err := a.svc.Run(ctx, opts)
				if summary != nil {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					_ = enc.Encode(summary)
				}
				return exitError(summary, err)
			})
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "Reference instant (YYYY-MM-DD or RFC 3339); defaults to the current time")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Days ahead to consider, 0 for today only (defaults to NOTIFY_HORIZON_DAYS)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent dispatch workers (0 uses NOTIFY_WORKERS)")
	return cmd
}

// horizonOption maps the --horizon flag to a run override. An unset flag
// keeps the configured default.
func horizonOption(set bool, days int) (*int, error) {
	if !set {
		return nil, nil
	}
	if days < 0 {
		return nil, fmt.Errorf("--horizon must not be negative, got %d", days)
	}
	return &days, nil
}

// exitError decides the process outcome of a run: only a Failed run is an
// error. An aborted run leaves its remaining pairs to the next invocation.
func exitError(summary *domain.RunSummary, err error) error {
	if summary != nil && summary.State != domain.RunFailed {
		return nil
	}
	if err == nil {
		err = errors.New("run failed")
	}
	return err
}

// --------------------------------------------------------------------------
// serve
// --------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger, inbox and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				router := transporthttp.NewRouter(a.cfg, &transporthttp.Deps{
					Notifier: a.svc,
					Location: a.loc,
					Logger:   a.logger,
				})
				srv := &http.Server{
					Addr:         fmt.Sprintf(":%s", a.cfg.AppPort),
					Handler:      router,
					ReadTimeout:  15 * time.Second,
					WriteTimeout: 5 * time.Minute, // a triggered run may scan every profile
					IdleTimeout:  60 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					a.logger.Info("server starting", "port", a.cfg.AppPort, "env", a.cfg.AppEnv)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
					close(errCh)
				}()

				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("server error: %w", err)
					}
					return nil
				case <-ctx.Done():
				}

				a.logger.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("forced shutdown: %w", err)
				}
				a.logger.Info("server stopped")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// bootstrap
// --------------------------------------------------------------------------

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the DynamoDB tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := config.Load()
			slog.SetDefault(newLogger(cfg.LogLevel))
			client, err := dynamo.NewClient(ctx, cfg)
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}
			return dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		},
	}
}
