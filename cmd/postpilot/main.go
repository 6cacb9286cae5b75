// Package main provides the postpilot CLI entry point.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/postpilot/internal/aigen"
	"github.com/example/postpilot/internal/application"
	"github.com/example/postpilot/internal/config"
	httptransport "github.com/example/postpilot/internal/http"
	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/logging"
	"github.com/example/postpilot/internal/oauthstate"
	"github.com/example/postpilot/internal/persistence/sqlite"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "postpilot",
		Short:   "Schedule and publish LinkedIn posts",
		Long:    "Postpilot drafts, schedules, and publishes LinkedIn posts and keeps their analytics fresh.",
		Version: version,
	}

	rootCmd.SetVersionTemplate("postpilot version {{.Version}}\n")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSweepCmd())

	return rootCmd
}

// app bundles the wired services shared by the serve and sweep commands.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	auth           *application.AuthService
	drafts         *application.DraftService
	connections    *application.ConnectionService
	publish        *application.PublishService
	generate       *application.GenerateService
	publishSweep   *application.PublishSweepService
	analyticsSweep *application.AnalyticsSweepService

	close func() error
}

func newApp(logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	pool, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	users := sqlite.NewUserRepository(pool)
	sessions := sqlite.NewSessionRepository(pool)
	connections := sqlite.NewConnectionRepository(pool)
	drafts := sqlite.NewDraftRepository(pool)

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	provider := linkedin.NewClient(cfg.LinkedInClientID, cfg.LinkedInClientSecret, cfg.LinkedInRedirectURL)
	states := oauthstate.New(cfg.OAuthStateSecret)

	publishService := application.NewPublishService(drafts, connections, provider, now, logger)

	a := &app{
		cfg:            cfg,
		logger:         logger,
		auth:           application.NewAuthService(users, sessions, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger),
		drafts:         application.NewDraftService(drafts, idGenerator, now, logger),
		connections:    application.NewConnectionService(connections, provider, states, now, logger),
		publish:        publishService,
		publishSweep:   application.NewPublishSweepService(drafts, publishService, now, logger),
		analyticsSweep: application.NewAnalyticsSweepService(drafts, connections, provider, now, logger),
		close:          pool.Close,
	}

	if cfg.AIGatewayURL != "" {
		a.generate = application.NewGenerateService(aigen.NewClient(cfg.AIGatewayURL, cfg.AIGatewayKey), logger)
	}

	return a, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			defer func() {
				if cerr := a.close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			routerCfg := httptransport.RouterConfig{
				Auth:        httptransport.NewAuthHandler(a.auth, logger),
				Drafts:      httptransport.NewDraftHandler(a.drafts, a.publish, logger),
				Connections: httptransport.NewConnectionHandler(a.connections, logger),
				Cron:        httptransport.NewCronHandler(a.publishSweep, a.analyticsSweep, logger),
				Sessions:    a.auth,
				CronSecret:  a.cfg.CronSecret,
				Logger:      logger,
				Middleware:  []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
			}
			if a.generate != nil {
				routerCfg.Generate = httptransport.NewGenerateHandler(a.generate, logger)
			} else {
				logger.Info("AI gateway not configured, generate endpoint disabled")
			}

			server := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           httptransport.NewRouter(routerCfg),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("postpilot API listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server encountered error", "error", err)
				return err
			}
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one batch sweep and exit",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "publish",
		Short: "Publish due scheduled drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, func(ctx context.Context, a *app) error {
				summary, err := a.publishSweep.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed=%d published=%d failed=%d\n",
					summary.Processed, summary.Published, summary.Failed)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "analytics",
		Short: "Refresh analytics for published drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, func(ctx context.Context, a *app) error {
				summary, err := a.analyticsSweep.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed=%d synced=%d skipped=%d failed=%d\n",
					summary.Processed, summary.Synced, summary.Skipped, summary.Failed)
				return nil
			})
		},
	})

	return cmd
}

func runSweep(cmd *cobra.Command, run func(context.Context, *app) error) error {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	return run(ctx, a)
}

func newLogger() *slog.Logger {
	return logging.New(os.Stdout)
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
