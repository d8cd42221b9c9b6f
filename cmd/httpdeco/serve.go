package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/httpdeco/internal/config"
	"github.com/brizzai/httpdeco/internal/logger"
	"github.com/brizzai/httpdeco/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog endpoints as MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runServer(context.Background(), newServeApp(cfg))
		},
	}
}

func newServeApp(cfg *config.Config, opts ...fx.Option) *fx.App {
	return fx.New(
		appOptions(cfg),
		fx.WithLogger(fxLogger),
		server.Module,
		fx.Invoke(watchDefaults, registerServer),
		fx.Options(opts...),
	)
}

// runServer starts app and blocks until a signal arrives or the server exits.
func runServer(ctx context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	sig := <-app.Wait()
	logger.Info("Shutting down", zap.String("signal", fmt.Sprint(sig.Signal)), zap.Int("exit_code", sig.ExitCode))

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}

// registerServer runs the MCP server for the lifetime of the app. The app shuts down when the server
// returns on its own, as a stdio server does when its input closes.
func registerServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *server.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if err := srv.Start(ctx); err != nil {
					logger.Error("Server failed", zap.Error(err))
					code = 1
				}
				if ctx.Err() == nil {
					_ = shutdowner.Shutdown(fx.ExitCode(code))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
