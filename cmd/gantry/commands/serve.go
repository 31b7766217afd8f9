package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/gantryai/gantry/assistant"
	"github.com/gantryai/gantry/config"
	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/logging"
	"github.com/gantryai/gantry/oracle"
	anthropicoracle "github.com/gantryai/gantry/oracle/anthropic"
	openaioracle "github.com/gantryai/gantry/oracle/openai"
	"github.com/gantryai/gantry/records"
	"github.com/gantryai/gantry/router"
	"github.com/gantryai/gantry/runner"
	"github.com/gantryai/gantry/server"
	"github.com/gantryai/gantry/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant HTTP service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	recordStore, sessionStore, cleanup, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	root, registry, err := assistant.Build(recordStore)
	if err != nil {
		return err
	}

	o, err := buildOracle(cfg)
	if err != nil {
		return err
	}

	rt, err := router.New(root, registry, o)
	if err != nil {
		return err
	}
	run, err := runner.New(assistant.AppName, rt, sessionStore, func(opts *runner.Options) {
		opts.MaxSteps = cfg.MaxSteps
		opts.Logger = logger
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: server.New(run, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "agent", root.Name, "provider", cfg.Oracle.Provider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func buildStores(cfg config.Config) (records.Store, core.SessionStore, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		recordStore, err := records.NewSQLite(cfg.Store.RecordPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open record store: %w", err)
		}
		sessionStore, err := session.NewSQLite(cfg.Store.SessionPath)
		if err != nil {
			recordStore.Close()
			return nil, nil, nil, fmt.Errorf("open session store: %w", err)
		}
		cleanup := func() {
			sessionStore.Close()
			recordStore.Close()
		}
		return recordStore, sessionStore, cleanup, nil
	default:
		return records.NewInMemoryStore(), session.NewInMemoryStore(), func() {}, nil
	}
}

func buildOracle(cfg config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "openai":
		var clientOpts []openaioption.RequestOption
		if key := cfg.APIKey(); key != "" {
			clientOpts = append(clientOpts, openaioption.WithAPIKey(key))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openaioracle.NewFromClient(&client, func(o *openaioracle.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = cfg.Oracle.Model
			}
		}), nil
	case "anthropic":
		return anthropicoracle.New(func(o *anthropicoracle.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Oracle.Model)
			}
			o.APIKey = cfg.APIKey()
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}
