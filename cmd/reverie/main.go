package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reverie/internal/chat"
	"reverie/internal/config"
	"reverie/internal/logging"
	"reverie/internal/mind"
	"reverie/internal/model"
	"reverie/internal/server"
	"reverie/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "reverie",
	Short: "Reverie - journaling companion with an evolving persona",
	Long: `Reverie is the backend for a personal journaling companion.

Users chat with an AI persona. Every tenth user message Reverie analyzes the
recent conversation into a Big Five personality snapshot (a "daydream");
every fifth snapshot it rewrites the persona from the accumulated analyses
(a "dream"). The persona drifts toward the person writing to it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Reverie HTTP server",
	Long: `Starts the HTTP surface (chat, persona, memory erasure) and keeps the
process alive until in-flight background analysis has drained.`,
	RunE: runServe,
}

// daydreamCmd runs the daydream pipeline once for one user.
var daydreamCmd = &cobra.Command{
	Use:   "daydream [user-id]",
	Short: "Analyze a user's recent conversation into a personality snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDaydream,
}

// dreamCmd runs the dream pipeline once for one user.
var dreamCmd = &cobra.Command{
	Use:   "dream [user-id]",
	Short: "Synthesize a user's snapshots into a new persona",
	Args:  cobra.ExactArgs(1),
	RunE:  runDream,
}

// wipeCmd erases everything held for one user.
var wipeCmd = &cobra.Command{
	Use:   "wipe [user-id]",
	Short: "Delete a user's conversation log, persona, and analysis archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runWipe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "reverie.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daydreamCmd)
	rootCmd.AddCommand(dreamCmd)
	rootCmd.AddCommand(wipeCmd)
}

// app holds the wired components. Everything is injected explicitly; there
// are no package-level store or model handles.
type app struct {
	cfg       *config.Config
	store     *store.Store
	pipelines *mind.Pipelines
	handler   *chat.Handler
	runner    *chat.Runner
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := logging.Configure(cfg.DataDir, cfg.Logging.DebugMode, cfg.Logging.Level); err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "reverie.db"))
	if err != nil {
		return nil, err
	}

	client, err := model.NewGeminiClient(ctx, model.GeminiConfig{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		Timeout: cfg.ModelTimeout(),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	pipelines := mind.New(st, client)
	runner := chat.NewRunner()
	handler := chat.NewHandler(st, client, pipelines, runner)

	return &app{
		cfg:       cfg,
		store:     st,
		pipelines: pipelines,
		handler:   handler,
		runner:    runner,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("store close failed", zap.Error(err))
	}
	logging.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.handler, a.store, a.cfg.Server.APIToken, logger)

	err = srv.Run(ctx, a.cfg.Server.Addr)

	// Drain background analysis before teardown. A dropped daydream is a
	// silently lost snapshot, so the process outlives the last response.
	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if drainErr := a.runner.Close(drainCtx); drainErr != nil {
		logger.Warn("background work did not drain before shutdown", zap.Error(drainErr))
	}

	return err
}

func runDaydream(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	userID := args[0]
	if err := a.pipelines.RunDaydream(ctx, userID); err != nil {
		return fmt.Errorf("daydream failed: %w", err)
	}
	logger.Info("daydream complete", zap.String("user", userID))
	return nil
}

func runDream(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	userID := args[0]
	if err := a.pipelines.RunDream(ctx, userID); err != nil {
		return fmt.Errorf("dream failed: %w", err)
	}
	logger.Info("dream complete", zap.String("user", userID))
	return nil
}

func runWipe(cmd *cobra.Command, args []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	userID := args[0]
	if err := a.store.DeleteUserData(userID); err != nil {
		return fmt.Errorf("wipe failed: %w", err)
	}
	logger.Info("user data deleted", zap.String("user", userID))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
