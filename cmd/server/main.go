package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/whisperchat/internal/chat"
	"github.com/Tyrowin/whisperchat/internal/server"
)

var (
	verbose    bool
	configPath string
	envFile    string
	port       string
)

var rootCmd = &cobra.Command{
	Use:   "whisperchat",
	Short: "Real-time text chat server with whisper groups",
	Long: `whisperchat serves a line-oriented chat protocol over WebSocket.

Connect to /chat for the shared room or /whisper to assemble a private group.
Inside a conversation, 'r<target>:<text>' sends a one-shot reply and
'.re <targets...>' turns on reply mode until '.over'.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "listen address, e.g. :8080")
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// loadConfig layers defaults, the YAML file, the dotenv file, the environment
// and finally command-line flags.
func loadConfig(cmd *cobra.Command) (server.Config, error) {
	cfg := server.NewConfig()
	if configPath != "" {
		var err error
		if cfg, err = server.LoadConfigFile(configPath); err != nil {
			return server.Config{}, err
		}
	}
	if err := server.LoadDotEnv(envFile); err != nil {
		return server.Config{}, err
	}
	cfg.ApplyEnv()
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	return *cfg, nil
}

func run(ctx context.Context, cfg server.Config, logger *zap.Logger) error {
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	dumper := metrics.DefaultInmemSignal(sink)
	defer dumper.Stop()

	service := chat.NewService(chat.WithLogger(logger), chat.WithMetricSink(sink))
	hub := server.NewHub(cfg, service, logger)
	httpServer := server.CreateServer(hub.Config().Port, server.SetupRoutes(hub, sink))

	ctx, stop := signalContext(ctx)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartServer(httpServer, logger)
	})
	g.Go(func() error {
		<-ctx.Done()
		timeout := hub.Config().ShutdownTimeout
		serverErr := server.ShutdownServer(httpServer, timeout, logger)
		if err := hub.Shutdown(timeout); err != nil {
			return err
		}
		return serverErr
	})
	return g.Wait()
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
