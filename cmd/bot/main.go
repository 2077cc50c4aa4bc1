package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/backup"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/bot"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/config"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/ledger"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/metrics"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage"
)

const appName = "expense-bot"

var (
	envFile string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Discord bot that keeps a personal expense ledger",
	Long: `expense-bot records expenses per Discord user through slash commands
(/addgasto, /saldo, /extrato, /setrenda, /reset) and snapshots the ledger daily.

Run without a subcommand to start the bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if envFile != "" {
			cfg, err = config.Load(envFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}

		logger, err = newLogger(cfg.LogLevel)
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
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and handle slash commands",
	RunE:  runServe,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Publish the slash commands and exit",
	RunE:  runRegister,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write today's ledger snapshot and exit",
	RunE:  runBackup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default .env)")
	rootCmd.AddCommand(serveCmd, registerCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build(zap.Fields(zap.String("app", appName)))
}

func newPublisher() interfaces.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		return kafka.NopPublisher{}
	}
	logger.Info("publishing ledger events to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer closeStore()

	// fail fast when the store is unreadable
	if _, err := store.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	publisher := newPublisher()
	defer publisher.Close()

	collector := metrics.NewMetricsCollector(logger)
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = collector.StartMetricsServer(cfg.MetricsAddr)
	}

	svc := ledger.NewLedger(store, ledger.WithPublisher(publisher), ledger.WithLogger(logger))
	handler := bot.NewHandler(svc, collector, logger)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("bot online", zap.String("user", r.User.String()))
	})
	session.AddHandler(handler.OnInteractionCreate)

	collector.SetRegisteredCommands(bot.RegisterCommandsOnce(session, cfg.ClientID, cfg.GuildID, logger))

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	scheduler := backup.NewScheduler(
		svc,
		backup.NewSnapshotter(cfg.BackupDir, cfg.BackupRetention, logger),
		cfg.BackupInterval,
		collector,
		logger,
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := session.Close(); err != nil {
		logger.Warn("failed to close discord session", zap.Error(err))
	}
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := collector.Shutdown(shutdownCtx, metricsServer); err != nil {
		logger.Warn("failed to stop metrics server", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	created, err := bot.RegisterCommands(session, cfg.ClientID, cfg.GuildID)
	if err != nil {
		return err
	}
	logger.Info("commands registered", zap.Int("count", len(created)))
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer closeStore()

	svc := ledger.NewLedger(store, ledger.WithLogger(logger))
	scheduler := backup.NewScheduler(
		svc,
		backup.NewSnapshotter(cfg.BackupDir, cfg.BackupRetention, logger),
		cfg.BackupInterval,
		nil,
		logger,
	)

	path, err := scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "backup already exists for today")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
