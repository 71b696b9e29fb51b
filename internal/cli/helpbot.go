package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"atenu-bots/internal/config"
	pgstore "atenu-bots/internal/infra/postgres"
	"atenu-bots/internal/transport/telegram"
)

// NewHelpBotCmd builds the CLI subcommand that runs the FAQ help bot.
func NewHelpBotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "helpbot",
		Short: "Run the Telegram FAQ help bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHelpBot(cmd.Context(), *configPath)
		},
	}
}

func runHelpBot(ctx context.Context, configPath string) error {
	setupLogging()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateHelpBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The help bot works without a database; tickets are then discarded.
	var tickets telegram.TicketRecorder = telegram.NoopTicketRecorder{}
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		tickets = pgstore.NewStore(db)
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.HelpBotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}

	bot := telegram.NewHelpBot(api, tickets)

	slog.Info("help bot starting", slog.String("bot", api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}
	updates := api.GetUpdatesChan(u)

	bot.Run(ctx, updates)
	api.StopReceivingUpdates()
	slog.Info("help bot stopped")
	return nil
}
