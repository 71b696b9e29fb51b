package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"atenu-bots/internal/config"
	"atenu-bots/internal/content"
	"atenu-bots/internal/domain"
	pgstore "atenu-bots/internal/infra/postgres"
	rediscache "atenu-bots/internal/infra/redis"
	"atenu-bots/internal/quiz"
	"atenu-bots/internal/transport/telegram"
)

const (
	firstBatchDelay  = 10 * time.Second
	questionDelay    = 500 * time.Millisecond
	messageDeleteTTL = 30 * time.Second
)

// NewQuizBotCmd builds the CLI subcommand that runs the quiz bot.
func NewQuizBotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quizbot",
		Short: "Run the Telegram quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuizBot(cmd.Context(), *configPath)
		},
	}
}

func runQuizBot(ctx context.Context, configPath string) error {
	setupLogging()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateQuizBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(ctx, cfg); err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	store := pgstore.NewStore(db)

	batches, err := loadBatches(ctx, cfg)
	if err != nil {
		return err
	}

	engine := quiz.NewEngine(store)
	var standingsSrc quiz.StandingsSource = store
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache := rediscache.NewStandingsCache(client, store, config.TTLDuration(cfg.Redis.TTL, 5*time.Minute))
		engine.OnRecorded = cache.Invalidate
		standingsSrc = cache
	}
	standings := quiz.NewStandings(standingsSrc)

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.QuizBotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}

	sched := quiz.NewBatchScheduler(batches)
	broadcaster := telegram.NewBroadcaster(api, cfg.Telegram.TargetChats, questionDelay)
	deleter := telegram.NewMessageDeleter(api, messageDeleteTTL)
	defer deleter.Stop()

	announcer := quiz.NewAnnouncer(store, standings, broadcaster,
		quiz.DefaultAnnouncerConfig(cfg.AnswerRetention(), cfg.EntryRetention()))

	bot := telegram.NewQuizBot(api, telegram.QuizBotConfig{
		Engine:      engine,
		Standings:   standings,
		Store:       store,
		Scheduler:   sched,
		Batches:     batches,
		TargetChats: cfg.Telegram.TargetChats,
		Broadcaster: broadcaster,
		Deleter:     deleter,
		Interval:    cfg.QuizInterval(),
	})

	slog.Info("quiz bot starting",
		slog.String("bot", api.Self.UserName),
		slog.Int("total_batches", len(batches)),
		slog.Duration("interval", cfg.QuizInterval()),
		slog.Any("target_chats", cfg.Telegram.TargetChats))
	slog.Info("schedule summary",
		slog.String("weekly_leaderboard", "Sunday 09:00 UTC"),
		slog.String("monthly_leaderboard", "last day of month 23:00 UTC"),
		slog.String("cleanup", "Sunday 02:00 UTC"),
		slog.String("cooldowns", "1h -> 6h -> 24h"))

	go sched.RunPosting(ctx, broadcaster, cfg.Telegram.TargetChats, cfg.QuizInterval(), firstBatchDelay)
	go announcer.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := api.GetUpdatesChan(u)

	bot.Run(ctx, updates)
	api.StopReceivingUpdates()
	slog.Info("quiz bot stopped")
	return nil
}

func loadBatches(ctx context.Context, cfg config.Config) ([]domain.QuizBatch, error) {
	var src content.BatchSource
	if cfg.Quiz.ContentPath != "" {
		src = content.NewFileSource(cfg.Quiz.ContentPath)
	} else {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		src = content.NewPostgresSource(pool)
	}
	return src.LoadBatches(ctx)
}

func setupLogging() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}
