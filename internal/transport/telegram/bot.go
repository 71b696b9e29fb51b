package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

// QuizBot handles inbound quiz-group traffic: commands, answer clicks and
// explanation requests. Outbound scheduled traffic goes through Broadcaster.
type QuizBot struct {
	api         api
	engine      *quiz.Engine
	standings   *quiz.Standings
	store       quiz.Store
	sched       *quiz.BatchScheduler
	batches     []domain.QuizBatch
	chats       map[int64]bool
	broadcaster *Broadcaster
	deleter     *MessageDeleter
	interval    time.Duration
}

type QuizBotConfig struct {
	Engine      *quiz.Engine
	Standings   *quiz.Standings
	Store       quiz.Store
	Scheduler   *quiz.BatchScheduler
	Batches     []domain.QuizBatch
	TargetChats []int64
	Broadcaster *Broadcaster
	Deleter     *MessageDeleter
	Interval    time.Duration
}

func NewQuizBot(api api, cfg QuizBotConfig) *QuizBot {
	chats := make(map[int64]bool, len(cfg.TargetChats))
	for _, id := range cfg.TargetChats {
		chats[id] = true
	}
	return &QuizBot{
		api:         api,
		engine:      cfg.Engine,
		standings:   cfg.Standings,
		store:       cfg.Store,
		sched:       cfg.Scheduler,
		batches:     cfg.Batches,
		chats:       chats,
		broadcaster: cfg.Broadcaster,
		deleter:     cfg.Deleter,
		interval:    cfg.Interval,
	}
}

// Run consumes updates until ctx is done.
func (b *QuizBot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *QuizBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *QuizBot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "quiz":
		b.handleQuiz(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "leaderboard", "top":
		b.handleLeaderboard(ctx, msg)
	}
}

func (b *QuizBot) handleStart(msg *tgbotapi.Message) {
	firstName := ""
	if msg.From != nil {
		firstName = msg.From.FirstName
		slog.Info("user started the quiz bot",
			slog.Int64("user_id", msg.From.ID),
			slog.String("username", msg.From.UserName))
	}
	b.reply(msg, welcomeText(firstName, int(b.interval.Minutes()), b.sched.BatchCount(), b.sched.RemainingInCycle()))
}

func (b *QuizBot) handleQuiz(ctx context.Context, msg *tgbotapi.Message) {
	if !b.chats[msg.Chat.ID] {
		b.reply(msg, "❌ This command only works in designated quiz groups.")
		return
	}
	if b.sched.BatchCount() == 0 {
		b.reply(msg, "❌ No quiz data available.")
		return
	}
	batch, pos, ok := b.sched.Current()
	if !ok {
		b.reply(msg, "⏳ No quiz batch is currently active. Wait for the next scheduled quiz!")
		return
	}
	b.broadcaster.SendBatch(ctx, []int64{msg.Chat.ID}, batch, pos)
}

func (b *QuizBot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	stats, err := b.store.UserStats(ctx, msg.From.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		b.reply(msg, noStatsText)
		return
	}
	if err != nil {
		slog.Error("failed to get user stats",
			slog.Int64("user_id", msg.From.ID),
			slog.Any("error", err))
		b.reply(msg, "❌ Error retrieving your stats. Please try again.")
		return
	}
	b.reply(msg, statsText(stats))
}

func (b *QuizBot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	snap, err := b.standings.Current(ctx, 5)
	if err != nil {
		slog.Error("failed to get leaderboard", slog.Any("error", err))
		b.reply(msg, "❌ Error retrieving leaderboard. Please try again.")
		return
	}
	b.reply(msg, leaderboardText(snap))
}

func (b *QuizBot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, err := domain.ParseCallback(query.Data)
	if err != nil {
		b.alert(query, "❌ Unknown action!")
		return
	}
	switch act := action.(type) {
	case domain.AnswerSelected:
		b.handleAnswer(ctx, query, act)
	case domain.ExplanationRequested:
		b.handleExplanation(query, act)
	}
}

func (b *QuizBot) handleAnswer(ctx context.Context, query *tgbotapi.CallbackQuery, act domain.AnswerSelected) {
	question, found := domain.FindQuestion(b.batches, act.QuestionID)
	if !found {
		b.alert(query, "❌ Question not found.")
		return
	}

	out, err := b.engine.SubmitAnswer(ctx, quiz.AttemptSubmission{
		UserID:       query.From.ID,
		Username:     query.From.UserName,
		FirstName:    query.From.FirstName,
		QuestionID:   act.QuestionID,
		Selected:     act.Option,
		CorrectIndex: question.CorrectIndex,
	})
	if err != nil {
		b.alert(query, "⚠️ Technical issue saving your answer. Please try again.")
		return
	}
	if !out.Allowed {
		b.alert(query, out.CooldownMessage)
		return
	}

	b.ack(query, answerAckText(out.IsCorrect))

	userName := displayName(query.From)
	result := tgbotapi.NewMessage(query.Message.Chat.ID, resultText(userName, question, act.Option, out))
	result.ParseMode = tgbotapi.ModeMarkdown
	result.ReplyToMessageID = query.Message.MessageID
	result.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Show Explanation", domain.ExplanationToken(act.QuestionID)),
		),
	)
	sent, err := b.api.Send(result)
	if err != nil {
		slog.Error("failed to send answer result",
			slog.Int64("chat_id", query.Message.Chat.ID),
			slog.Any("error", err))
		return
	}
	b.deleter.Schedule(sent.Chat.ID, sent.MessageID)
}

func (b *QuizBot) handleExplanation(query *tgbotapi.CallbackQuery, act domain.ExplanationRequested) {
	question, found := domain.FindQuestion(b.batches, act.QuestionID)
	if !found {
		b.alert(query, "❌ Question not found.")
		return
	}

	b.ack(query, "📝 Showing explanation...")

	edit := tgbotapi.NewEditMessageText(
		query.Message.Chat.ID,
		query.Message.MessageID,
		query.Message.Text+explanationSuffix(question),
	)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("failed to append explanation",
			slog.Int64("chat_id", query.Message.Chat.ID),
			slog.Any("error", err))
		return
	}
	b.deleter.Schedule(query.Message.Chat.ID, query.Message.MessageID)
}

func (b *QuizBot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		slog.Error("failed to send reply",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.Any("error", err))
	}
}

func (b *QuizBot) ack(query *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, text)); err != nil {
		slog.Debug("callback ack failed", slog.Any("error", err))
	}
}

func (b *QuizBot) alert(query *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(query.ID, text)); err != nil {
		slog.Debug("callback alert failed", slog.Any("error", err))
	}
}

func displayName(from *tgbotapi.User) string {
	u := domain.User{ID: from.ID, Username: from.UserName, FirstName: from.FirstName}
	return u.DisplayName()
}
