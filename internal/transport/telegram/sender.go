package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

// api is the slice of *tgbotapi.BotAPI the transport actually uses, kept
// narrow so tests can stub it.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Broadcaster fans quiz batches and leaderboard recaps out to the target
// chats. One broken chat never stops delivery to the rest.
type Broadcaster struct {
	api           api
	chats         []int64
	questionDelay time.Duration
	clock         func() time.Time
}

func NewBroadcaster(api api, chats []int64, questionDelay time.Duration) *Broadcaster {
	return &Broadcaster{
		api:           api,
		chats:         chats,
		questionDelay: questionDelay,
		clock:         time.Now,
	}
}

// SendBatch delivers the batch header followed by every question with its
// answer keyboard, pausing briefly between questions to keep message order
// stable in busy groups.
func (b *Broadcaster) SendBatch(ctx context.Context, chats []int64, batch domain.QuizBatch, pos quiz.CyclePosition) {
	header := batchHeaderText(batch, pos, b.clock())

	for _, chatID := range chats {
		if err := b.sendMarkdown(chatID, header, nil); err != nil {
			slog.Error("failed to send quiz batch header",
				slog.Int64("chat_id", chatID),
				slog.Int64("batch_id", batch.ID),
				slog.Any("error", err))
			continue
		}

		delivered := true
		for i, q := range batch.Questions {
			keyboard := answerKeyboard(q)
			if err := b.sendMarkdown(chatID, questionText(q, i+1), &keyboard); err != nil {
				slog.Error("failed to send quiz question",
					slog.Int64("chat_id", chatID),
					slog.Int64("question_id", q.ID),
					slog.Any("error", err))
				delivered = false
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.questionDelay):
			}
		}
		if delivered {
			slog.Info("sent quiz batch",
				slog.Int64("chat_id", chatID),
				slog.Int64("batch_id", batch.ID))
		}
	}
}

func (b *Broadcaster) PublishWeeklyRecap(ctx context.Context, weekStart, weekEnd time.Time, rows []domain.Standing) {
	b.broadcast("weekly leaderboard", weeklyRecapText(weekStart, weekEnd, rows))
}

func (b *Broadcaster) PublishMonthlyRecap(ctx context.Context, month time.Time, rows []domain.Standing) {
	b.broadcast("monthly leaderboard", monthlyRecapText(month, rows))
}

func (b *Broadcaster) broadcast(what, text string) {
	for _, chatID := range b.chats {
		if err := b.sendMarkdown(chatID, text, nil); err != nil {
			slog.Error("failed to send announcement",
				slog.String("announcement", what),
				slog.Int64("chat_id", chatID),
				slog.Any("error", err))
			continue
		}
		slog.Info("sent announcement",
			slog.String("announcement", what),
			slog.Int64("chat_id", chatID))
	}
}

func (b *Broadcaster) sendMarkdown(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := b.api.Send(msg)
	return err
}

func answerKeyboard(q domain.Question) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("A", domain.AnswerToken(q.ID, 0)),
			tgbotapi.NewInlineKeyboardButtonData("B", domain.AnswerToken(q.ID, 1)),
			tgbotapi.NewInlineKeyboardButtonData("C", domain.AnswerToken(q.ID, 2)),
			tgbotapi.NewInlineKeyboardButtonData("D", domain.AnswerToken(q.ID, 3)),
		),
	)
}
