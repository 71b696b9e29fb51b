package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"atenu-bots/internal/domain"
)

// helpResponses is the static FAQ table. Commands not listed here are
// silently ignored.
var helpResponses = map[string]string{
	"start":   "👋 Welcome to Atenu Help Bot!\nUse /help to see what I can do.",
	"courses": "📘 Explore our full library of courses and QuickNotes at https://atenu.org/courses",
	"quiz":    "📝 Practice past exams at https://atenu.org/exams",
	"survey":  "📊 Help us improve! Take our short feedback survey and win 1000 birr!\n👉 https://ask.atenu.org/atenu-feedback-2025",
	"help": "ℹ️ Here's what I can do:\n" +
		"/courses – Explore learning materials\n" +
		"/quiz – Try past exams and practice\n" +
		"/survey – Share feedback and win\n" +
		"/news – Read latest Atenu updates\n" +
		"/scholarships – Find scholarship info\n" +
		"/register – Create your Atenu account\n" +
		"/donate – Support free education\n" +
		"/contact – Reach our support team",
	"contact":      "📬 Contact us at info@atenu.org or message us on our Telegram Group Chat: https://t.me/atenuGroup",
	"news":         "📰 Stay updated with the latest news by visiting our Telegram Channel: https://t.me/atenuChannel",
	"scholarships": "🎓 Browse scholarships for Ethiopian students: https://atenu.org/scholarships-directory/",
	"register":     "🆕 Create your free account now: https://atenu.org/student-registration/",
	"donate":       "💖 Support free learning in Ethiopia: https://atenu.org/donate",
}

// TicketRecorder logs help-bot interactions for the support team. Recording
// failures never block the reply.
type TicketRecorder interface {
	RecordHelpTicket(ctx context.Context, ticket domain.HelpTicket) error
}

// NoopTicketRecorder discards tickets. Used when the help bot runs without
// a database.
type NoopTicketRecorder struct{}

func (NoopTicketRecorder) RecordHelpTicket(ctx context.Context, ticket domain.HelpTicket) error {
	return nil
}

// HelpBot answers a fixed set of FAQ commands with canned responses.
type HelpBot struct {
	api     api
	tickets TicketRecorder
	clock   func() time.Time
}

func NewHelpBot(api api, tickets TicketRecorder) *HelpBot {
	return &HelpBot{api: api, tickets: tickets, clock: time.Now}
}

// Run consumes updates until ctx is done.
func (b *HelpBot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *HelpBot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	response, ok := helpResponses[cmd]
	if !ok {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.DisableWebPagePreview = true
	if _, err := b.api.Send(reply); err != nil {
		slog.Error("failed to send help response",
			slog.String("command", cmd),
			slog.Int64("chat_id", msg.Chat.ID),
			slog.Any("error", err))
		return
	}

	if msg.From != nil {
		ticket := domain.HelpTicket{
			UserID:    msg.From.ID,
			Username:  msg.From.UserName,
			Command:   cmd,
			CreatedAt: b.clock(),
		}
		if err := b.tickets.RecordHelpTicket(ctx, ticket); err != nil {
			slog.Warn("failed to record help ticket",
				slog.String("command", cmd),
				slog.Int64("user_id", msg.From.ID),
				slog.Any("error", err))
		}
		slog.Info("help command executed",
			slog.String("command", cmd),
			slog.Int64("user_id", msg.From.ID))
	}
}
