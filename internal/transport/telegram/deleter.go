package telegram

import (
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type deleteKey struct {
	chatID    int64
	messageID int
}

// MessageDeleter removes result and explanation messages after a fixed delay
// to keep quiz chats readable. Pending deletions are keyed by (chat, message)
// so they can be cancelled or collapsed when the same message is rescheduled.
type MessageDeleter struct {
	api   api
	delay time.Duration

	mu      sync.Mutex
	pending map[deleteKey]*time.Timer
}

func NewMessageDeleter(api api, delay time.Duration) *MessageDeleter {
	return &MessageDeleter{
		api:     api,
		delay:   delay,
		pending: make(map[deleteKey]*time.Timer),
	}
}

// Schedule arms (or re-arms) the delayed deletion of one message.
func (d *MessageDeleter) Schedule(chatID int64, messageID int) {
	key := deleteKey{chatID: chatID, messageID: messageID}

	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[key]; ok {
		timer.Stop()
	}
	d.pending[key] = time.AfterFunc(d.delay, func() {
		d.fire(key)
	})
}

// Cancel drops a pending deletion, if any.
func (d *MessageDeleter) Cancel(chatID int64, messageID int) {
	key := deleteKey{chatID: chatID, messageID: messageID}

	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[key]; ok {
		timer.Stop()
		delete(d.pending, key)
	}
}

// Stop cancels every pending deletion. Used on shutdown.
func (d *MessageDeleter) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}

func (d *MessageDeleter) fire(key deleteKey) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()

	// The message may already be gone; that is fine.
	if _, err := d.api.Request(tgbotapi.NewDeleteMessage(key.chatID, key.messageID)); err != nil {
		slog.Debug("delete message failed",
			slog.Int64("chat_id", key.chatID),
			slog.Int("message_id", key.messageID),
			slog.Any("error", err))
	}
}
