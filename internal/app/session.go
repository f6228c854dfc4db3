package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"log/slog"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/cleanchistwood/cleanbot/core/logger"
	"github.com/cleanchistwood/cleanbot/internal/directory"
)

// chatObserver is the directory session client backed by the Bot API.
// The Bot API has no dialog listing, so group chats are learned from
// incoming updates: any group or channel the bot sees a message or a
// membership change in is remembered until the bot is removed from it.
type chatObserver struct {
	mu      sync.RWMutex
	dialogs map[int64]directory.Dialog

	bot     func() *tele.Bot
	limiter *rate.Limiter
}

func newChatObserver(bot func() *tele.Bot, perSecond float64) *chatObserver {
	return &chatObserver{
		dialogs: make(map[int64]directory.Dialog),
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Observe records a group or channel chat seen in an update. Private
// chats are ignored.
func (o *chatObserver) Observe(chat *tele.Chat) {
	if chat == nil {
		return
	}
	isGroup := chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup
	isChannel := chat.Type == tele.ChatChannel
	if !isGroup && !isChannel {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.dialogs[chat.ID] = directory.Dialog{
		ID:        chat.ID,
		Name:      chat.Title,
		Username:  chat.Username,
		IsChannel: isChannel,
		IsGroup:   isGroup,
	}
}

// Forget drops a chat, typically after the bot was kicked from it.
func (o *chatObserver) Forget(chatID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.dialogs, chatID)
}

// Dialogs returns the observed group chats, newest identifiers
// included, in a stable order.
func (o *chatObserver) Dialogs(ctx context.Context) ([]directory.Dialog, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]directory.Dialog, 0, len(o.dialogs))
	for _, d := range o.dialogs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SendMessage delivers text to the target chat, pacing outgoing group
// traffic with the shared limiter.
func (o *chatObserver) SendMessage(ctx context.Context, target directory.Target, message string) error {
	b := o.bot()
	if b == nil {
		return fmt.Errorf("session: bot is not running")
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := b.Send(tele.ChatID(target.ID), message)
	if err != nil {
		logger.Warn(ctx, "session", "send.failed",
			slog.Int64("chat_id", target.ID),
			slog.Any("error", err),
		)
	}
	return err
}

// Connected reports whether the bot runtime is up.
func (o *chatObserver) Connected() bool {
	return o.bot() != nil
}
