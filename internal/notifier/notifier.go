// Package notifier delivers accepted-listing alerts to the operator's
// Telegram chat.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"
)

// Notifier sends one message per notable listing. It never receives updates;
// the bot is used strictly as a delivery channel.
type Notifier struct {
	bot   *telebot.Bot
	chat  telebot.Recipient
	log   *slog.Logger
	delay time.Duration
}

// New authorizes the bot token and binds the operator chat. delay is slept
// between consecutive sends to stay under Telegram's rate limits.
func New(log *slog.Logger, token string, chatID int64, delay time.Duration) (*Notifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	return &Notifier{
		bot:   bot,
		chat:  telebot.ChatID(chatID),
		log:   log,
		delay: delay,
	}, nil
}

// Notify delivers one alert and reports the delivery outcome. A photo URL is
// attempted first; on photo failure the alert degrades to a plain message.
// Failure is absorbed here, it must never block the commit. The rate-limit
// pause applies to failed sends too, so a string of failures does not hammer
// the API back-to-back.
func (n *Notifier) Notify(ctx context.Context, title, price, link, imageURL string) bool {
	defer n.pause(ctx)

	caption := fmt.Sprintf("<b>%s</b>\n%s\n%s", title, price, link)
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}

	if imageURL != "" {
		photo := &telebot.Photo{File: telebot.FromURL(imageURL), Caption: caption}
		if _, err := n.bot.Send(n.chat, photo, opts); err == nil {
			return true
		}
		n.log.WarnContext(ctx, "photo notification failed, falling back to text", "link", link)
	}

	if _, err := n.bot.Send(n.chat, caption, opts); err != nil {
		n.log.WarnContext(ctx, "notification delivery failed", "link", link, "error", err)
		return false
	}

	return true
}

func (n *Notifier) pause(ctx context.Context) {
	if n.delay <= 0 {
		return
	}
	timer := time.NewTimer(n.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
