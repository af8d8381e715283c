// Package notify delivers payment alerts produced by services.AlertProcessor.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/telebot.v3"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/services"
)

var (
	_ services.AlertNotifier = (*LogNotifier)(nil)
	_ services.AlertNotifier = (*TelegramNotifier)(nil)
)

// LogNotifier writes alerts to the log. Used when no chat transport is set.
type LogNotifier struct {
	logger *log.Logger
	locale core.Locale
}

func NewLogNotifier(logger *log.Logger, locale core.Locale) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify), locale: locale}
}

func (n *LogNotifier) NotifyDue(ctx context.Context, user core.User, today core.Date, alerts []services.Alert) error {
	n.logger.InfoContext(ctx, "Payment alerts",
		log.FieldUserID, user.ID,
		"alerts", len(alerts),
		"digest", FormatAlerts(n.locale, user, today, alerts))
	return nil
}

type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelegramNotifier sends each digest to one Telegram chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
	locale core.Locale
}

// NewTelegramNotifier builds an offline bot; it only sends, never polls.
func NewTelegramNotifier(token string, chatID int64, locale core.Locale) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, locale: locale}, nil
}

func (n *TelegramNotifier) NotifyDue(ctx context.Context, user core.User, today core.Date, alerts []services.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := FormatAlerts(n.locale, user, today, alerts)
	if _, err := n.bot.Send(&telebot.User{ID: n.chatID}, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}
