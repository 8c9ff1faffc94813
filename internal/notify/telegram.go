package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tele "gopkg.in/telebot.v4"

	"git.home.luguber.info/inful/presencewatch/internal/config"
)

// TelegramSender sends alerts as HTML messages to one chat.
type TelegramSender struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegramSender creates the bot client without contacting Telegram.
func NewTelegramSender(cfg config.TelegramConfig) (*TelegramSender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chat: &tele.Chat{ID: cfg.ChatID}}, nil
}

func (t *TelegramSender) Name() string { return "telegram" }

// Send posts the alert. The bot API call is not context aware; ctx is only checked before
// sending.
func (t *TelegramSender) Send(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, TelegramText(alert), &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	return err
}

// TelegramText renders the alert as Telegram HTML.
func TelegramText(alert Alert) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(alert.DisplayName))
	b.WriteString("</b> is now <b>")
	b.WriteString(html.EscapeString(alert.State))
	b.WriteString("</b>")
	if alert.Detail != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(alert.Detail))
	}
	return b.String()
}
