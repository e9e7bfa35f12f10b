// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID).Info("Processing /start command")
		return c.Send(startText(senderID, adminTelegramID, c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID).Info("Processing /help command")
		if senderID != adminTelegramID {
			return c.Send(helpText(false))
		}
		return c.Send(helpText(true), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func startText(senderID, adminID int64, firstName string) string {
	if senderID == adminID {
		return fmt.Sprintf("Hello, %s! The WhatsApp gateway is running. Use /help for the command list.", firstName)
	}
	return "Hello! This bot only answers the WhatsApp gateway administrator."
}

func helpText(admin bool) string {
	if !admin {
		return "No commands are available to you."
	}
	var b strings.Builder
	b.WriteString("Administrator commands:\n\n")
	b.WriteString("`/whatsapp_queue`\n - Show how many WhatsApp messages wait to be sent.\n\n")
	b.WriteString("`/whatsapp_errors <model> <id> [id...]`\n - List records whose WhatsApp notifications failed.\n\n")
	b.WriteString("`/whatsapp_cancel`\n - Dismiss failed WhatsApp notifications.\n\n")
	b.WriteString("`/help`\n - Show this message.")
	return b.String()
}
