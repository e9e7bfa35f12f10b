package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"whatsapp_gateway/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgNotAuthorized = "Error: you are not allowed to run this command."

// AdminAPI is the part of app.AdminService the chat commands use.
type AdminAPI interface {
	QueueStatus(ctx context.Context, performingAdminID int64) (int, error)
	WhatsAppErrors(ctx context.Context, performingAdminID int64, model string, ids []int64) ([]int64, error)
	CancelFailed(ctx context.Context, performingAdminID int64) (int64, error)
}

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, admin service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService AdminAPI, adminTelegramID int64, baseLogger *logrus.Entry) {
	cmds := &adminCommands{admin: adminService, adminID: adminTelegramID, logger: baseLogger}

	b.Handle("/whatsapp_queue", func(c telebot.Context) error {
		return c.Send(cmds.queue(ctx, c.Sender().ID))
	})
	b.Handle("/whatsapp_errors", func(c telebot.Context) error {
		return c.Send(cmds.errors(ctx, c.Sender().ID, c.Args()))
	})
	b.Handle("/whatsapp_cancel", func(c telebot.Context) error {
		return c.Send(cmds.cancel(ctx, c.Sender().ID))
	})
}

// adminCommands holds the command logic so it can run without a live bot.
type adminCommands struct {
	admin   AdminAPI
	adminID int64
	logger  *logrus.Entry
}

func (a *adminCommands) handlerLogger(handler string, senderID int64) *logrus.Entry {
	return a.logger.WithFields(logrus.Fields{
		"handler":   handler,
		"sender_id": senderID,
	})
}

func (a *adminCommands) queue(ctx context.Context, senderID int64) string {
	handlerLogger := a.handlerLogger("/whatsapp_queue", senderID)
	handlerLogger.Info("Command received")

	if senderID != a.adminID {
		handlerLogger.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}

	n, err := a.admin.QueueStatus(ctx, senderID)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to read queue length")
		return fmt.Sprintf("Could not read the WhatsApp queue: %s", err.Error())
	}
	if n == 0 {
		return "The WhatsApp queue is empty."
	}
	return fmt.Sprintf("%d WhatsApp message(s) waiting to be sent.", n)
}

func (a *adminCommands) errors(ctx context.Context, senderID int64, args []string) string {
	handlerLogger := a.handlerLogger("/whatsapp_errors", senderID)
	handlerLogger.Info("Command received")

	if senderID != a.adminID {
		handlerLogger.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}

	// Expected format: /whatsapp_errors <model> <id> [id...]
	if len(args) < 2 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return "Invalid format. Use: /whatsapp_errors <model> <id> [id...]"
	}

	model := args[0]
	ids := make([]int64, 0, len(args)-1)
	for _, raw := range args[1:] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			handlerLogger.WithField("arg", raw).Warn("Invalid record ID format")
			return fmt.Sprintf("Error: record ID %q must be a number.", raw)
		}
		ids = append(ids, id)
	}
	handlerLogger = handlerLogger.WithFields(logrus.Fields{"model": model, "ids": ids})

	failed, err := a.admin.WhatsAppErrors(ctx, senderID, model, ids)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, app.ErrAdminNotAuthorized):
			logWithError.Warn("Admin not authorized (service level)")
			return msgNotAuthorized
		default:
			logWithError.Error("Failed to check WhatsApp errors")
			return fmt.Sprintf("Could not check WhatsApp errors: %s", err.Error())
		}
	}

	if len(failed) == 0 {
		return fmt.Sprintf("No failed WhatsApp notifications on %s.", model)
	}
	parts := make([]string, len(failed))
	for i, id := range failed {
		parts[i] = strconv.FormatInt(id, 10)
	}
	handlerLogger.WithField("failed_count", len(failed)).Info("Records with WhatsApp errors found")
	return fmt.Sprintf("Failed WhatsApp notifications on %s: %s", model, strings.Join(parts, ", "))
}

func (a *adminCommands) cancel(ctx context.Context, senderID int64) string {
	handlerLogger := a.handlerLogger("/whatsapp_cancel", senderID)
	handlerLogger.Info("Command received")

	if senderID != a.adminID {
		handlerLogger.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}

	n, err := a.admin.CancelFailed(ctx, senderID)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to cancel WhatsApp notifications")
		return fmt.Sprintf("Could not cancel failed notifications: %s", err.Error())
	}
	handlerLogger.WithField("canceled", n).Info("Failed WhatsApp notifications canceled")
	return fmt.Sprintf("%d failed WhatsApp notification(s) canceled.", n)
}
