// internal/infra/telegram/client.go
package telegram

import (
	"fmt"

	"whatsapp_gateway/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a plain text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string) error {
	recipient := &telebot.User{ID: chatID} // The admin is always a direct user chat
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}

// AdminAlerter forwards background failures to the administrator chat.
type AdminAlerter struct {
	client  telegram.Client
	adminID int64
	logger  *logrus.Entry
}

func NewAdminAlerter(client telegram.Client, adminID int64, logger *logrus.Entry) *AdminAlerter {
	return &AdminAlerter{client: client, adminID: adminID, logger: logger}
}

// Alert sends a short failure notice. Delivery errors are only logged.
func (a *AdminAlerter) Alert(job string, err error) {
	text := fmt.Sprintf("WhatsApp gateway: %s failed: %v", job, err)
	if sendErr := a.client.SendMessage(a.adminID, text); sendErr != nil {
		a.logger.WithError(sendErr).WithField("job", job).Warn("Could not alert admin")
	}
}
