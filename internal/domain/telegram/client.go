package telegram

// Client sends text to Telegram chats. The gateway only uses it to reach
// its administrator.
type Client interface {
	SendMessage(chatID int64, text string) error
}
