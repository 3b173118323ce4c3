// Package notify implements the outbound notification collaborator. The
// default production backend is the game's companion Telegram bot; users who
// have linked a chat receive battle and rebellion updates there.
package notify

import (
	"fmt"

	"github.com/dominionwar/dominion/internal/repositories"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramNotifier struct {
	api      *tgbotapi.BotAPI
	userRepo *repositories.UserRepository
}

func NewTelegramNotifier(botToken string, userRepo *repositories.UserRepository) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier bot: %w", err)
	}
	return &TelegramNotifier{api: api, userRepo: userRepo}, nil
}

// Notify delivers a payload to the user's linked chat. Users without a
// linked chat are silently skipped; callers already treat delivery as
// best-effort.
func (n *TelegramNotifier) Notify(userID uint, payload string) error {
	user, err := n.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.ChatID == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(user.ChatID, payload)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
