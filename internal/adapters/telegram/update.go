package telegram

import (
	"relaybot/internal/core/domain"

	"github.com/go-telegram/bot/models"
)

// ToEvent converts a Bot API update into a domain event.
func ToEvent(u models.Update) domain.Event {
	ev := domain.Event{UpdateID: u.ID}

	if u.Message != nil {
		ev.Message = toMessage(u.Message)
	}

	if cb := u.CallbackQuery; cb != nil {
		action := &domain.CallbackAction{
			ID:     cb.ID,
			FromID: cb.From.ID,
			Data:   cb.Data,
		}

		switch {
		case cb.Message.Message != nil:
			action.ChatID = cb.Message.Message.Chat.ID
		case cb.Message.InaccessibleMessage != nil:
			action.ChatID = cb.Message.InaccessibleMessage.Chat.ID
		}

		ev.Callback = action
	}

	return ev
}

func toMessage(m *models.Message) *domain.Message {
	msg := &domain.Message{
		ID:           m.ID,
		ChatID:       m.Chat.ID,
		ChatType:     string(m.Chat.Type),
		ChatUsername: m.Chat.Username,
		Text:         m.Text,
	}

	if m.From != nil {
		msg.FromID = m.From.ID
		msg.Username = m.From.Username
		msg.FirstName = m.From.FirstName
	}

	if m.Contact != nil {
		msg.Contact = &domain.Contact{
			PhoneNumber: m.Contact.PhoneNumber,
			FirstName:   m.Contact.FirstName,
			LastName:    m.Contact.LastName,
			UserID:      m.Contact.UserID,
		}
	}

	if m.Location != nil {
		msg.Location = &domain.Location{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}

	return msg
}
