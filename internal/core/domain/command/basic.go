package command

import (
	"context"
	"fmt"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Ping answers every request with "pong".
func Ping(ctx context.Context, client port.Client, event *domain.Event) error {
	return client.SendText(ctx, event.Message.ChatID, "pong")
}

// Echo sends the command arguments back unchanged. Nothing is sent when there are none.
func Echo(ctx context.Context, client port.Client, event *domain.Event) error {
	text := ParseCommandArgs(event.Message.Text)
	if text == "" {
		log.Debug().Int64("chatId", event.Message.ChatID).Msg("nothing to echo")
		return nil
	}

	return client.SendText(ctx, event.Message.ChatID, text)
}

// Whoami reports the sender's ID and username, falling back to the first name.
func Whoami(ctx context.Context, client port.Client, event *domain.Event) error {
	msg := event.Message
	if msg.FromID == 0 {
		return nil
	}

	return client.SendText(ctx, msg.ChatID, fmt.Sprintf("id: %d\nusername: %s", msg.FromID, msg.DisplayName()))
}

// Markup replies with a fixed text and keyboard.
type Markup struct {
	text   string
	markup models.ReplyMarkup
}

func NewMarkup(text string, markup models.ReplyMarkup) *Markup {
	return &Markup{text: text, markup: markup}
}

func (m *Markup) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	return client.SendReply(ctx, event.Message.ChatID, m.text, m.markup)
}

const (
	callbackAck    = "Received"
	callbackNoData = "(no data)"
)

// Button acknowledges any inline button press and tells the chat which button was pressed.
func Button(ctx context.Context, client port.Client, event *domain.Event) error {
	cb := event.Callback

	l := log.With().Str("callbackId", cb.ID).Int64("chatId", cb.ChatID).Logger()

	if err := client.AnswerCallback(ctx, cb.ID, callbackAck); err != nil {
		l.Warn().Err(err).Msg("failed to answer callback")
	}

	if cb.ChatID == 0 {
		l.Debug().Msg("callback without chat, skipping reply")
		return nil
	}

	data := cb.Data
	if data == "" {
		data = callbackNoData
	}

	return client.SendText(ctx, cb.ChatID, "Button pressed: "+data)
}
