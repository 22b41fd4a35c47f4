package command

import (
	"context"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const broadcastUsage = "usage: /broadcast <text>"

// Broadcast sends a text to every known chat. Operator only.
type Broadcast struct {
	users port.UserSet
	auth  port.Authorizer
}

func NewBroadcast(users port.UserSet, auth port.Authorizer) *Broadcast {
	return &Broadcast{users: users, auth: auth}
}

func (b *Broadcast) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	msg := event.Message
	if !b.auth.Authorize(ctx, client, msg.ChatID, msg.FromID) {
		return nil
	}

	body := ParseCommandArgs(msg.Text)
	if body == "" {
		return client.SendText(ctx, msg.ChatID, broadcastUsage)
	}

	users, err := b.users.List(ctx)
	if err != nil {
		return err
	}

	l := log.With().Str("command", "broadcast").Int("recipients", len(users)).Logger()
	l.Info().Msg("broadcasting message")

	failed := 0
	for _, id := range users {
		if err := client.SendText(ctx, id, body); err != nil {
			failed++
			l.Warn().Err(err).Int64("chatId", id).Msg("broadcast delivery failed")
		}
	}

	if failed > 0 {
		l.Warn().Int("failed", failed).Msg("broadcast finished with failures")
	}

	return nil
}
