package command

import (
	"context"
	"strings"
	"unicode"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	notSet   = "(not set)"
	setUsage = "usage: /set <key> <value>"
	getUsage = "usage: /get <key>"
)

// Set stores a value under a key. The key is the first argument, the value everything after it.
type Set struct {
	store port.KeyValueStore
}

func NewSet(store port.KeyValueStore) *Set {
	return &Set{store: store}
}

func (s *Set) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	key, value := splitFirst(ParseCommandArgs(event.Message.Text))
	if key == "" || value == "" {
		return client.SendText(ctx, event.Message.ChatID, setUsage)
	}

	log.Debug().Int64("chatId", event.Message.ChatID).Str("key", key).Msg("storing value")

	return s.store.Set(ctx, key, value)
}

type Get struct {
	store port.KeyValueStore
}

func NewGet(store port.KeyValueStore) *Get {
	return &Get{store: store}
}

func (g *Get) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	key := strings.TrimSpace(ParseCommandArgs(event.Message.Text))
	if key == "" {
		return client.SendText(ctx, event.Message.ChatID, getUsage)
	}

	value, ok, err := g.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		value = notSet
	}

	return client.SendText(ctx, event.Message.ChatID, value)
}

// splitFirst splits s after its first whitespace-delimited word.
func splitFirst(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}

	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
