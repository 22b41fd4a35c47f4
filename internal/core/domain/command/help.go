package command

import (
	"context"
	"slices"
	"strings"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type usage struct {
	name, line string
}

var usages = []usage{
	{"start", "/start - start and register"},
	{"help", "/help - this message"},
	{"ping", "/ping - pong"},
	{"echo", "/echo <text> - echo back text"},
	{"whoami", "/whoami - show your id and username"},
	{"keyboard", "/keyboard - show custom keyboard"},
	{"inline", "/inline - show inline buttons example"},
	{"set", "/set <k> <v> - save key/value"},
	{"get", "/get <k> - get saved value"},
	{"broadcast", "/broadcast <text> - send to all users (admin only)"},
	{"inspect", "/inspect [user_id] - inspect a user (admin only)"},
	{"upload", "/upload - upload a file"},
	{"stats", "/stats - show simple stats"},
	{"debug", "/debug - show runtime info (admin only)"},
}

const (
	helpHeader   = "Available commands:\n"
	adminEnabled = "\nAdmin commands are enabled.\n"
	adminNotSet  = "\nNote: ADMIN_ID not set. Some commands require ADMIN_ID.\n"
)

type Help struct {
	registry port.CommandRegistry
	auth     port.Authorizer
	markup   models.ReplyMarkup
}

func NewHelp(registry port.CommandRegistry, auth port.Authorizer, markup models.ReplyMarkup) *Help {
	return &Help{registry: registry, auth: auth, markup: markup}
}

// Handle lists the registered commands, in a fixed order, followed by a note about admin commands.
func (h *Help) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	log.Info().Int64("chatId", event.Message.ChatID).Str("command", "help").Msg("handling request")

	registered := h.registry.ListCommands()

	var sb strings.Builder
	sb.WriteString(helpHeader)
	for _, u := range usages {
		if slices.Contains(registered, u.name) {
			sb.WriteString(u.line + "\n")
		}
	}

	if _, ok := h.auth.Operator(); ok {
		sb.WriteString(adminEnabled)
	} else {
		sb.WriteString(adminNotSet)
	}

	return client.SendReply(ctx, event.Message.ChatID, sb.String(), h.markup)
}
