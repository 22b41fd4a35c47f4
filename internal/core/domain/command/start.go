package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// MaxInlineReport is the report size from which the operator receives a document instead of a message.
const MaxInlineReport = 3500

const welcomeTemplate = "Hello, %s! Welcome. Type /help to see available commands."

type Start struct {
	users  port.UserSet
	auth   port.Authorizer
	files  port.TempFiles
	markup models.ReplyMarkup
}

func NewStart(users port.UserSet, auth port.Authorizer, files port.TempFiles, markup models.ReplyMarkup) *Start {
	return &Start{users: users, auth: auth, files: files, markup: markup}
}

// Handle registers the chat, welcomes the user and tells the operator about the new user.
func (s *Start) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	msg := event.Message

	l := log.With().
		Int("messageId", msg.ID).
		Int64("chatId", msg.ChatID).
		Str("command", "start").
		Logger()

	l.Info().Msg("handling request")

	if err := s.users.Add(ctx, msg.ChatID); err != nil {
		l.Error().Err(err).Msg("failed to register user")
	}

	name := msg.FirstName
	if name == "" {
		name = "there"
	}

	if err := client.SendReply(ctx, msg.ChatID, fmt.Sprintf(welcomeTemplate, name), s.markup); err != nil {
		return err
	}

	operator, ok := s.auth.Operator()
	if !ok {
		return nil
	}

	if err := s.report(ctx, client, operator, msg); err != nil {
		l.Warn().Err(err).Msg("failed to send start report to operator")
	}

	return nil
}

func (s *Start) report(ctx context.Context, client port.Client, operator int64, msg *domain.Message) error {
	info := startReport(msg)
	if len(info) < MaxInlineReport {
		return client.SendText(ctx, operator, info)
	}

	path, err := s.files.Save([]byte(info), ".json")
	if err != nil {
		return fmt.Errorf("could not store report: %w", err)
	}
	defer s.files.Remove(path)

	return client.SendDocument(ctx, operator, path)
}

func startReport(msg *domain.Message) string {
	var sb strings.Builder

	sb.WriteString("New /start received:\n\n")
	fmt.Fprintf(&sb, "chat: id=%d type=%s username=%s\n", msg.ChatID, msg.ChatType, msg.ChatUsername)
	fmt.Fprintf(&sb, "from: id=%d username=%s first_name=%s\n", msg.FromID, msg.Username, msg.FirstName)
	fmt.Fprintf(&sb, "message_id: %d\n", msg.ID)
	fmt.Fprintf(&sb, "text: %s\n\n", msg.Text)

	if raw, err := json.MarshalIndent(msg, "", "  "); err == nil {
		sb.WriteString("raw_json:\n")
		sb.Write(raw)
		sb.WriteString("\n")
	}

	return sb.String()
}
