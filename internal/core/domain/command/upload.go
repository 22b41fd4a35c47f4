package command

import (
	"context"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"
)

// Upload sends a fixed local file to the chat.
type Upload struct {
	path string
}

func NewUpload(path string) *Upload {
	return &Upload{path: path}
}

func (u *Upload) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	return client.SendDocument(ctx, event.Message.ChatID, u.path)
}
