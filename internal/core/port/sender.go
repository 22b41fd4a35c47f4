package port

import (
	"context"
	"encoding/json"

	"github.com/go-telegram/bot/models"
)

type Sender interface {
	// SendText sends a plain text message to a chat, split into several messages if too long.
	SendText(ctx context.Context, chatID int64, text string) error
	// SendReply sends a text message with a keyboard attached.
	SendReply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error
	// SendDocument uploads a local file to a chat. Uploads are never retried.
	SendDocument(ctx context.Context, chatID int64, path string) error
	// AnswerCallback acknowledges a button press.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Fetcher interface {
	// GetChat returns the raw chat description for a chat or user ID.
	GetChat(ctx context.Context, chatID int64) (json.RawMessage, error)
	// GetUserProfilePhotos returns the profile photos of a user.
	GetUserProfilePhotos(ctx context.Context, userID int64) (models.UserProfilePhotos, error)
	// GetFile resolves a file ID to a downloadable file path.
	GetFile(ctx context.Context, fileID string) (models.File, error)
	// DownloadFile returns the content of a file previously resolved by GetFile.
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// Client is the handle passed to every handler.
type Client interface {
	Sender
	Fetcher
}
