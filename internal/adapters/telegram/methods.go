package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"time"

	"relaybot/internal/adapters/file"
	"relaybot/internal/core/domain"
	"relaybot/internal/metrics"

	"github.com/go-telegram/bot/models"
)

// MessageLimit is the maximum number of characters in one text message.
const MessageLimit = 4096

type sendMessageParams struct {
	ChatID      int64              `json:"chat_id"`
	Text        string             `json:"text"`
	ReplyMarkup models.ReplyMarkup `json:"reply_markup,omitempty"`
}

// SendText sends text to a chat, split into chunks of at most MessageLimit characters.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitText(text, MessageLimit) {
		if err := c.SendReply(ctx, chatID, chunk, nil); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) SendReply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	_, err := Call[models.Message](ctx, c, "sendMessage", sendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})

	return err
}

// SendDocument uploads a local file in a single multipart request. It does not retry: the
// content is read once and any failure is returned to the caller as is.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path string) error {
	const method = "sendDocument"

	data, err := file.Read(path)
	if err != nil {
		return c.fail(&domain.CallError{Kind: domain.KindTransport, Method: method,
			Description: "could not read attachment", Err: err})
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return c.fail(&domain.CallError{Kind: domain.KindDecode, Method: method,
			Description: "could not encode form", Err: err})
	}

	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err == nil {
		_, err = part.Write(data)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return c.fail(&domain.CallError{Kind: domain.KindDecode, Method: method,
			Description: "could not encode form", Err: err})
	}

	res, err := c.post(ctx, method, mw.FormDataContentType(), body)
	if err != nil {
		return c.fail(err)
	}

	if _, callErr, _, _ := classify(method, res); callErr != nil {
		return c.fail(callErr)
	}
	metrics.APICallsTotal.WithLabelValues(method, "success").Inc()

	return nil
}

type answerCallbackParams struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert"`
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := Call[bool](ctx, c, "answerCallbackQuery", answerCallbackParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})

	return err
}

type getUpdatesParams struct {
	Offset  int64 `json:"offset"`
	Timeout int   `json:"timeout"`
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]models.Update, error) {
	return Call[[]models.Update](ctx, c, "getUpdates", getUpdatesParams{
		Offset:  offset,
		Timeout: int(timeout.Seconds()),
	})
}

func (c *Client) GetMe(ctx context.Context) (models.User, error) {
	return Call[models.User](ctx, c, "getMe", struct{}{})
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (json.RawMessage, error) {
	return Call[json.RawMessage](ctx, c, "getChat", map[string]int64{"chat_id": chatID})
}

func (c *Client) GetUserProfilePhotos(ctx context.Context, userID int64) (models.UserProfilePhotos, error) {
	return Call[models.UserProfilePhotos](ctx, c, "getUserProfilePhotos", map[string]int64{"user_id": userID})
}

func (c *Client) GetFile(ctx context.Context, fileID string) (models.File, error) {
	return Call[models.File](ctx, c, "getFile", map[string]string{"file_id": fileID})
}

// DownloadFile fetches a file resolved by GetFile from the file endpoint.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	data, err := file.Download(ctx, c.http, c.fileURL(filePath))
	if err != nil {
		return nil, c.fail(&domain.CallError{Kind: domain.KindTransport, Method: "downloadFile",
			Description: "download failed", Err: err})
	}

	return data, nil
}

func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}

	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
