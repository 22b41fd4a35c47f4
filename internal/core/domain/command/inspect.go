package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Inspect reports what the API exposes about a user: the chat description and the first
// profile photo. Operator only.
type Inspect struct {
	auth port.Authorizer
}

func NewInspect(auth port.Authorizer) *Inspect {
	return &Inspect{auth: auth}
}

func (i *Inspect) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	msg := event.Message
	if !i.auth.Authorize(ctx, client, msg.ChatID, msg.FromID) {
		return nil
	}

	target := inspectTarget(msg)

	log.Info().Int64("chatId", msg.ChatID).Int64("target", target).Str("command", "inspect").Msg("handling request")

	return client.SendText(ctx, msg.ChatID, i.report(ctx, client, target))
}

// inspectTarget picks the user ID given as first argument, then the sender, then the chat.
func inspectTarget(msg *domain.Message) int64 {
	if fields := strings.Fields(ParseCommandArgs(msg.Text)); len(fields) > 0 {
		if id, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
			return id
		}
	}

	if msg.FromID != 0 {
		return msg.FromID
	}

	return msg.ChatID
}

func (i *Inspect) report(ctx context.Context, client port.Client, target int64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "target_user_id: %d\n", target)

	if raw, err := client.GetChat(ctx, target); err == nil {
		var pretty bytes.Buffer
		if json.Indent(&pretty, raw, "", "  ") != nil {
			pretty.Reset()
			pretty.Write(raw)
		}
		fmt.Fprintf(&sb, "getChat: %s\n", pretty.String())
	} else {
		sb.WriteString("getChat failed\n")
	}

	photos, err := client.GetUserProfilePhotos(ctx, target)
	if err != nil {
		sb.WriteString("failed to get profile photos\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "profile_photos_total: %d\n", photos.TotalCount)
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return sb.String()
	}

	sizes := photos.Photos[0]
	best := sizes[len(sizes)-1]
	fmt.Fprintf(&sb, "chosen_photo_file_id: %s\n", best.FileID)

	info, err := client.GetFile(ctx, best.FileID)
	if err != nil {
		sb.WriteString("getFile failed\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "file_info: file_id=%s file_path=%s file_size=%d\n", info.FileID, info.FilePath, info.FileSize)
	if info.FilePath == "" {
		sb.WriteString("file has no file_path (maybe not downloadable)\n")
		return sb.String()
	}

	data, err := client.DownloadFile(ctx, info.FilePath)
	if err != nil {
		sb.WriteString("failed to download file bytes\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "downloaded_bytes: %d\n", len(data))

	return sb.String()
}
