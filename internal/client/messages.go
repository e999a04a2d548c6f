package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/querycache"
)

// Messages loads one page of history, newest page first when cursor is
// empty. Pages are not stored: the open room's reconciler owns them.
func (c *Client) Messages(ctx context.Context, roomID, cursor string) (*apisdk.MessagePage, error) {
	return querycache.Shared(ctx, c.cache, keyMessages(roomID, cursor), func(ctx context.Context) (*apisdk.MessagePage, error) {
		return c.sdk.Messages.List(ctx, roomID, apisdk.MessageListParams{
			Cursor: cursor,
			Limit:  c.limits.PageSize,
		})
	})
}

// SendMessage posts once. The list is not touched here: the message:new
// event is what appends the message.
func (c *Client) SendMessage(ctx context.Context, roomID, content string, attachment *apisdk.Attachment) (*apisdk.Message, error) {
	if roomID == "" {
		return nil, apisdk.ErrMissingRoomIDParameter
	}

	return c.sdk.Messages.Send(ctx, apisdk.MessageNewParams{
		RoomID:     roomID,
		Content:    content,
		Attachment: attachment,
	})
}

// SendWithFile uploads path and then sends it with content. When the upload
// fails nothing is sent. Empty content becomes "Sent <file name>".
func (c *Client) SendWithFile(ctx context.Context, roomID, content, path string) (*apisdk.Message, error) {
	if roomID == "" {
		return nil, apisdk.ErrMissingRoomIDParameter
	}

	file, err := apisdk.InspectFile(path)
	if err != nil {
		return nil, err
	}
	if c.limits.MaxAttachmentBytes > 0 && file.Size > c.limits.MaxAttachmentBytes {
		return nil, fmt.Errorf("%w: file must be smaller than %s", ErrFileTooLarge, humanize.IBytes(uint64(c.limits.MaxAttachmentBytes)))
	}

	att, err := c.sdk.Messages.Upload(ctx, roomID, path)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", file.Name, err)
	}

	if strings.TrimSpace(content) == "" {
		name := att.FileName
		if name == "" {
			name = file.Name
		}
		content = "Sent " + name
	}

	return c.SendMessage(ctx, roomID, content, att)
}
