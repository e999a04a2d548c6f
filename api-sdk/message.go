package apisdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/hilthontt/parley/api-sdk/internal/apijson"
	"github.com/hilthontt/parley/api-sdk/internal/apiquery"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

type MessageType string

const (
	MessageTypeUser   MessageType = ""
	MessageTypeSystem MessageType = "SYSTEM"
)

type AttachmentType string

const (
	AttachmentImage AttachmentType = "IMAGE"
	AttachmentFile  AttachmentType = "FILE"
)

type Message struct {
	ID         string        `json:"id"`
	RoomID     string        `json:"roomId"`
	SenderID   string        `json:"senderId"`
	Sender     MessageSender `json:"sender"`
	Content    string        `json:"content"`
	Attachment *Attachment   `json:"attachment,omitempty"`
	Type       MessageType   `json:"type,omitempty"`
	Action     string        `json:"action,omitempty"`
	CreatedAt  time.Time     `json:"createdAt,omitzero"`
	UpdatedAt  time.Time     `json:"updatedAt,omitzero"`
}

func (m Message) Key() string { return m.ID }

// IsSystem reports a join or leave notice. Action then holds "join" or
// "leave".
func (m Message) IsSystem() bool { return m.Type == MessageTypeSystem }

type MessageSender struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func (s MessageSender) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Username
}

type Attachment struct {
	Type     AttachmentType `json:"type"`
	URL      string         `json:"url"`
	FileName string         `json:"fileName,omitempty"`
	FileSize int64          `json:"fileSize,omitempty"`
}

// MessagePage is one backward page of history, oldest first.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
}

type MessageService struct {
	Options []option.RequestOption
}

func NewMessageService(opts ...option.RequestOption) *MessageService {
	m := &MessageService{opts}
	return m
}

// List fetches the newest page of a room, or the page before params.Cursor.
func (m *MessageService) List(ctx context.Context, roomID string, params MessageListParams, opts ...option.RequestOption) (*MessagePage, error) {
	opts = slices.Concat(m.Options, opts)
	if roomID == "" {
		return nil, ErrMissingRoomIDParameter
	}

	path := fmt.Sprintf("messages/%s", url.PathEscape(roomID))

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, params, &raw, opts...); err != nil {
		return nil, err
	}

	res := &MessagePage{}
	if err := apijson.UnmarshalData(raw, "", res); err != nil {
		return nil, err
	}
	if res.Messages == nil {
		res.Messages = []Message{}
	}
	return res, nil
}

// Send posts a message. The created message is delivered to every member,
// the sender included, over the realtime channel.
func (m *MessageService) Send(ctx context.Context, body MessageNewParams, opts ...option.RequestOption) (*Message, error) {
	opts = slices.Concat(m.Options, opts)
	if body.RoomID == "" {
		return nil, ErrMissingRoomIDParameter
	}
	path := "messages"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &raw, opts...); err != nil {
		return nil, err
	}

	if !apijson.Data(raw, "message").Exists() {
		return nil, nil
	}
	res := &Message{}
	if err := apijson.UnmarshalData(raw, "message", res); err != nil {
		return nil, err
	}
	return res, nil
}

// Upload stores a file for roomID and returns the attachment to reference
// from a following Send.
func (m *MessageService) Upload(ctx context.Context, roomID, filePath string, opts ...option.RequestOption) (*Attachment, error) {
	opts = slices.Concat(m.Options, opts)
	if roomID == "" {
		return nil, ErrMissingRoomIDParameter
	}
	if filePath == "" {
		return nil, ErrMissingFilePath
	}
	path := "messages/upload"

	form, err := newMultipartForm("file", filePath, map[string]string{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	opts = append(opts, option.WithHeader("Content-Type", form.ContentType))

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, form.Body, &raw, opts...); err != nil {
		return nil, err
	}

	res := &Attachment{}
	if err := apijson.UnmarshalData(raw, "attachment", res); err != nil {
		return nil, err
	}
	return res, nil
}

type MessageListParams struct {
	Cursor string `query:"cursor,omitempty"`
	Limit  int    `query:"limit,omitempty"`
}

func (p MessageListParams) URLQuery() url.Values {
	return apiquery.Marshal(p)
}

type MessageNewParams struct {
	RoomID     string      `json:"roomId"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment"`
}
