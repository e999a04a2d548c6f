package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrEmptyID = errors.New("event carries no id")

type PresencePayload struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

type UserPayload struct {
	UserID string `json:"userId"`
}

// TypingPayload is used in both directions. RoomID may be absent on inbound
// events, in which case the open room is meant.
type TypingPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
}

type AdminUserStatusPayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type AdminRoomOnlinePayload struct {
	RoomID        string `json:"roomId"`
	OnlineMembers int    `json:"onlineMembers"`
	TotalMembers  int    `json:"totalMembers"`
}

type AdminRoomMessagesPayload struct {
	RoomID        string `json:"roomId"`
	MessagesCount int    `json:"messagesCount"`
}

// AdminRoomPatch is the partial room of admin:room-updated.
type AdminRoomPatch struct {
	ID            string  `json:"id"`
	Name          *string `json:"name,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	Description   *string `json:"description,omitempty"`
	IsPrivate     *bool   `json:"isPrivate,omitempty"`
	TotalMembers  *int    `json:"totalMembers,omitempty"`
	OnlineMembers *int    `json:"onlineMembers,omitempty"`
	MessagesCount *int    `json:"messagesCount,omitempty"`
}

type AvatarPayload struct {
	UserID    string `json:"userId"`
	AvatarURL string `json:"avatarUrl"`
}

// Decode unmarshals the payload of m into T.
func Decode[T any](m Message) (T, error) {
	var out T
	if len(m.Data) == 0 {
		return out, fmt.Errorf("%s: empty payload", m.Event)
	}
	if err := json.Unmarshal(m.Data, &out); err != nil {
		return out, fmt.Errorf("%s: %w", m.Event, err)
	}
	return out, nil
}

// DecodeID reads an id payload. Servers send either a bare JSON string or
// an object with one of the usual id fields.
func DecodeID(m Message) (string, error) {
	res := gjson.ParseBytes(m.Data)

	var id string
	switch {
	case res.Type == gjson.String:
		id = res.String()
	case res.IsObject():
		for _, field := range []string{"id", "roomId", "messageId"} {
			if v := res.Get(field); v.Exists() {
				id = v.String()
				break
			}
		}
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s: %w", m.Event, ErrEmptyID)
	}
	return id, nil
}
