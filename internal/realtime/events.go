package realtime

type Event string

// Inbound events.
const (
	PresenceUpdate Event = "presence_update"
	UserOnline     Event = "user:online"
	UserOffline    Event = "user:offline"

	RoomCreated Event = "room:created"
	RoomUpdated Event = "room:updated"
	RoomDeleted Event = "room:deleted"

	MessageNew     Event = "message:new"
	MessageUpdated Event = "message:updated"
	MessageDeleted Event = "message:deleted"

	RoomUserJoinedSystem Event = "room:user-joined-system"
	RoomUserLeftSystem   Event = "room:user-left-system"

	UserTyping        Event = "user:typing"
	UserStoppedTyping Event = "user:stopped-typing"

	AdminStatsUpdated        Event = "admin:stats-updated"
	AdminUserStatusChanged   Event = "admin:user-status-changed"
	AdminRoomCreated         Event = "admin:room-created"
	AdminRoomDeleted         Event = "admin:room-deleted"
	AdminRoomUpdated         Event = "admin:room-updated"
	AdminRoomOnlineUpdated   Event = "admin:room-online-updated"
	AdminRoomMessagesUpdated Event = "admin:room-messages-updated"

	AvatarUpdated Event = "avatar-updated"
	Unauthorized  Event = "unauthorized"
)

// Outbound events.
const (
	RoomJoin    Event = "room:join"
	RoomLeave   Event = "room:leave"
	TypingStart Event = "typing:start"
	TypingStop  Event = "typing:stop"
)

// StatusChanged is never sent by the server. Listeners receive it when the
// connection status changes.
const StatusChanged Event = "connection:status"

var (
	RoomListEvents = []Event{RoomCreated, RoomUpdated, RoomDeleted}

	ChatEvents = []Event{
		MessageNew, MessageUpdated, MessageDeleted,
		RoomUserJoinedSystem, RoomUserLeftSystem,
		UserTyping, UserStoppedTyping,
		RoomDeleted, RoomUpdated,
		PresenceUpdate, UserOnline, UserOffline,
	}

	AdminEvents = []Event{
		AdminStatsUpdated, AdminUserStatusChanged,
		AdminRoomCreated, AdminRoomDeleted, AdminRoomUpdated,
		AdminRoomOnlineUpdated, AdminRoomMessagesUpdated,
		UserOnline, UserOffline,
	}
)
