package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General    Category = "General"
	Auth       Category = "Auth"
	REST       Category = "REST"
	Realtime   Category = "Realtime"
	Cache      Category = "Cache"
	UI         Category = "UI"
	Validation Category = "Validation"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	ExternalService SubCategory = "ExternalService"

	// Auth
	Login        SubCategory = "Login"
	Logout       SubCategory = "Logout"
	Unauthorized SubCategory = "Unauthorized"

	// Realtime
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	Reconnect  SubCategory = "Reconnect"
	Inbound    SubCategory = "Inbound"
	Outbound   SubCategory = "Outbound"

	// Cache
	Invalidate SubCategory = "Invalidate"
	Evict      SubCategory = "Evict"

	// UI
	Navigation SubCategory = "Navigation"
	Action     SubCategory = "Action"
	Settings   SubCategory = "Settings"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestID    ExtraKey = "RequestID"
	ErrorMessage ExtraKey = "ErrorMessage"
	Event        ExtraKey = "Event"
	RoomID       ExtraKey = "RoomID"
	UserID       ExtraKey = "UserID"
	Attempt      ExtraKey = "Attempt"
	Tags         ExtraKey = "Tags"
	Page         ExtraKey = "Page"
)
