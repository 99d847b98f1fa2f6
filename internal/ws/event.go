package ws

// UpdateKind names a resource kind whose server-side state changed. The event
// carries no payload: it is a hint to re-fetch, never the data of record.
type UpdateKind string

const (
	UpdateChats   UpdateKind = "chats"
	UpdateFriends UpdateKind = "friends"
	UpdatePosts   UpdateKind = "posts"
	UpdateJobs    UpdateKind = "jobs"
)

// Event is the typed push message sent to clients
type Event struct {
	Type   string     `json:"type"`
	Update UpdateKind `json:"update"`
}

// UpdateEvent builds the standard UPDATE_DATA event for a resource kind
func UpdateEvent(kind UpdateKind) Event {
	return Event{Type: "UPDATE_DATA", Update: kind}
}

// Notifier pushes events to users' live connections. Offline users are
// silently skipped; REST reads remain the source of truth.
type Notifier interface {
	NotifyUser(userID string, event Event)
	NotifyUsers(userIDs []string, event Event)
}
