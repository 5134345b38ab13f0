package models

// EventType names an outbound push. The values double as the wire event
// names on the transport.
type EventType string

const (
	EventNewMessage         EventType = "newMessage"
	EventNewPersonalMessage EventType = "newPersonalMessage"
	EventUserJoined         EventType = "userJoined"
	EventUserLeft           EventType = "userLeft"
	EventUserList           EventType = "userList"
	EventUserTyping         EventType = "userTyping"
	EventPersonalTyping     EventType = "personalTyping"
)

// Event is a single outbound push addressed to one or all sessions.
type Event struct {
	Type EventType `json:"event"`
	Data any       `json:"data"`
}

// TypingNotice is the payload of userTyping and personalTyping events.
// Nothing about it is persisted.
type TypingNotice struct {
	FromID   string `json:"from"`
	FromName string `json:"from_name,omitempty"`
	IsTyping bool   `json:"is_typing"`
}
