package models

// Kind distinguishes broadcast messages from directed ones.
type Kind string

const (
	KindGroup    Kind = "group"
	KindPersonal Kind = "personal"
)

// Attachment describes a file carried by a message. The file bytes live
// elsewhere; the envelope only holds the reference.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Envelope is the canonical representation of a single chat message.
// The router creates it on receipt of a send request and never mutates it
// afterwards. The ID is a ULID, the timestamp is server-assigned Unix
// milliseconds.
type Envelope struct {
	ID              string      `json:"id"`
	Kind            Kind        `json:"kind"`
	Sender          Identity    `json:"from"`
	RecipientID     string      `json:"to,omitempty"`
	ConversationKey string      `json:"conversation_key,omitempty"`
	Text            string      `json:"text"`
	Attachment      *Attachment `json:"file,omitempty"`
	Timestamp       int64       `json:"ts"`
}
