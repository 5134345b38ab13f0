package models

// Identity is the authenticated user a session represents. It is issued by
// the auth provider before the join handshake and is immutable for the
// lifetime of the session.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Device    string `json:"device,omitempty"`
}
