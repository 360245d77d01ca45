package domain

import "encoding/json"

// Scope selects whether a role applies to a single room or the whole instance.
type Scope string

const (
	// ScopeRoom restricts a role to one room.
	ScopeRoom Scope = "room"

	// ScopeGlobal applies a role across the instance.
	ScopeGlobal Scope = "global"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeRoom || s == ScopeGlobal
}

// User is a ChatKit user.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

// Room is a chat room.
type Room struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatedByID string          `json:"created_by_id,omitempty"`
	Private     bool            `json:"private"`
	MemberIDs   []string        `json:"member_user_ids,omitempty"`
	CustomData  json.RawMessage `json:"custom_data,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// Message is a chat message as returned by the messages endpoints.
type Message struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	RoomID     string          `json:"room_id"`
	Text       string          `json:"text,omitempty"`
	Parts      []MessagePart   `json:"parts,omitempty"`
	Attachment json.RawMessage `json:"attachment,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

// MessageID is the acknowledgement returned after sending a message.
type MessageID struct {
	MessageID int64 `json:"message_id"`
}

// Role is a named set of permissions.
type Role struct {
	Name        string   `json:"role_name"`
	Scope       Scope    `json:"scope"`
	Permissions []string `json:"permissions,omitempty"`
	RoomID      string   `json:"room_id,omitempty"`
}

// Cursor records how far a user has read in a room.
type Cursor struct {
	CursorType int    `json:"cursor_type"`
	Position   int64  `json:"position"`
	RoomID     string `json:"room_id"`
	UserID     string `json:"user_id"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// Token is a signed platform token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthToken is the token payload handed to ChatKit client SDKs.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
