package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// CreateRoomParams describes a room to create.
type CreateRoomParams struct {
	// CreatorID is the user the room is created as.
	CreatorID  string
	Name       string
	Private    bool
	UserIDs    []string
	CustomData json.RawMessage
}

// UpdateRoomParams lists the fields to change. Nil fields are left as is.
type UpdateRoomParams struct {
	Name       *string         `json:"name,omitempty"`
	Private    *bool           `json:"private,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
}

// GetRoomsParams pages through rooms.
type GetRoomsParams struct {
	FromID         string
	IncludePrivate bool
}

// Message paging directions.
const (
	DirectionNewer = "newer"
	DirectionOlder = "older"
)

// GetRoomMessagesParams pages through a room's messages.
type GetRoomMessagesParams struct {
	InitialID int64
	Limit     int

	// Direction is DirectionNewer or DirectionOlder; empty uses the platform default.
	Direction string
}

// CreateRoom creates a room as p.CreatorID.
func (s *ChatKit) CreateRoom(ctx context.Context, p CreateRoomParams) (domain.Room, error) {
	if p.CreatorID == "" {
		return domain.Room{}, domain.NewValidationError("creator_id", "cannot be empty")
	}

	body := map[string]any{
		"name":    p.Name,
		"private": p.Private,
	}
	if len(p.UserIDs) > 0 {
		body["user_ids"] = p.UserIDs
	}
	if len(p.CustomData) > 0 {
		body["custom_data"] = p.CustomData
	}

	return run[domain.Room](ctx, s, call{
		op:       "creating room",
		method:   http.MethodPost,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms",
		body:     body,
		userID:   p.CreatorID,
	})
}

// UpdateRoom changes the non-nil fields of p.
func (s *ChatKit) UpdateRoom(ctx context.Context, roomID string, p UpdateRoomParams) error {
	if roomID == "" {
		return domain.NewValidationError("room_id", "cannot be empty")
	}

	return exec(ctx, s, call{
		op:       "updating room",
		method:   http.MethodPut,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(roomID),
		body:     p,
		su:       true,
	})
}

// DeleteRoom deletes a room and its messages.
func (s *ChatKit) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.NewValidationError("room_id", "cannot be empty")
	}

	return exec(ctx, s, call{
		op:       "deleting room",
		method:   http.MethodDelete,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(roomID),
		su:       true,
	})
}

// GetRoom fetches one room.
func (s *ChatKit) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if roomID == "" {
		return domain.Room{}, domain.NewValidationError("room_id", "cannot be empty")
	}

	return run[domain.Room](ctx, s, call{
		op:       "getting room",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(roomID),
		su:       true,
	})
}

// GetRooms lists one page of rooms.
func (s *ChatKit) GetRooms(ctx context.Context, p GetRoomsParams) ([]domain.Room, error) {
	var q chatkit.Query
	if p.FromID != "" {
		q = q.Add("from_id", p.FromID)
	}
	if p.IncludePrivate {
		q = q.AddBool("include_private", true)
	}

	return run[[]domain.Room](ctx, s, call{
		op:       "listing rooms",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms",
		query:    q,
		su:       true,
	})
}

// GetUserRooms lists the rooms a user belongs to.
func (s *ChatKit) GetUserRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.userRooms(ctx, userID, false)
}

// GetUserJoinableRooms lists the public rooms a user can join.
func (s *ChatKit) GetUserJoinableRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.userRooms(ctx, userID, true)
}

func (s *ChatKit) userRooms(ctx context.Context, userID string, joinable bool) ([]domain.Room, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "cannot be empty")
	}

	var q chatkit.Query
	if joinable {
		q = q.AddBool("joinable", true)
	}

	return run[[]domain.Room](ctx, s, call{
		op:       "listing user rooms",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/users/" + seg(userID) + "/rooms",
		query:    q,
		userID:   userID,
		su:       true,
	})
}

// AddUsersToRoom adds members to a room.
func (s *ChatKit) AddUsersToRoom(ctx context.Context, roomID string, userIDs []string) error {
	return s.changeMembers(ctx, "adding users to room", roomID, "add", userIDs)
}

// RemoveUsersFromRoom removes members from a room.
func (s *ChatKit) RemoveUsersFromRoom(ctx context.Context, roomID string, userIDs []string) error {
	return s.changeMembers(ctx, "removing users from room", roomID, "remove", userIDs)
}

func (s *ChatKit) changeMembers(ctx context.Context, op, roomID, action string, userIDs []string) error {
	if roomID == "" {
		return domain.NewValidationError("room_id", "cannot be empty")
	}

	if len(userIDs) == 0 {
		return domain.NewValidationError("user_ids", "cannot be empty")
	}

	return exec(ctx, s, call{
		op:       op,
		method:   http.MethodPut,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(roomID) + "/users/" + action,
		body:     map[string]any{"user_ids": userIDs},
		su:       true,
	})
}

// GetRoomMessages lists messages in a room. Zero-valued params are not sent.
func (s *ChatKit) GetRoomMessages(ctx context.Context, roomID string, p GetRoomMessagesParams) ([]domain.Message, error) {
	if roomID == "" {
		return nil, domain.NewValidationError("room_id", "cannot be empty")
	}

	switch p.Direction {
	case "", DirectionNewer, DirectionOlder:
	default:
		return nil, domain.NewValidationError("direction", "must be newer or older")
	}

	var q chatkit.Query
	if p.InitialID > 0 {
		q = q.Add("initial_id", strconv.FormatInt(p.InitialID, 10))
	}
	if p.Limit > 0 {
		q = q.AddInt("limit", p.Limit)
	}
	if p.Direction != "" {
		q = q.Add("direction", p.Direction)
	}

	return run[[]domain.Message](ctx, s, call{
		op:       "listing room messages",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(roomID) + "/messages",
		query:    q,
		su:       true,
	})
}
