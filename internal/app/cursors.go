package app

import (
	"context"
	"net/http"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// readCursorType is the cursor type of read cursors.
const readCursorType = "0"

const cursorsPrefix = "/cursors/" + readCursorType

// GetReadCursor fetches a user's read cursor in a room.
func (s *ChatKit) GetReadCursor(ctx context.Context, userID, roomID string) (domain.Cursor, error) {
	if err := validateCursor(userID, roomID); err != nil {
		return domain.Cursor{}, err
	}

	return run[domain.Cursor](ctx, s, call{
		op:       "getting read cursor",
		method:   http.MethodGet,
		service:  chatkit.ServiceCursors,
		endpoint: cursorsPrefix + "/rooms/" + seg(roomID) + "/users/" + seg(userID),
		su:       true,
	})
}

// SetReadCursor moves a user's read cursor in a room to position.
func (s *ChatKit) SetReadCursor(ctx context.Context, userID, roomID string, position int64) error {
	if err := validateCursor(userID, roomID); err != nil {
		return err
	}

	return exec(ctx, s, call{
		op:       "setting read cursor",
		method:   http.MethodPut,
		service:  chatkit.ServiceCursors,
		endpoint: cursorsPrefix + "/rooms/" + seg(roomID) + "/users/" + seg(userID),
		body:     map[string]any{"position": position},
		su:       true,
	})
}

// GetRoomReadCursors lists every read cursor in a room.
func (s *ChatKit) GetRoomReadCursors(ctx context.Context, roomID string) ([]domain.Cursor, error) {
	if roomID == "" {
		return nil, domain.NewValidationError("room_id", "cannot be empty")
	}

	return run[[]domain.Cursor](ctx, s, call{
		op:       "listing room read cursors",
		method:   http.MethodGet,
		service:  chatkit.ServiceCursors,
		endpoint: cursorsPrefix + "/rooms/" + seg(roomID),
		su:       true,
	})
}

// GetUserReadCursors lists every read cursor of a user.
func (s *ChatKit) GetUserReadCursors(ctx context.Context, userID string) ([]domain.Cursor, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "cannot be empty")
	}

	return run[[]domain.Cursor](ctx, s, call{
		op:       "listing user read cursors",
		method:   http.MethodGet,
		service:  chatkit.ServiceCursors,
		endpoint: cursorsPrefix + "/users/" + seg(userID),
		su:       true,
	})
}

func validateCursor(userID, roomID string) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "cannot be empty")
	}

	if roomID == "" {
		return domain.NewValidationError("room_id", "cannot be empty")
	}

	return nil
}
