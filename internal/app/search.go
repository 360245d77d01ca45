package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// SearchRoomsByName pages through public and private rooms and returns the
// first room named exactly name, or nil when there is none. A 404 while
// paging counts as "no more rooms".
func (s *ChatKit) SearchRoomsByName(ctx context.Context, name string) (*domain.Room, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "cannot be empty")
	}

	var fromID string
	for pages := 0; ; pages++ {
		rooms, err := s.GetRooms(ctx, GetRoomsParams{FromID: fromID, IncludePrivate: true})
		if domain.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		for i := range rooms {
			if rooms[i].Name == name {
				return &rooms[i], nil
			}
		}

		if len(rooms) == 0 {
			return nil, nil
		}

		next := rooms[len(rooms)-1].ID
		if next == fromID {
			s.logger.WarnContext(ctx, "room listing did not advance",
				slog.String("from_id", fromID),
				slog.Int("pages", pages+1),
			)

			return nil, nil
		}
		fromID = next
	}
}
