package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// deleteAllPageSize is the page size DeleteAllUsers lists with.
const deleteAllPageSize = 100

// CreateUserParams describes a user to create.
type CreateUserParams struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
}

func (p CreateUserParams) validate() error {
	if p.ID == "" {
		return domain.NewValidationError("id", "cannot be empty")
	}

	if p.Name == "" {
		return domain.NewValidationError("name", "cannot be empty")
	}

	return nil
}

// UpdateUserParams lists the fields to change. Empty fields are left as is.
type UpdateUserParams struct {
	Name       string          `json:"name,omitempty"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
}

// GetUsersParams pages through users ordered by creation time.
type GetUsersParams struct {
	// FromTS is an RFC 3339 timestamp to start after.
	FromTS string
	Limit  int
}

// CreateUser creates one user.
func (s *ChatKit) CreateUser(ctx context.Context, p CreateUserParams) (domain.User, error) {
	if err := p.validate(); err != nil {
		return domain.User{}, err
	}

	return run[domain.User](ctx, s, call{
		op:       "creating user",
		method:   http.MethodPost,
		service:  chatkit.ServiceAPI,
		endpoint: "/users",
		body:     p,
		su:       true,
	})
}

// BatchCreateUsers creates several users in one request.
func (s *ChatKit) BatchCreateUsers(ctx context.Context, users []CreateUserParams) ([]domain.User, error) {
	if len(users) == 0 {
		return nil, domain.NewValidationError("users", "cannot be empty")
	}

	for _, u := range users {
		if err := u.validate(); err != nil {
			return nil, err
		}
	}

	return run[[]domain.User](ctx, s, call{
		op:       "creating users",
		method:   http.MethodPost,
		service:  chatkit.ServiceAPI,
		endpoint: "/batch_users",
		body:     users,
		su:       true,
	})
}

// UpdateUser changes the non-empty fields of p.
func (s *ChatKit) UpdateUser(ctx context.Context, userID string, p UpdateUserParams) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "cannot be empty")
	}

	return exec(ctx, s, call{
		op:       "updating user",
		method:   http.MethodPut,
		service:  chatkit.ServiceAPI,
		endpoint: "/users/" + seg(userID),
		body:     p,
		su:       true,
	})
}

// DeleteUser deletes one user.
func (s *ChatKit) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "cannot be empty")
	}

	return exec(ctx, s, call{
		op:       "deleting user",
		method:   http.MethodDelete,
		service:  chatkit.ServiceAPI,
		endpoint: "/users/" + seg(userID),
		su:       true,
	})
}

// GetUser fetches one user.
func (s *ChatKit) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.NewValidationError("user_id", "cannot be empty")
	}

	return run[domain.User](ctx, s, call{
		op:       "getting user",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/users/" + seg(userID),
		su:       true,
	})
}

// GetUsers lists users. Zero-valued params are not sent.
func (s *ChatKit) GetUsers(ctx context.Context, p GetUsersParams) ([]domain.User, error) {
	var q chatkit.Query
	if p.FromTS != "" {
		q = q.Add("from_ts", p.FromTS)
	}
	if p.Limit > 0 {
		q = q.AddInt("limit", p.Limit)
	}

	return run[[]domain.User](ctx, s, call{
		op:       "listing users",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/users",
		query:    q,
		su:       true,
	})
}

// GetUsersByIDs fetches the given users, one repeated id parameter each.
func (s *ChatKit) GetUsersByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	if len(userIDs) == 0 {
		return nil, domain.NewValidationError("user_ids", "cannot be empty")
	}

	q := make(chatkit.Query, 0, len(userIDs))
	for _, id := range userIDs {
		q = q.Add("id", id)
	}

	return run[[]domain.User](ctx, s, call{
		op:       "getting users by id",
		method:   http.MethodGet,
		service:  chatkit.ServiceAPI,
		endpoint: "/users_by_ids",
		query:    q,
		su:       true,
	})
}

// DeleteAllUsers lists users a page at a time and deletes each page with
// bounded concurrency until a page comes back empty. It returns the number of
// users deleted, including those deleted before an error.
func (s *ChatKit) DeleteAllUsers(ctx context.Context) (int, error) {
	var deleted atomic.Int64

	for {
		users, err := s.GetUsers(ctx, GetUsersParams{Limit: deleteAllPageSize})
		if err != nil {
			return int(deleted.Load()), err
		}

		if len(users) == 0 {
			break
		}

		err = FanOut(ctx, s.deleteWorkers, users, func(ctx context.Context, u domain.User) error {
			if err := s.DeleteUser(ctx, u.ID); err != nil {
				return err
			}

			deleted.Add(1)

			return nil
		})
		if err != nil {
			return int(deleted.Load()), err
		}

		s.logger.DebugContext(ctx, "deleted page of users",
			slog.Int("page", len(users)),
			slog.Int64("total", deleted.Load()),
		)
	}

	s.logger.InfoContext(ctx, "deleted all users", slog.Int64("count", deleted.Load()))

	return int(deleted.Load()), nil
}

// DeleteUsers deletes the given users concurrently. Every ID is attempted;
// failures are joined into the returned error.
func (s *ChatKit) DeleteUsers(ctx context.Context, userIDs []string) error {
	fns := make([]func(context.Context) (string, error), len(userIDs))
	for i, id := range userIDs {
		fns[i] = func(ctx context.Context) (string, error) {
			return id, s.DeleteUser(ctx, id)
		}
	}

	var errs []error
	for _, r := range ParallelPartialLimit(ctx, s.deleteWorkers, fns...) {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Value, r.Err))
		}
	}

	return errors.Join(errs...)
}
