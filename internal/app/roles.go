package app

import (
	"context"
	"net/http"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// CreateRole creates a role granting permissions within scope.
func (s *ChatKit) CreateRole(ctx context.Context, name string, scope domain.Scope, permissions []string) error {
	if err := validateRole(name, scope); err != nil {
		return err
	}

	if permissions == nil {
		permissions = []string{}
	}

	return exec(ctx, s, call{
		op:       "creating role",
		method:   http.MethodPost,
		service:  chatkit.ServiceAuthorizer,
		endpoint: "/roles",
		body: map[string]any{
			"name":        name,
			"scope":       scope,
			"permissions": permissions,
		},
		su: true,
	})
}

// DeleteRole deletes a role.
func (s *ChatKit) DeleteRole(ctx context.Context, name string, scope domain.Scope) error {
	if err := validateRole(name, scope); err != nil {
		return err
	}

	return exec(ctx, s, call{
		op:       "deleting role",
		method:   http.MethodDelete,
		service:  chatkit.ServiceAuthorizer,
		endpoint: rolePath(name, scope),
		su:       true,
	})
}

// AssignRole gives a user a role. roomID is required for room-scoped roles
// and ignored for global ones.
func (s *ChatKit) AssignRole(ctx context.Context, userID, roleName string, scope domain.Scope, roomID string) error {
	body, err := userRoleBody(userID, roleName, scope, roomID)
	if err != nil {
		return err
	}

	return exec(ctx, s, call{
		op:       "assigning role",
		method:   http.MethodPut,
		service:  chatkit.ServiceAuthorizer,
		endpoint: "/users/" + seg(userID) + "/roles",
		body:     body,
		su:       true,
	})
}

// RemoveRole takes a role away from a user.
func (s *ChatKit) RemoveRole(ctx context.Context, userID, roleName string, scope domain.Scope, roomID string) error {
	body, err := userRoleBody(userID, roleName, scope, roomID)
	if err != nil {
		return err
	}

	return exec(ctx, s, call{
		op:       "removing role",
		method:   http.MethodDelete,
		service:  chatkit.ServiceAuthorizer,
		endpoint: "/users/" + seg(userID) + "/roles",
		body:     body,
		su:       true,
	})
}

// ListRoles lists every role on the instance.
func (s *ChatKit) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return run[[]domain.Role](ctx, s, call{
		op:       "listing roles",
		method:   http.MethodGet,
		service:  chatkit.ServiceAuthorizer,
		endpoint: "/roles",
		su:       true,
	})
}

// ListUserRoles lists the roles assigned to a user.
func (s *ChatKit) ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "cannot be empty")
	}

	return run[[]domain.Role](ctx, s, call{
		op:       "listing user roles",
		method:   http.MethodGet,
		service:  chatkit.ServiceAuthorizer,
		endpoint: "/users/" + seg(userID) + "/roles",
		su:       true,
	})
}

// ListPermissions lists the permissions of a role.
func (s *ChatKit) ListPermissions(ctx context.Context, name string, scope domain.Scope) ([]string, error) {
	if err := validateRole(name, scope); err != nil {
		return nil, err
	}

	return run[[]string](ctx, s, call{
		op:       "listing permissions",
		method:   http.MethodGet,
		service:  chatkit.ServiceAuthorizer,
		endpoint: rolePath(name, scope) + "/permissions",
		su:       true,
	})
}

// UpdatePermissions adds and removes permissions of a role. At least one of
// add or remove must be non-empty.
func (s *ChatKit) UpdatePermissions(ctx context.Context, name string, scope domain.Scope, add, remove []string) error {
	if err := validateRole(name, scope); err != nil {
		return err
	}

	if len(add) == 0 && len(remove) == 0 {
		return domain.NewValidationError("permissions", "nothing to add or remove")
	}

	body := map[string]any{}
	if len(add) > 0 {
		body["add_permissions"] = add
	}
	if len(remove) > 0 {
		body["remove_permissions"] = remove
	}

	return exec(ctx, s, call{
		op:       "updating permissions",
		method:   http.MethodPut,
		service:  chatkit.ServiceAuthorizer,
		endpoint: rolePath(name, scope) + "/permissions",
		body:     body,
		su:       true,
	})
}

func rolePath(name string, scope domain.Scope) string {
	return "/roles/" + seg(name) + "/scope/" + string(scope)
}

func validateRole(name string, scope domain.Scope) error {
	if name == "" {
		return domain.NewValidationError("name", "cannot be empty")
	}

	if !scope.Valid() {
		return domain.NewValidationError("scope", "must be room or global")
	}

	return nil
}

func userRoleBody(userID, roleName string, scope domain.Scope, roomID string) (map[string]any, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "cannot be empty")
	}

	if err := validateRole(roleName, scope); err != nil {
		return nil, err
	}

	body := map[string]any{"name": roleName}
	if scope == domain.ScopeRoom {
		if roomID == "" {
			return nil, domain.NewValidationError("room_id", "required for room scoped roles")
		}
		body["room_id"] = roomID
	}

	return body, nil
}
