//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

const (
	testInstanceID = "instance-123"
	testLocator    = "v1:us1:" + testInstanceID
	testKeySecret  = "key-secret"
	testAPIKey     = "key-id:" + testKeySecret

	// roomsPageSize is small so that room listing needs several pages.
	roomsPageSize = 2
)

// recordedRequest is what the fake platform saw.
type recordedRequest struct {
	Method   string
	Service  string
	Path     string
	RawQuery string
	Header   http.Header
	Claims   jwt.MapClaims
}

// fakePlatform is an in-memory ChatKit platform served by gin.
type fakePlatform struct {
	mu sync.Mutex

	users     map[string]domain.User
	userOrder []string
	rooms     map[string]domain.Room
	roomSeq   int
	messages  map[string][]domain.Message
	msgSeq    int64
	cursors   map[string]domain.Cursor
	roles     map[string]domain.Role
	userRoles map[string][]domain.Role

	requests []recordedRequest

	// down lists service names that answer 503.
	down map[string]bool
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		users:     map[string]domain.User{},
		rooms:     map[string]domain.Room{},
		messages:  map[string][]domain.Message{},
		cursors:   map[string]domain.Cursor{},
		roles:     map[string]domain.Role{},
		userRoles: map[string][]domain.Role{},
		down:      map[string]bool{},
	}
}

// start serves the platform and returns an HTTP client whose requests, to
// whatever host, are sent to it.
func (p *fakePlatform) start(t *testing.T) *http.Client {
	t.Helper()

	server := httptest.NewServer(p.router())
	t.Cleanup(server.Close)

	target, _ := url.Parse(server.URL)

	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &rewriteTransport{target: target, next: http.DefaultTransport},
	}
}

// rewriteTransport sends every request to target, keeping path and query.
type rewriteTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host

	return rt.next.RoundTrip(out)
}

func (p *fakePlatform) router() *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true

	svc := r.Group("/services/:service/:version/:instance", p.authenticate)

	svc.GET("/users", p.listUsers)
	svc.POST("/users", p.createUser)
	svc.POST("/batch_users", p.batchCreateUsers)
	svc.GET("/users_by_ids", p.usersByIDs)
	svc.GET("/users/:id", p.getUser)
	svc.PUT("/users/:id", p.updateUser)
	svc.DELETE("/users/:id", p.deleteUser)
	svc.GET("/users/:id/rooms", p.userRoomsHandler)
	svc.GET("/users/:id/roles", p.listUserRoles)
	svc.PUT("/users/:id/roles", p.assignRole)
	svc.DELETE("/users/:id/roles", p.removeRole)

	svc.GET("/rooms", p.listRooms)
	svc.POST("/rooms", p.createRoom)
	svc.GET("/rooms/:id", p.getRoom)
	svc.PUT("/rooms/:id", p.updateRoom)
	svc.DELETE("/rooms/:id", p.deleteRoom)
	svc.PUT("/rooms/:id/users/:action", p.changeMembers)
	svc.GET("/rooms/:id/messages", p.listMessages)
	svc.POST("/rooms/:id/messages", p.sendMessage)
	svc.DELETE("/messages/:id", p.deleteMessage)

	svc.GET("/roles", p.listRoles)
	svc.POST("/roles", p.createRole)
	svc.DELETE("/roles/:name/scope/:scope", p.deleteRole)
	svc.GET("/roles/:name/scope/:scope/permissions", p.getPermissions)
	svc.PUT("/roles/:name/scope/:scope/permissions", p.updatePermissions)

	svc.GET("/cursors/0/rooms/:id", p.roomCursors)
	svc.GET("/cursors/0/rooms/:id/users/:user", p.getCursor)
	svc.PUT("/cursors/0/rooms/:id/users/:user", p.setCursor)
	svc.GET("/cursors/0/users/:user", p.userCursors)

	return r
}

func platformError(c *gin.Context, status int, kind, description string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "error_description": description})
}

// authenticate verifies the instance and the bearer token, then records the
// request.
func (p *fakePlatform) authenticate(c *gin.Context) {
	service := c.Param("service") + "/" + c.Param("version")

	if c.Param("instance") != testInstanceID {
		platformError(c, http.StatusNotFound, "services/chatkit/not_found", "instance not found")
		return
	}

	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		platformError(c, http.StatusUnauthorized, "services/chatkit/unauthorized", "missing token")
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(testKeySecret), nil
	})
	if err != nil || claims["instance"] != testInstanceID {
		platformError(c, http.StatusUnauthorized, "services/chatkit/unauthorized", "invalid token")
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, recordedRequest{
		Method:   c.Request.Method,
		Service:  service,
		Path:     c.Request.URL.EscapedPath(),
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Claims:   claims,
	})
	isDown := p.down[service]
	p.mu.Unlock()

	if isDown {
		platformError(c, http.StatusServiceUnavailable, "services/chatkit/unavailable", "down for maintenance")
		return
	}

	c.Set("claims", claims)
	c.Next()
}

func subject(c *gin.Context) string {
	claims, _ := c.MustGet("claims").(jwt.MapClaims)
	sub, _ := claims["sub"].(string)

	return sub
}

// lastRequest returns the most recent recorded request.
func (p *fakePlatform) lastRequest() recordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.requests) == 0 {
		return recordedRequest{}
	}

	return p.requests[len(p.requests)-1]
}

func (p *fakePlatform) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.requests)
}

func (p *fakePlatform) setDown(service string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.down[service] = true
}

// users

func (p *fakePlatform) putUser(u domain.User) bool {
	if _, exists := p.users[u.ID]; exists {
		return false
	}

	u.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	u.UpdatedAt = u.CreatedAt
	p.users[u.ID] = u
	p.userOrder = append(p.userOrder, u.ID)

	return true
}

func (p *fakePlatform) listUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.User, 0, limit)
	for _, id := range p.userOrder {
		if len(out) == limit {
			break
		}
		out = append(out, p.users[id])
	}

	c.JSON(http.StatusOK, out)
}

func (p *fakePlatform) createUser(c *gin.Context) {
	var u domain.User
	if err := c.ShouldBindJSON(&u); err != nil || u.ID == "" {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", "id and name are required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.putUser(u) {
		platformError(c, http.StatusBadRequest, "services/chatkit/user_already_exists", "user "+u.ID+" exists")
		return
	}

	c.JSON(http.StatusCreated, p.users[u.ID])
}

func (p *fakePlatform) batchCreateUsers(c *gin.Context) {
	var users []domain.User
	if err := c.ShouldBindJSON(&users); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		p.putUser(u)
		out = append(out, p.users[u.ID])
	}

	c.JSON(http.StatusCreated, out)
}

func (p *fakePlatform) usersByIDs(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := []domain.User{}
	for _, id := range c.QueryArray("id") {
		if u, ok := p.users[id]; ok {
			out = append(out, u)
		}
	}

	c.JSON(http.StatusOK, out)
}

func (p *fakePlatform) getUser(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[c.Param("id")]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit/not_found/user_not_found", "user not found")
		return
	}

	c.JSON(http.StatusOK, u)
}

func (p *fakePlatform) updateUser(c *gin.Context) {
	var patch domain.User
	if err := c.ShouldBindJSON(&patch); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[c.Param("id")]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit/not_found/user_not_found", "user not found")
		return
	}

	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.AvatarURL != "" {
		u.AvatarURL = patch.AvatarURL
	}
	if len(patch.CustomData) > 0 {
		u.CustomData = patch.CustomData
	}
	p.users[u.ID] = u

	c.Status(http.StatusNoContent)
}

func (p *fakePlatform) deleteUser(c *gin.Context) {
	id := c.Param("id")

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[id]; !ok {
		platformError(c, http.StatusNotFound, "services/chatkit/not_found/user_not_found", "user not found")
		return
	}

	delete(p.users, id)
	p.userOrder = slices.DeleteFunc(p.userOrder, func(s string) bool { return s == id })

	c.Status(http.StatusNoContent)
}

func (p *fakePlatform) userRoomsHandler(c *gin.Context) {
	id := c.Param("id")
	joinable := c.Query("joinable") == "true"

	p.mu.Lock()
	defer p.mu.Unlock()

	out := []domain.Room{}
	for _, room := range p.sortedRooms() {
		member := slices.Contains(room.MemberIDs, id)
		if (joinable && !member && !room.Private) || (!joinable && member) {
			out = append(out, room)
		}
	}

	c.JSON(http.StatusOK, out)
}

// rooms

func (p *fakePlatform) sortedRooms() []domain.Room {
	out := make([]domain.Room, 0, len(p.rooms))
	for _, room := range p.rooms {
		out = append(out, room)
	}

	slices.SortFunc(out, func(a, b domain.Room) int {
		ai, _ := strconv.Atoi(a.ID)
		bi, _ := strconv.Atoi(b.ID)

		return ai - bi
	})

	return out
}

func (p *fakePlatform) listRooms(c *gin.Context) {
	fromID, _ := strconv.Atoi(c.DefaultQuery("from_id", "0"))
	includePrivate := c.Query("include_private") == "true"

	p.mu.Lock()
	defer p.mu.Unlock()

	out := []domain.Room{}
	for _, room := range p.sortedRooms() {
		id, _ := strconv.Atoi(room.ID)
		if id <= fromID || (room.Private && !includePrivate) {
			continue
		}
		if len(out) == roomsPageSize {
			break
		}
		out = append(out, room)
	}

	c.JSON(http.StatusOK, out)
}

func (p *fakePlatform) createRoom(c *gin.Context) {
	var body struct {
		Name       string          `json:"name"`
		Private    bool            `json:"private"`
		UserIDs    []string        `json:"user_ids"`
		CustomData json.RawMessage `json:"custom_data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	creator := subject(c)
	if creator == "" {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", "token has no subject")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.roomSeq++
	room := domain.Room{
		ID:          strconv.Itoa(p.roomSeq),
		Name:        body.Name,
		CreatedByID: creator,
		Private:     body.Private,
		MemberIDs:   append([]string{creator}, body.UserIDs...),
		CustomData:  body.CustomData,
	}
	p.rooms[room.ID] = room

	c.JSON(http.StatusCreated, room)
}

func (p *fakePlatform) withRoom(c *gin.Context, fn func(room domain.Room)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[c.Param("id")]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit/not_found/room_not_found", "room not found")
		return
	}

	fn(room)
}

func (p *fakePlatform) getRoom(c *gin.Context) {
	p.withRoom(c, func(room domain.Room) {
		c.JSON(http.StatusOK, room)
	})
}

func (p *fakePlatform) updateRoom(c *gin.Context) {
	var patch struct {
		Name    *string `json:"name"`
		Private *bool   `json:"private"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	p.withRoom(c, func(room domain.Room) {
		if patch.Name != nil {
			room.Name = *patch.Name
		}
		if patch.Private != nil {
			room.Private = *patch.Private
		}
		p.rooms[room.ID] = room

		c.Status(http.StatusNoContent)
	})
}

func (p *fakePlatform) deleteRoom(c *gin.Context) {
	p.withRoom(c, func(room domain.Room) {
		delete(p.rooms, room.ID)
		delete(p.messages, room.ID)

		c.Status(http.StatusNoContent)
	})
}

func (p *fakePlatform) changeMembers(c *gin.Context) {
	var body struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	p.withRoom(c, func(room domain.Room) {
		switch c.Param("action") {
		case "add":
			for _, id := range body.UserIDs {
				if !slices.Contains(room.MemberIDs, id) {
					room.MemberIDs = append(room.MemberIDs, id)
				}
			}
		case "remove":
			room.MemberIDs = slices.DeleteFunc(room.MemberIDs, func(id string) bool {
				return slices.Contains(body.UserIDs, id)
			})
		default:
			platformError(c, http.StatusNotFound, "services/chatkit/not_found", "unknown action")
			return
		}
		p.rooms[room.ID] = room

		c.Status(http.StatusNoContent)
	})
}

// messages

func (p *fakePlatform) sendMessage(c *gin.Context) {
	var body struct {
		SenderID   string               `json:"sender_id"`
		Text       string               `json:"text"`
		Parts      []domain.MessagePart `json:"parts"`
		Attachment json.RawMessage      `json:"attachment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", err.Error())
		return
	}

	sender := body.SenderID
	if c.Param("version") == "v4" {
		sender = subject(c)
		if len(body.Parts) == 0 {
			platformError(c, http.StatusBadRequest, "services/chatkit/invalid_request", "parts are required")
			return
		}
	}

	p.withRoom(c, func(room domain.Room) {
		p.msgSeq++
		p.messages[room.ID] = append(p.messages[room.ID], domain.Message{
			ID:         p.msgSeq,
			UserID:     sender,
			RoomID:     room.ID,
			Text:       body.Text,
			Parts:      body.Parts,
			Attachment: body.Attachment,
		})

		c.JSON(http.StatusCreated, domain.MessageID{MessageID: p.msgSeq})
	})
}

func (p *fakePlatform) listMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	older := c.DefaultQuery("direction", "older") == "older"

	p.withRoom(c, func(room domain.Room) {
		msgs := slices.Clone(p.messages[room.ID])
		if older {
			slices.Reverse(msgs)
		}
		if len(msgs) > limit {
			msgs = msgs[:limit]
		}
		if msgs == nil {
			msgs = []domain.Message{}
		}

		c.JSON(http.StatusOK, msgs)
	})
}

func (p *fakePlatform) deleteMessage(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	p.mu.Lock()
	defer p.mu.Unlock()

	for roomID, msgs := range p.messages {
		for i, m := range msgs {
			if m.ID == id {
				p.messages[roomID] = slices.Delete(msgs, i, i+1)
				c.Status(http.StatusNoContent)

				return
			}
		}
	}

	platformError(c, http.StatusNotFound, "services/chatkit/not_found/message_not_found", "message not found")
}

// roles

func roleKey(name, scope string) string {
	return name + "/" + scope
}

func (p *fakePlatform) listRoles(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Role, 0, len(p.roles))
	for _, role := range p.roles {
		out = append(out, role)
	}
	slices.SortFunc(out, func(a, b domain.Role) int { return strings.Compare(a.Name, b.Name) })

	c.JSON(http.StatusOK, out)
}

func (p *fakePlatform) createRole(c *gin.Context) {
	var body struct {
		Name        string       `json:"name"`
		Scope       domain.Scope `json:"scope"`
		Permissions []string     `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Permissions == nil {
		platformError(c, http.StatusBadRequest, "services/chatkit_authorizer/invalid_request", "permissions are required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := roleKey(body.Name, string(body.Scope))
	if _, exists := p.roles[key]; exists {
		platformError(c, http.StatusBadRequest, "services/chatkit_authorizer/role_already_exists", "role exists")
		return
	}

	p.roles[key] = domain.Role{Name: body.Name, Scope: body.Scope, Permissions: body.Permissions}

	c.Status(http.StatusCreated)
}

func (p *fakePlatform) withRole(c *gin.Context, fn func(key string, role domain.Role)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := roleKey(c.Param("name"), c.Param("scope"))
	role, ok := p.roles[key]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit_authorizer/not_found/role_not_found", "role not found")
		return
	}

	fn(key, role)
}

func (p *fakePlatform) deleteRole(c *gin.Context) {
	p.withRole(c, func(key string, _ domain.Role) {
		delete(p.roles, key)
		c.Status(http.StatusNoContent)
	})
}

func (p *fakePlatform) getPermissions(c *gin.Context) {
	p.withRole(c, func(_ string, role domain.Role) {
		c.JSON(http.StatusOK, role.Permissions)
	})
}

func (p *fakePlatform) updatePermissions(c *gin.Context) {
	var body struct {
		Add    []string `json:"add_permissions"`
		Remove []string `json:"remove_permissions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit_authorizer/invalid_request", err.Error())
		return
	}

	p.withRole(c, func(key string, role domain.Role) {
		perms := slices.DeleteFunc(slices.Clone(role.Permissions), func(perm string) bool {
			return slices.Contains(body.Remove, perm)
		})
		for _, perm := range body.Add {
			if !slices.Contains(perms, perm) {
				perms = append(perms, perm)
			}
		}
		role.Permissions = perms
		p.roles[key] = role

		c.Status(http.StatusNoContent)
	})
}

type userRoleBody struct {
	Name   string `json:"name"`
	RoomID string `json:"room_id"`
}

func (p *fakePlatform) assignRole(c *gin.Context) {
	var body userRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit_authorizer/invalid_request", err.Error())
		return
	}

	scope := domain.ScopeGlobal
	if body.RoomID != "" {
		scope = domain.ScopeRoom
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	role, ok := p.roles[roleKey(body.Name, string(scope))]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit_authorizer/not_found/role_not_found", "role not found")
		return
	}

	role.RoomID = body.RoomID
	id := c.Param("id")
	p.userRoles[id] = append(p.userRoles[id], role)

	c.Status(http.StatusCreated)
}

func (p *fakePlatform) removeRole(c *gin.Context) {
	var body userRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		platformError(c, http.StatusBadRequest, "services/chatkit_authorizer/invalid_request", "a body is required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := c.Param("id")
	p.userRoles[id] = slices.DeleteFunc(p.userRoles[id], func(r domain.Role) bool {
		return r.Name == body.Name && r.RoomID == body.RoomID
	})

	c.Status(http.StatusNoContent)
}

func (p *fakePlatform) listUserRoles(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.userRoles[c.Param("id")]
	if out == nil {
		out = []domain.Role{}
	}

	c.JSON(http.StatusOK, out)
}

// cursors

func (p *fakePlatform) getCursor(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.cursors[c.Param("id")+"/"+c.Param("user")]
	if !ok {
		platformError(c, http.StatusNotFound, "services/chatkit_cursors/not_found/cursor_not_found", "cursor not found")
		return
	}

	c.JSON(http.StatusOK, cur)
}

func (p *fakePlatform) setCursor(c *gin.Context) {
	var body struct {
		Position *int64 `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Position == nil {
		platformError(c, http.StatusBadRequest, "services/chatkit_cursors/invalid_request", "position is required")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	roomID, userID := c.Param("id"), c.Param("user")
	p.cursors[roomID+"/"+userID] = domain.Cursor{
		Position: *body.Position,
		RoomID:   roomID,
		UserID:   userID,
	}

	c.Status(http.StatusCreated)
}

func (p *fakePlatform) filterCursors(match func(domain.Cursor) bool) []domain.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := []domain.Cursor{}
	for _, cur := range p.cursors {
		if match(cur) {
			out = append(out, cur)
		}
	}
	slices.SortFunc(out, func(a, b domain.Cursor) int {
		return strings.Compare(a.RoomID+a.UserID, b.RoomID+b.UserID)
	})

	return out
}

func (p *fakePlatform) roomCursors(c *gin.Context) {
	roomID := c.Param("id")
	c.JSON(http.StatusOK, p.filterCursors(func(cur domain.Cursor) bool { return cur.RoomID == roomID }))
}

func (p *fakePlatform) userCursors(c *gin.Context) {
	userID := c.Param("user")
	c.JSON(http.StatusOK, p.filterCursors(func(cur domain.Cursor) bool { return cur.UserID == userID }))
}
