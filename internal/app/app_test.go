package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/data/repos/testutil"
	"github.com/yungbote/collabhub-backend/internal/realtime"
	"github.com/yungbote/collabhub-backend/internal/services"
)

const testSecret = "test-secret"

type caller struct {
	id    uuid.UUID
	token string
}

func newCaller(t *testing.T, name, email string) caller {
	t.Helper()
	id := uuid.New()
	claims := services.JWTClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return caller{id: id, token: signed}
}

func testApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := Config{
		Port:              "0",
		DBDriver:          DriverSQLite,
		JWTSecretKey:      testSecret,
		FanoutConcurrency: 2,
		RosterCASRetries:  3,
		RealtimeBuffer:    8,
	}
	a, err := Build(testutil.Logger(t), cfg, testutil.DB(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, a *App, who caller, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who.token != "" {
		req.Header.Set("Authorization", "Bearer "+who.token)
	}
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestInviteAcceptFlowOverHTTP(t *testing.T) {
	a := testApp(t)
	owner := newCaller(t, "Owner", "owner@example.com")
	bob := newCaller(t, "Bob", "bob@example.com")
	eve := newCaller(t, "Eve", "eve@example.com")

	// First request creates the user row.
	for _, c := range []caller{owner, bob, eve} {
		if code := do(t, a, c, http.MethodGet, "/api/me", nil, nil); code != http.StatusOK {
			t.Fatalf("GET /api/me: status %d", code)
		}
	}

	var created struct {
		Project struct {
			ID uuid.UUID `json:"id"`
		} `json:"project"`
	}
	if code := do(t, a, owner, http.MethodPost, "/api/projects", map[string]string{"name": "Apollo"}, &created); code != http.StatusCreated {
		t.Fatalf("create project: status %d", code)
	}
	base := "/api/projects/" + created.Project.ID.String()

	var invited struct {
		Entry struct {
			ID uuid.UUID `json:"id"`
		} `json:"entry"`
	}
	if code := do(t, a, owner, http.MethodPost, base+"/members/invite", map[string]string{"email": "bob@example.com"}, &invited); code != http.StatusCreated {
		t.Fatalf("invite: status %d", code)
	}
	if code := do(t, a, owner, http.MethodPost, base+"/members/invite", map[string]string{"email": "bob@example.com"}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate invite: want 409 got %d", code)
	}
	if code := do(t, a, bob, http.MethodGet, base, nil, nil); code != http.StatusForbidden {
		t.Fatalf("pending invitee read: want 403 got %d", code)
	}

	var me struct {
		Me services.MeView `json:"me"`
	}
	do(t, a, bob, http.MethodGet, "/api/me", nil, &me)
	if len(me.Me.Invitations) != 1 || me.Me.Invitations[0].EntryID != invited.Entry.ID {
		t.Fatalf("bob invitations: %+v", me.Me.Invitations)
	}

	accept := base + "/members/invites/" + invited.Entry.ID.String() + "/accept"
	if code := do(t, a, eve, http.MethodPost, accept, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign accept: want 403 got %d", code)
	}
	if code := do(t, a, bob, http.MethodPost, accept, nil, nil); code != http.StatusOK {
		t.Fatalf("accept: status %d", code)
	}

	var members struct {
		Members []services.MemberView `json:"members"`
	}
	if code := do(t, a, bob, http.MethodGet, base+"/members", nil, &members); code != http.StatusOK {
		t.Fatalf("members: status %d", code)
	}
	if len(members.Members) != 2 {
		t.Fatalf("members: %+v", members.Members)
	}

	var activity struct {
		Activity []services.ActivityView `json:"activity"`
	}
	do(t, a, owner, http.MethodGet, base+"/activity?limit=10", nil, &activity)
	if len(activity.Activity) < 3 {
		t.Fatalf("activity: %+v", activity.Activity)
	}

	var unread struct {
		Unread int64 `json:"unread"`
	}
	do(t, a, owner, http.MethodGet, "/api/notifications/unread-count", nil, &unread)
	if unread.Unread != 1 {
		t.Fatalf("owner unread: want=1 got=%d", unread.Unread)
	}

	if code := do(t, a, eve, http.MethodGet, base, nil, nil); code != http.StatusForbidden {
		t.Fatalf("outsider read: want 403 got %d", code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := testApp(t)
	if code := do(t, a, caller{}, http.MethodGet, "/api/projects", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: want 401 got %d", code)
	}
	forged := newCaller(t, "Mallory", "m@example.com")
	forged.token += "x"
	if code := do(t, a, forged, http.MethodGet, "/api/projects", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad signature: want 401 got %d", code)
	}
	if code := do(t, a, caller{}, http.MethodGet, "/healthcheck", nil, nil); code != http.StatusOK {
		t.Fatalf("healthcheck: status %d", code)
	}
}

func nextEvent(t *testing.T, ch <-chan realtime.SSEMessage) realtime.SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a room event")
	}
	return realtime.SSEMessage{}
}

func quiet(t *testing.T, ch <-chan realtime.SSEMessage) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected room event: %s", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomJoinLeaveOverHTTP(t *testing.T) {
	a := testApp(t)
	hub := a.Clients.Hub
	owner := newCaller(t, "Owner", "owner@example.com")
	bob := newCaller(t, "Bob", "bob@example.com")
	eve := newCaller(t, "Eve", "eve@example.com")
	for _, c := range []caller{owner, bob, eve} {
		do(t, a, c, http.MethodGet, "/api/me", nil, nil)
	}

	var created struct {
		Project struct {
			ID uuid.UUID `json:"id"`
		} `json:"project"`
	}
	do(t, a, owner, http.MethodPost, "/api/projects", map[string]string{"name": "Apollo"}, &created)
	projectID := created.Project.ID
	base := "/api/projects/" + projectID.String()
	var added struct {
		Entry struct {
			ID uuid.UUID `json:"id"`
		} `json:"entry"`
	}
	if code := do(t, a, owner, http.MethodPost, base+"/members", map[string]string{"email": "bob@example.com"}, &added); code != http.StatusCreated {
		t.Fatalf("add bob: status %d", code)
	}

	bobConn := hub.NewSSEClient(bob.id)
	eveConn := hub.NewSSEClient(eve.id)
	room := realtime.ProjectChannel(projectID)
	join := func(who caller, conn uuid.UUID) int {
		return do(t, a, who, http.MethodPost, "/api/realtime/join", map[string]uuid.UUID{"connection_id": conn, "project_id": projectID}, nil)
	}

	if code := join(eve, eveConn.ID); code != http.StatusForbidden {
		t.Fatalf("non-member join: want 403 got %d", code)
	}
	if code := join(eve, bobConn.ID); code != http.StatusNotFound {
		t.Fatalf("join with another user's connection: want 404 got %d", code)
	}
	if code := join(bob, uuid.New()); code != http.StatusNotFound {
		t.Fatalf("unknown connection: want 404 got %d", code)
	}
	if code := join(bob, bobConn.ID); code != http.StatusOK {
		t.Fatalf("member join: status %d", code)
	}
	if n := hub.Subscribers(room); n != 1 {
		t.Fatalf("room subscribers: want=1 got=%d", n)
	}

	if code := do(t, a, owner, http.MethodPost, base+"/tasks", map[string]string{"title": "Launch"}, nil); code != http.StatusCreated {
		t.Fatalf("create task: status %d", code)
	}
	if msg := nextEvent(t, bobConn.Outbound); msg.Event != realtime.SSEEventTaskCreated || msg.Channel != room {
		t.Fatalf("bob got %s on %s", msg.Event, msg.Channel)
	}
	quiet(t, eveConn.Outbound)

	leave := map[string]uuid.UUID{"connection_id": bobConn.ID, "project_id": projectID}
	if code := do(t, a, eve, http.MethodPost, "/api/realtime/leave", leave, nil); code != http.StatusNotFound {
		t.Fatalf("leave with another user's connection: want 404 got %d", code)
	}
	if code := do(t, a, bob, http.MethodPost, "/api/realtime/leave", leave, nil); code != http.StatusOK {
		t.Fatalf("leave: status %d", code)
	}
	do(t, a, owner, http.MethodPost, base+"/tasks", map[string]string{"title": "After leave"}, nil)
	quiet(t, bobConn.Outbound)

	// removal evicts the member's connection from the room
	join(bob, bobConn.ID)
	if code := do(t, a, owner, http.MethodDelete, base+"/members/"+added.Entry.ID.String(), nil, nil); code != http.StatusOK {
		t.Fatalf("remove bob: status %d", code)
	}
	if msg := nextEvent(t, bobConn.Outbound); msg.Event != realtime.SSEEventMemberRemoved {
		t.Fatalf("bob got %s, want MemberRemoved", msg.Event)
	}
	do(t, a, owner, http.MethodPost, base+"/tasks", map[string]string{"title": "Secret"}, nil)
	quiet(t, bobConn.Outbound)
	if code := join(bob, bobConn.ID); code != http.StatusForbidden {
		t.Fatalf("rejoin after removal: want 403 got %d", code)
	}
}

func TestRoleChangeAndProjectNotificationsOverHTTP(t *testing.T) {
	a := testApp(t)
	owner := newCaller(t, "Owner", "owner@example.com")
	bob := newCaller(t, "Bob", "bob@example.com")
	eve := newCaller(t, "Eve", "eve@example.com")
	for _, c := range []caller{owner, bob, eve} {
		do(t, a, c, http.MethodGet, "/api/me", nil, nil)
	}

	type projectResp struct {
		Project struct {
			ID uuid.UUID `json:"id"`
		} `json:"project"`
	}
	var apollo, gemini projectResp
	do(t, a, owner, http.MethodPost, "/api/projects", map[string]string{"name": "Apollo"}, &apollo)
	do(t, a, owner, http.MethodPost, "/api/projects", map[string]string{"name": "Gemini"}, &gemini)
	base := "/api/projects/" + apollo.Project.ID.String()

	var added struct {
		Entry struct {
			ID uuid.UUID `json:"id"`
		} `json:"entry"`
	}
	do(t, a, owner, http.MethodPost, base+"/members", map[string]string{"email": "bob@example.com"}, &added)
	do(t, a, owner, http.MethodPost, "/api/projects/"+gemini.Project.ID.String()+"/members", map[string]string{"email": "bob@example.com"}, nil)

	entryPath := base + "/members/" + added.Entry.ID.String()
	if code := do(t, a, bob, http.MethodPatch, entryPath, map[string]string{"role": "Viewer"}, nil); code != http.StatusForbidden {
		t.Fatalf("member changing roles: want 403 got %d", code)
	}
	if code := do(t, a, owner, http.MethodPatch, entryPath, map[string]string{"role": "Owner"}, nil); code == http.StatusOK {
		t.Fatalf("promoting to owner must fail")
	}
	var changed struct {
		Entry struct {
			Role string `json:"role"`
		} `json:"entry"`
	}
	if code := do(t, a, owner, http.MethodPatch, entryPath, map[string]string{"role": "Viewer"}, &changed); code != http.StatusOK {
		t.Fatalf("change role: status %d", code)
	}
	if changed.Entry.Role != "Viewer" {
		t.Fatalf("role: got %q", changed.Entry.Role)
	}

	var scoped struct {
		Notifications []struct {
			ProjectID *uuid.UUID `json:"project_id"`
			Message   string     `json:"message"`
		} `json:"notifications"`
	}
	if code := do(t, a, bob, http.MethodGet, base+"/notifications", nil, &scoped); code != http.StatusOK {
		t.Fatalf("project notifications: status %d", code)
	}
	if len(scoped.Notifications) != 2 {
		t.Fatalf("bob's Apollo notifications: %+v", scoped.Notifications)
	}
	for _, n := range scoped.Notifications {
		if n.ProjectID == nil || *n.ProjectID != apollo.Project.ID {
			t.Fatalf("notification from another project: %+v", n)
		}
	}
	var all struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	do(t, a, bob, http.MethodGet, "/api/notifications", nil, &all)
	if len(all.Notifications) != 3 {
		t.Fatalf("bob's notifications overall: want=3 got=%d", len(all.Notifications))
	}
	if code := do(t, a, eve, http.MethodGet, base+"/notifications", nil, nil); code != http.StatusForbidden {
		t.Fatalf("outsider project notifications: want 403 got %d", code)
	}
}
