package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
)

// flakyNotificationRepo fails every create addressed to one recipient.
type flakyNotificationRepo struct {
	repos.NotificationRepo
	failFor uuid.UUID
}

func (r *flakyNotificationRepo) Create(dbc dbctx.Context, n *types.Notification) error {
	if n.RecipientID == r.failFor {
		return errors.New("disk full")
	}
	return r.NotificationRepo.Create(dbc, n)
}

func TestTriggerContinuesPastFailingRecipient(t *testing.T) {
	flaky := &flakyNotificationRepo{}
	h := newHarness(t, withNotificationRepo(func(inner repos.NotificationRepo) repos.NotificationRepo {
		flaky.NotificationRepo = inner
		return flaky
	}))
	owner := h.user(t, "Owner", "owner@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	carol := h.user(t, "Carol", "carol@example.com")
	dave := h.user(t, "Dave", "dave@example.com")
	p := h.projectWith(t, owner, "Apollo", bob, carol, dave)
	h.resetEffects(t)
	flaky.failFor = carol.ID

	res := h.fanout.Trigger(h.ctx, p.ID, owner.ID, types.NotificationTask, StaticMessage("Task created: x"), nil)
	if res.Attempted != 3 || res.Created != 2 || res.Failed != 1 {
		t.Fatalf("result: %+v", res)
	}
	for _, u := range []*types.User{bob, dave} {
		if n := h.notificationsFor(t, u.ID); len(n) != 1 {
			t.Fatalf("%s: want 1 notification got %d", u.Name, len(n))
		}
	}
	if n := h.notificationsFor(t, carol.ID); len(n) != 0 {
		t.Fatalf("carol got %d notifications", len(n))
	}
}

func TestTaskCreateSucceedsWhenFanoutFails(t *testing.T) {
	flaky := &flakyNotificationRepo{}
	h := newHarness(t, withNotificationRepo(func(inner repos.NotificationRepo) repos.NotificationRepo {
		flaky.NotificationRepo = inner
		return flaky
	}))
	owner := h.user(t, "Owner", "owner@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	p := h.projectWith(t, owner, "Apollo", bob)
	flaky.failFor = bob.ID
	h.resetEffects(t)

	task, err := h.task.Create(h.ctx, p.ID, owner.ID, TaskInput{Title: "Ship"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, _ := h.tasks.GetByID(h.dbc(), task.ID); got == nil {
		t.Fatalf("task rolled back after fan-out failure")
	}
	if ev := h.emitter.events(); len(ev) != 1 {
		t.Fatalf("publish skipped after fan-out failure: %v", ev)
	}
}

func TestNotifyStoresLink(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "Alice", "alice@example.com")
	projectID, entityID := uuid.New(), uuid.New()

	res := h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, projectID, types.NotificationInvitation,
		StaticMessage("hello"), &NotificationLink{EntityType: types.EntityMember, EntityID: entityID, ProjectID: projectID})
	if res.Created != 1 {
		t.Fatalf("result: %+v", res)
	}
	got := h.notificationsFor(t, alice.ID)
	if len(got) != 1 || got[0].ProjectID == nil || *got[0].ProjectID != projectID {
		t.Fatalf("notification: %+v", got)
	}
	var link NotificationLink
	if err := json.Unmarshal(got[0].Data, &link); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	if link.EntityID != entityID || link.EntityType != types.EntityMember {
		t.Fatalf("link: %+v", link)
	}
}

func TestMarkReadAndDeleteOwnership(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "Alice", "alice@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, uuid.Nil, types.NotificationProject, StaticMessage("one"), nil)
	n := h.notificationsFor(t, alice.ID)[0]

	if _, err := h.fanout.MarkRead(h.dbc(), n.ID, bob.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("foreign MarkRead: want Forbidden got %v", err)
	}
	if _, err := h.fanout.MarkRead(h.dbc(), uuid.New(), alice.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown MarkRead: want NotFound got %v", err)
	}

	count, _ := h.fanout.UnreadCount(h.dbc(), alice.ID)
	if count != 1 {
		t.Fatalf("unread before: want=1 got=%d", count)
	}
	for i := 0; i < 2; i++ {
		read, err := h.fanout.MarkRead(h.dbc(), n.ID, alice.ID)
		if err != nil {
			t.Fatalf("MarkRead #%d: %v", i+1, err)
		}
		if !read.Read {
			t.Fatalf("MarkRead #%d: not read", i+1)
		}
	}
	count, _ = h.fanout.UnreadCount(h.dbc(), alice.ID)
	if count != 0 {
		t.Fatalf("unread after: want=0 got=%d", count)
	}

	if err := h.fanout.Delete(h.dbc(), n.ID, bob.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("foreign Delete: want Forbidden got %v", err)
	}
	if err := h.fanout.Delete(h.dbc(), n.ID, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := h.fanout.Delete(h.dbc(), n.ID, alice.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second Delete: want NotFound got %v", err)
	}
}

func TestListIsNewestFirst(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "Alice", "alice@example.com")
	for _, msg := range []string{"first", "second", "third"} {
		h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, uuid.Nil, types.NotificationProject, StaticMessage(msg), nil)
	}
	list, err := h.fanout.List(h.dbc(), alice.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Message != "third" || list[2].Message != "first" {
		t.Fatalf("order: %+v", list)
	}
}

func TestListForProjectFiltersByProject(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "Alice", "alice@example.com")
	p1, p2 := uuid.New(), uuid.New()
	h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, p1, types.NotificationTask, StaticMessage("p1 old"), nil)
	h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, p2, types.NotificationTask, StaticMessage("p2"), nil)
	h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, uuid.Nil, types.NotificationProject, StaticMessage("global"), nil)
	h.fanout.Notify(h.ctx, []uuid.UUID{alice.ID}, p1, types.NotificationTask, StaticMessage("p1 new"), nil)

	list, err := h.fanout.ListForProject(h.dbc(), alice.ID, p1)
	if err != nil {
		t.Fatalf("ListForProject: %v", err)
	}
	if len(list) != 2 || list[0].Message != "p1 new" || list[1].Message != "p1 old" {
		t.Fatalf("project list: %+v", list)
	}
	if _, err := h.fanout.ListForProject(h.dbc(), uuid.Nil, p1); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("anonymous: want Unauthorized got %v", err)
	}
}
