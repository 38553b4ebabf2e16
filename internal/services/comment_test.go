package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

func TestAddCommentPublishesWithAuthor(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Owner", "owner@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	p := h.projectWith(t, owner, "Apollo", bob)
	task, err := h.task.Create(h.ctx, p.ID, owner.ID, TaskInput{Title: "Ship"})
	if err != nil {
		t.Fatalf("Create task: %v", err)
	}
	h.resetEffects(t)

	view, err := h.comment.Add(h.ctx, task.ID, bob.ID, " looks good ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if view.Content != "looks good" || view.Author.Name != "Bob" {
		t.Fatalf("view: %+v", view)
	}

	got := h.notificationsFor(t, owner.ID)
	if len(got) != 1 || got[0].Type != types.NotificationComment || got[0].Message != "New comment on task: Ship" {
		t.Fatalf("owner notifications: %+v", got)
	}
	entries := h.activityFor(t, p.ID)
	if len(entries) != 1 || entries[0].Action != types.ActionAddedComment || entries[0].EntityType != types.EntityComment {
		t.Fatalf("ledger: %+v", entries)
	}
	msgs := h.emitter.msgs
	if len(msgs) != 1 || msgs[0].Event != realtime.SSEEventCommentAdded {
		t.Fatalf("events: %+v", msgs)
	}
	payload, ok := msgs[0].Data.(realtime.CommentAdded)
	if !ok || payload.Author.ID != bob.ID || payload.Comment.TaskID != task.ID {
		t.Fatalf("payload: %+v", msgs[0].Data)
	}

	list, err := h.comment.List(h.dbc(), task.ID, owner.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Author.Email != bob.Email {
		t.Fatalf("list: %+v", list)
	}
}

func TestCommentGuards(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Owner", "owner@example.com")
	eve := h.user(t, "Eve", "eve@example.com")
	p := h.projectWith(t, owner, "Apollo")
	task, _ := h.task.Create(h.ctx, p.ID, owner.ID, TaskInput{Title: "Ship"})

	if _, err := h.comment.Add(h.ctx, task.ID, eve.ID, "hi"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("outsider comment: want Forbidden got %v", err)
	}
	if _, err := h.comment.List(h.dbc(), task.ID, eve.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("outsider list: want Forbidden got %v", err)
	}
	if _, err := h.comment.Add(h.ctx, uuid.New(), owner.ID, "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown task: want NotFound got %v", err)
	}
	if _, err := h.comment.Add(h.ctx, task.ID, owner.ID, "   "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("blank comment: want InvalidArgument got %v", err)
	}
}
