package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type failingLedger struct{ calls int }

func (l *failingLedger) Append(dbc dbctx.Context, entry *types.ActivityEntry) error {
	l.calls++
	return errors.New("ledger offline")
}

func (l *failingLedger) Query(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]ActivityView, error) {
	return nil, nil
}

func TestPostCommitSwallowsLedgerFailure(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Owner", "owner@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	p := h.projectWith(t, owner, "Apollo", bob)
	h.resetEffects(t)

	ledger := &failingLedger{}
	post := NewPostCommit(h.log, ledger, h.fanout, h.emitter)
	rep := post.Run(h.ctx, Effects{
		ProjectID: p.ID,
		ActorID:   owner.ID,
		Activity:  &types.ActivityEntry{ProjectID: p.ID, ActorID: owner.ID, Action: types.ActionCreatedTask, EntityType: types.EntityTask},
		Fanout:    &FanoutSpec{ExcludeUserID: owner.ID, Type: types.NotificationTask, Message: StaticMessage("Task created: x")},
		Event:     realtime.TaskDeleted{TaskID: uuid.New(), ProjectID: p.ID},
	})

	if ledger.calls != 1 || rep.LedgerErr == nil {
		t.Fatalf("ledger not attempted: calls=%d err=%v", ledger.calls, rep.LedgerErr)
	}
	if rep.Fanout.Created != 1 {
		t.Fatalf("fan-out skipped after ledger failure: %+v", rep.Fanout)
	}
	if !rep.Published || len(h.emitter.events()) != 1 {
		t.Fatalf("publish skipped after ledger failure")
	}
}

func TestPostCommitIgnoresCanceledRequest(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Owner", "owner@example.com")
	bob := h.user(t, "Bob", "bob@example.com")
	p := h.projectWith(t, owner, "Apollo", bob)
	h.resetEffects(t)

	ctx, cancel := context.WithCancel(h.ctx)
	cancel()
	rep := h.post.Run(ctx, Effects{
		ProjectID: p.ID,
		ActorID:   owner.ID,
		Activity:  &types.ActivityEntry{ProjectID: p.ID, ActorID: owner.ID, Action: types.ActionUpdatedProject, EntityType: types.EntityProject, CreatedAt: time.Now().UTC()},
		Fanout:    &FanoutSpec{ExcludeUserID: owner.ID, Type: types.NotificationProject, Message: StaticMessage("Project updated: Apollo")},
	})
	if rep.LedgerErr != nil {
		t.Fatalf("ledger: %v", rep.LedgerErr)
	}
	if rep.Fanout.Created != 1 {
		t.Fatalf("fan-out: %+v", rep.Fanout)
	}
}

func TestNilPostCommitIsNoop(t *testing.T) {
	var post *PostCommit
	rep := post.Run(context.Background(), Effects{Event: realtime.ProjectDeleted{}})
	if rep.Published {
		t.Fatalf("nil hook published")
	}
}
