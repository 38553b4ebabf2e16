package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	"github.com/yungbote/collabhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

// recordingEmitter keeps every emitted message in order and, when hub is
// set, also broadcasts it.
type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
	hub  *realtime.SSEHub
}

func (e *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
	if e.hub != nil {
		e.hub.Broadcast(msg)
	}
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

type harness struct {
	ctx     context.Context
	db      *gorm.DB
	log     *logger.Logger
	emitter *recordingEmitter

	users         repos.UserRepo
	projects      repos.ProjectRepo
	members       repos.MemberRepo
	activity      repos.ActivityRepo
	notifications repos.NotificationRepo
	tasks         repos.TaskRepo
	comments      repos.CommentRepo
	assignees     repos.AssigneeRepo

	ledger     ActivityLedger
	fanout     NotificationFanout
	post       *PostCommit
	membership MembershipService
	project    ProjectService
	task       TaskService
	comment    CommentService
}

type harnessOption func(h *harness)

func withProjectRepo(wrap func(repos.ProjectRepo) repos.ProjectRepo) harnessOption {
	return func(h *harness) { h.projects = wrap(h.projects) }
}

func withNotificationRepo(wrap func(repos.NotificationRepo) repos.NotificationRepo) harnessOption {
	return func(h *harness) { h.notifications = wrap(h.notifications) }
}

func withHub(hub *realtime.SSEHub) harnessOption {
	return func(h *harness) { h.emitter.hub = hub }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		ctx:           context.Background(),
		db:            db,
		log:           log,
		emitter:       &recordingEmitter{},
		users:         repos.NewUserRepo(db, log),
		projects:      repos.NewProjectRepo(db, log),
		members:       repos.NewMemberRepo(db, log),
		activity:      repos.NewActivityRepo(db, log),
		notifications: repos.NewNotificationRepo(db, log),
		tasks:         repos.NewTaskRepo(db, log),
		comments:      repos.NewCommentRepo(db, log),
		assignees:     repos.NewAssigneeRepo(db, log),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ledger = NewActivityLedger(db, log, h.activity, h.users)
	h.fanout = NewNotificationFanout(db, log, h.members, h.notifications, 4)
	h.post = NewPostCommit(log, h.ledger, h.fanout, h.emitter)
	h.membership = NewMembershipService(db, log, h.projects, h.members, h.users, h.assignees, h.post, 3)
	h.project = NewProjectService(db, log, h.projects, h.membership, h.post)
	h.task = NewTaskService(db, log, h.tasks, h.assignees, h.comments, h.membership, h.post)
	h.comment = NewCommentService(db, log, h.tasks, h.comments, h.users, h.membership, h.post)
	return h
}

func (h *harness) dbc() dbctx.Context { return dbctx.New(h.ctx) }

func (h *harness) user(t *testing.T, name, email string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, h.ctx, h.db, name, email)
}

// projectWith creates a project owned by owner whose other users are
// already accepted members.
func (h *harness) projectWith(t *testing.T, owner *types.User, name string, members ...*types.User) *types.Project {
	t.Helper()
	p, err := h.project.Create(h.ctx, owner.ID, name, "")
	if err != nil {
		t.Fatalf("Create project: %v", err)
	}
	for _, m := range members {
		if _, err := h.membership.AddDirect(h.ctx, p.ID, owner.ID, m.Email, ""); err != nil {
			t.Fatalf("AddDirect %s: %v", m.Email, err)
		}
	}
	return p
}

func (h *harness) notificationsFor(t *testing.T, userID uuid.UUID) []*types.Notification {
	t.Helper()
	out, err := h.notifications.ListByRecipient(h.dbc(), userID, 0)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	return out
}

func (h *harness) activityFor(t *testing.T, projectID uuid.UUID) []*types.ActivityEntry {
	t.Helper()
	out, err := h.activity.ListByProject(h.dbc(), projectID, 0)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	return out
}

// resetEffects forgets side effects recorded so far so a test can look at
// one mutation in isolation.
func (h *harness) resetEffects(t *testing.T) {
	t.Helper()
	if err := h.db.Exec("DELETE FROM notification").Error; err != nil {
		t.Fatalf("clear notifications: %v", err)
	}
	if err := h.db.Exec("DELETE FROM project_activity").Error; err != nil {
		t.Fatalf("clear activity: %v", err)
	}
	h.emitter.mu.Lock()
	h.emitter.msgs = nil
	h.emitter.mu.Unlock()
}

func countAction(entries []*types.ActivityEntry, action types.ActivityAction) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
