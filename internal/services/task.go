package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/collab/roster"
	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type TaskInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      types.TaskStatus `json:"status"`
	DueDate     *time.Time       `json:"due_date"`
	Assignees   []uuid.UUID      `json:"assignees"`
}

type TaskPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *types.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	// ClearDueDate removes the due date. It cannot be combined with DueDate.
	ClearDueDate bool `json:"clear_due_date"`
	// Assignees replaces the assignee list when present; an empty list
	// unassigns everyone.
	Assignees *[]uuid.UUID `json:"assignees"`
}

type TaskService interface {
	Create(ctx context.Context, projectID, userID uuid.UUID, in TaskInput) (*types.Task, error)
	Get(dbc dbctx.Context, projectID, taskID, userID uuid.UUID) (*types.Task, error)
	List(dbc dbctx.Context, projectID, userID uuid.UUID) ([]*types.Task, error)
	Update(ctx context.Context, projectID, taskID, userID uuid.UUID, patch TaskPatch) (*types.Task, error)
	Delete(ctx context.Context, projectID, taskID, userID uuid.UUID) error
}

type taskService struct {
	db         *gorm.DB
	log        *logger.Logger
	tasks      repos.TaskRepo
	assignees  repos.AssigneeRepo
	comments   repos.CommentRepo
	membership MembershipService
	post       *PostCommit
}

func NewTaskService(db *gorm.DB, log *logger.Logger, tasks repos.TaskRepo, assignees repos.AssigneeRepo, comments repos.CommentRepo, membership MembershipService, post *PostCommit) TaskService {
	return &taskService{
		db:         db,
		log:        log.With("service", "TaskService"),
		tasks:      tasks,
		assignees:  assignees,
		comments:   comments,
		membership: membership,
		post:       post,
	}
}

func taskLink(t *types.Task) *NotificationLink {
	return &NotificationLink{EntityType: types.EntityTask, EntityID: t.ID, ProjectID: t.ProjectID}
}

// checkAssignees dedupes ids, keeping first occurrence order, and requires
// each to be an accepted member.
func checkAssignees(r *roster.Roster, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !guard.IsMember(r, id) {
			return nil, apperr.InvalidArgument("assignee %s is not a member of this project", id)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *taskService) Create(ctx context.Context, projectID, userID uuid.UUID, in TaskInput) (*types.Task, error) {
	dbc := dbctx.New(ctx)
	_, r, err := s.membership.Authorize(dbc, projectID, userID, guard.CreateTask)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.InvalidArgument("task title is required")
	}
	status := in.Status
	if status == "" {
		status = types.TaskTodo
	}
	if !status.Valid() {
		return nil, apperr.InvalidArgument("unknown task status %q", status)
	}
	t := &types.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		DueDate:     in.DueDate,
	}
	assignees, err := checkAssignees(r, in.Assignees)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.tasks.Create(txc, t); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if err := s.assignees.Replace(txc, projectID, t.ID, assignees); err != nil {
			return fmt.Errorf("assign task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees

	s.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    userID,
			Action:     types.ActionCreatedTask,
			Details:    t.Title,
			EntityType: types.EntityTask,
			EntityID:   entityRef(t.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationTask,
			Message:       StaticMessage("Task created: " + t.Title),
			Link:          taskLink(t),
		},
		Event: realtime.TaskCreated{Task: t},
	})
	return t, nil
}

// load returns the task only if it belongs to projectID.
func (s *taskService) load(dbc dbctx.Context, projectID, taskID uuid.UUID) (*types.Task, error) {
	t, err := s.tasks.GetByID(dbc, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil || t.ProjectID != projectID {
		return nil, apperr.NotFound("task not found")
	}
	if err := s.withAssignees(dbc, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) withAssignees(dbc dbctx.Context, tasks ...*types.Task) error {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	byTask, err := s.assignees.ListByTasks(dbc, ids)
	if err != nil {
		return fmt.Errorf("load assignees: %w", err)
	}
	for _, t := range tasks {
		t.Assignees = byTask[t.ID]
		if t.Assignees == nil {
			t.Assignees = []uuid.UUID{}
		}
	}
	return nil
}

func (s *taskService) Get(dbc dbctx.Context, projectID, taskID, userID uuid.UUID) (*types.Task, error) {
	if _, _, err := s.membership.Authorize(dbc, projectID, userID, guard.ReadTasks); err != nil {
		return nil, err
	}
	return s.load(dbc, projectID, taskID)
}

func (s *taskService) List(dbc dbctx.Context, projectID, userID uuid.UUID) ([]*types.Task, error) {
	if _, _, err := s.membership.Authorize(dbc, projectID, userID, guard.ReadTasks); err != nil {
		return nil, err
	}
	out, err := s.tasks.ListByProject(dbc, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if err := s.withAssignees(dbc, out...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *taskService) Update(ctx context.Context, projectID, taskID, userID uuid.UUID, patch TaskPatch) (*types.Task, error) {
	dbc := dbctx.New(ctx)
	_, r, err := s.membership.Authorize(dbc, projectID, userID, guard.UpdateTask)
	if err != nil {
		return nil, err
	}
	t, err := s.load(dbc, projectID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	statusChanged := false
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.InvalidArgument("task title cannot be empty")
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperr.InvalidArgument("unknown task status %q", *patch.Status)
		}
		if *patch.Status != t.Status {
			statusChanged = true
		}
		updates["status"] = *patch.Status
	}
	switch {
	case patch.ClearDueDate && patch.DueDate != nil:
		return nil, apperr.InvalidArgument("due_date and clear_due_date are mutually exclusive")
	case patch.ClearDueDate:
		updates["due_date"] = nil
	case patch.DueDate != nil:
		updates["due_date"] = *patch.DueDate
	}
	var assignees []uuid.UUID
	if patch.Assignees != nil {
		if assignees, err = checkAssignees(r, *patch.Assignees); err != nil {
			return nil, err
		}
	}
	if len(updates) == 0 && patch.Assignees == nil {
		return t, nil
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.tasks.UpdateFields(txc, taskID, updates); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if patch.Assignees == nil {
			return nil
		}
		if err := s.assignees.Replace(txc, projectID, taskID, assignees); err != nil {
			return fmt.Errorf("assign task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t, err = s.load(dbc, projectID, taskID)
	if err != nil {
		return nil, err
	}

	action := types.ActionUpdatedTask
	if statusChanged {
		action = types.ActionUpdatedStatus
	}
	s.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    userID,
			Action:     action,
			Details:    t.Title,
			EntityType: types.EntityTask,
			EntityID:   entityRef(t.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationTask,
			Message:       StaticMessage("Task updated: " + t.Title),
			Link:          taskLink(t),
		},
		Event: realtime.TaskUpdated{Task: t},
	})
	return t, nil
}

func (s *taskService) Delete(ctx context.Context, projectID, taskID, userID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	if _, _, err := s.membership.Authorize(dbc, projectID, userID, guard.DeleteTask); err != nil {
		return err
	}
	t, err := s.load(dbc, projectID, taskID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.comments.DeleteByTask(txc, taskID); err != nil {
			return fmt.Errorf("delete task comments: %w", err)
		}
		if err := s.assignees.DeleteByTask(txc, taskID); err != nil {
			return fmt.Errorf("delete task assignees: %w", err)
		}
		if err := s.tasks.Delete(txc, taskID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    userID,
			Action:     types.ActionDeletedTask,
			Details:    t.Title,
			EntityType: types.EntityTask,
			EntityID:   entityRef(t.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationTask,
			Message:       StaticMessage("Task deleted: " + t.Title),
			Link:          &NotificationLink{EntityType: types.EntityProject, EntityID: projectID, ProjectID: projectID},
		},
		Event: realtime.TaskDeleted{TaskID: t.ID, ProjectID: projectID},
	})
	return nil
}
