package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type CommentView struct {
	ID        uuid.UUID         `json:"id"`
	TaskID    uuid.UUID         `json:"task_id"`
	Content   string            `json:"content"`
	Author    types.UserSummary `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
}

type CommentService interface {
	Add(ctx context.Context, taskID, userID uuid.UUID, content string) (*CommentView, error)
	List(dbc dbctx.Context, taskID, userID uuid.UUID) ([]CommentView, error)
}

type commentService struct {
	db         *gorm.DB
	log        *logger.Logger
	tasks      repos.TaskRepo
	comments   repos.CommentRepo
	users      repos.UserRepo
	membership MembershipService
	post       *PostCommit
}

func NewCommentService(db *gorm.DB, log *logger.Logger, tasks repos.TaskRepo, comments repos.CommentRepo, users repos.UserRepo, membership MembershipService, post *PostCommit) CommentService {
	return &commentService{
		db:         db,
		log:        log.With("service", "CommentService"),
		tasks:      tasks,
		comments:   comments,
		users:      users,
		membership: membership,
		post:       post,
	}
}

// authorize resolves the task's project and applies the guard to it.
func (s *commentService) authorize(dbc dbctx.Context, taskID, userID uuid.UUID, action guard.Action) (*types.Task, error) {
	t, err := s.tasks.GetByID(dbc, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("task not found")
	}
	if _, _, err := s.membership.Authorize(dbc, t.ProjectID, userID, action); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *commentService) Add(ctx context.Context, taskID, userID uuid.UUID, content string) (*CommentView, error) {
	dbc := dbctx.New(ctx)
	t, err := s.authorize(dbc, taskID, userID, guard.AddComment)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidArgument("comment content is required")
	}
	c := &types.Comment{
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		AuthorID:  userID,
		Content:   content,
	}
	if _, err := s.comments.Create(dbc, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	author := types.UserSummary{ID: userID}
	if users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID}); err == nil && len(users) > 0 {
		author = users[0].Summary()
	}

	s.post.Run(ctx, Effects{
		ProjectID: t.ProjectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  t.ProjectID,
			ActorID:    userID,
			Action:     types.ActionAddedComment,
			Details:    c.Content,
			EntityType: types.EntityComment,
			EntityID:   entityRef(c.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationComment,
			Message:       StaticMessage("New comment on task: " + t.Title),
			Link:          taskLink(t),
		},
		Event: realtime.CommentAdded{Comment: c, Author: author},
	})
	return &CommentView{ID: c.ID, TaskID: c.TaskID, Content: c.Content, Author: author, CreatedAt: c.CreatedAt}, nil
}

func (s *commentService) List(dbc dbctx.Context, taskID, userID uuid.UUID) ([]CommentView, error) {
	if _, err := s.authorize(dbc, taskID, userID, guard.ReadComments); err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByTask(dbc, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.AuthorID)
	}
	users, err := s.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load comment authors: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]CommentView, 0, len(rows))
	for _, c := range rows {
		author := types.UserSummary{ID: c.AuthorID}
		if u, ok := byID[c.AuthorID]; ok {
			author = u.Summary()
		}
		out = append(out, CommentView{ID: c.ID, TaskID: c.TaskID, Content: c.Content, Author: author, CreatedAt: c.CreatedAt})
	}
	return out, nil
}
