package task

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

type AssigneeRepo interface {
	// Replace sets the task's assignees to userIDs, in order.
	Replace(dbc dbctx.Context, projectID, taskID uuid.UUID, userIDs []uuid.UUID) error
	ListByTasks(dbc dbctx.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	DeleteByTask(dbc dbctx.Context, taskID uuid.UUID) error
	// UnassignUser drops userID from every task of the project.
	UnassignUser(dbc dbctx.Context, projectID, userID uuid.UUID) (int64, error)
}

type assigneeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssigneeRepo(db *gorm.DB, baseLog *logger.Logger) AssigneeRepo {
	return &assigneeRepo{db: db, log: baseLog.With("repo", "AssigneeRepo")}
}

func (r *assigneeRepo) Replace(dbc dbctx.Context, projectID, taskID uuid.UUID, userIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx)
	if err := q.Where("task_id = ?", taskID).Delete(&types.TaskAssignee{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]*types.TaskAssignee, 0, len(userIDs))
	for i, id := range userIDs {
		rows = append(rows, &types.TaskAssignee{
			TaskID:    taskID,
			UserID:    id,
			ProjectID: projectID,
			Position:  i,
			CreatedAt: now,
		})
	}
	return q.Create(&rows).Error
}

func (r *assigneeRepo) ListByTasks(dbc dbctx.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.TaskAssignee
	if err := transaction.WithContext(dbc.Ctx).
		Where("task_id IN ?", taskIDs).
		Order("task_id ASC, position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.TaskID] = append(out[a.TaskID], a.UserID)
	}
	return out, nil
}

func (r *assigneeRepo) DeleteByTask(dbc dbctx.Context, taskID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("task_id = ?", taskID).
		Delete(&types.TaskAssignee{}).Error
}

func (r *assigneeRepo) UnassignUser(dbc dbctx.Context, projectID, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&types.TaskAssignee{})
	return res.RowsAffected, res.Error
}
