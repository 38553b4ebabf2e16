package activity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// ActivityRepo is append-only. It exposes no update or delete.
type ActivityRepo interface {
	Append(dbc dbctx.Context, entries []*types.ActivityEntry) error
	// ListByProject returns newest first; ties on created_at fall back to
	// insertion order.
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.ActivityEntry, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Append(dbc dbctx.Context, entries []*types.ActivityEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&entries).Error
}

func (r *activityRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.ActivityEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ActivityEntry
	q := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
