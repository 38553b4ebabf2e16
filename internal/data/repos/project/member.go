package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

type MemberRepo interface {
	// ListByProject returns the roster rows in position order.
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]types.ProjectMember, error)
	Create(dbc dbctx.Context, members []*types.ProjectMember) error
	UpdateStatus(dbc dbctx.Context, entryID uuid.UUID, status types.MemberStatus, joinedAt *time.Time) error
	UpdateRole(dbc dbctx.Context, entryID uuid.UUID, role types.Role) error
	DeleteByIDs(dbc dbctx.Context, entryIDs []uuid.UUID) error
	ListPendingForUser(dbc dbctx.Context, userID uuid.UUID) ([]types.ProjectMember, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]types.ProjectMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.ProjectMember
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) Create(dbc dbctx.Context, members []*types.ProjectMember) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(members) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&members).Error
}

func (r *memberRepo) UpdateStatus(dbc dbctx.Context, entryID uuid.UUID, status types.MemberStatus, joinedAt *time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectMember{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"status":    status,
			"joined_at": joinedAt,
		}).Error
}

func (r *memberRepo) UpdateRole(dbc dbctx.Context, entryID uuid.UUID, role types.Role) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ProjectMember{}).
		Where("id = ?", entryID).
		Update("role", role).Error
}

func (r *memberRepo) DeleteByIDs(dbc dbctx.Context, entryIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entryIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", entryIDs).
		Delete(&types.ProjectMember{}).Error
}

func (r *memberRepo) ListPendingForUser(dbc dbctx.Context, userID uuid.UUID) ([]types.ProjectMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.ProjectMember
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ?", userID, types.MemberPending).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
