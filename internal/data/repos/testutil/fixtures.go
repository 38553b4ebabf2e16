package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collabhub-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name, email string) *types.User {
	tb.Helper()
	u := &types.User{ID: uuid.New(), Email: email, Name: name}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProject creates a project and its owner-only roster.
func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.Project {
	tb.Helper()
	p := &types.Project{ID: uuid.New(), Name: name, OwnerID: ownerID}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	now := time.Now().UTC()
	owner := &types.ProjectMember{
		ProjectID: p.ID,
		UserID:    ownerID,
		Role:      types.RoleOwner,
		Status:    types.MemberAccepted,
		JoinedAt:  &now,
		Position:  0,
	}
	if err := tx.WithContext(ctx).Create(owner).Error; err != nil {
		tb.Fatalf("seed owner entry: %v", err)
	}
	return p
}

// SeedMember appends an entry at the end of the roster.
func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, status types.MemberStatus) *types.ProjectMember {
	tb.Helper()
	var maxPos int
	if err := tx.WithContext(ctx).Model(&types.ProjectMember{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPos).Error; err != nil {
		tb.Fatalf("seed member position: %v", err)
	}
	m := &types.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      types.RoleMember,
		Status:    status,
		Position:  maxPos + 1,
	}
	if status == types.MemberAccepted {
		now := time.Now().UTC()
		m.JoinedAt = &now
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}
