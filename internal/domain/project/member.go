package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner  Role = "Owner"
	RoleMember Role = "Member"
	RoleViewer Role = "Viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleViewer:
		return true
	}
	return false
}

type MemberStatus string

const (
	StatusPending  MemberStatus = "pending"
	StatusAccepted MemberStatus = "accepted"
)

// Member is one roster entry. Its ID is the entry id used by accept, reject
// and remove; a user has at most one entry per project.
type Member struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID    `gorm:"type:uuid;column:project_id;not null;uniqueIndex:idx_project_member_user,priority:1;index" json:"project_id"`
	UserID    uuid.UUID    `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_project_member_user,priority:2;index" json:"user_id"`
	Role      Role         `gorm:"column:role;not null" json:"role"`
	Status    MemberStatus `gorm:"column:status;not null;index" json:"status"`
	InvitedBy *uuid.UUID   `gorm:"type:uuid;column:invited_by" json:"invited_by,omitempty"`
	JoinedAt  *time.Time   `gorm:"column:joined_at" json:"joined_at,omitempty"`
	Position  int          `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Member) TableName() string { return "project_member" }

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Member) IsAccepted() bool { return m != nil && m.Status == StatusAccepted }
func (m *Member) IsOwner() bool    { return m != nil && m.Role == RoleOwner }
