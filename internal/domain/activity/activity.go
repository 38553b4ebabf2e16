package activity

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreatedProject     Action = "Created project"
	ActionUpdatedProject     Action = "Updated project"
	ActionDeletedProject     Action = "Deleted project"
	ActionAddedMember        Action = "Added member"
	ActionRemovedMember      Action = "Removed member"
	ActionInvitedMember      Action = "Invited member"
	ActionAcceptedInvitation Action = "Accepted invitation"
	ActionRejectedInvitation Action = "Rejected invitation"
	ActionCreatedTask        Action = "Created task"
	ActionUpdatedTask        Action = "Updated task"
	ActionDeletedTask        Action = "Deleted task"
	ActionAddedComment       Action = "Added comment"
	ActionUpdatedStatus      Action = "Updated status"
	ActionChangedRole        Action = "Changed role"
)

var actions = map[Action]struct{}{
	ActionCreatedProject: {}, ActionUpdatedProject: {}, ActionDeletedProject: {},
	ActionAddedMember: {}, ActionRemovedMember: {}, ActionInvitedMember: {},
	ActionAcceptedInvitation: {}, ActionRejectedInvitation: {},
	ActionCreatedTask: {}, ActionUpdatedTask: {}, ActionDeletedTask: {},
	ActionAddedComment: {}, ActionUpdatedStatus: {}, ActionChangedRole: {},
}

func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}

type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
	EntityMember  EntityType = "member"
	EntityComment EntityType = "comment"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityProject, EntityTask, EntityMember, EntityComment:
		return true
	}
	return false
}

// Entry is an immutable ledger row. Seq is the insertion sequence and breaks
// ties between entries sharing a timestamp.
type Entry struct {
	Seq        int64      `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;column:project_id;not null;index:idx_activity_project_created,priority:1" json:"project_id"`
	ActorID    uuid.UUID  `gorm:"type:uuid;column:actor_id;not null" json:"actor_id"`
	Action     Action     `gorm:"column:action;not null" json:"action"`
	Details    string     `gorm:"column:details" json:"details"`
	EntityType EntityType `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   *uuid.UUID `gorm:"type:uuid;column:entity_id" json:"entity_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index:idx_activity_project_created,priority:2" json:"created_at"`
}

func (Entry) TableName() string { return "project_activity" }
