package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Type string

const (
	TypeInvitation Type = "invitation"
	TypeProject    Type = "project"
	TypeTask       Type = "task"
	TypeComment    Type = "comment"
	TypeMember     Type = "member"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInvitation, TypeProject, TypeTask, TypeComment, TypeMember:
		return true
	}
	return false
}

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;column:recipient_id;not null;index:idx_notification_recipient_created,priority:1" json:"recipient_id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`
	Type        Type       `gorm:"column:type;not null" json:"type"`
	Message     string     `gorm:"column:message;not null" json:"message"`
	Read        bool       `gorm:"column:read;not null;default:false" json:"read"`
	// Data links the notification back to the entity it is about, e.g.
	// {"entity_type":"task","entity_id":"..."}.
	Data      datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index:idx_notification_recipient_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
