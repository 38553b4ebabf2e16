package task

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	Status      Status     `gorm:"column:status;not null" json:"status"`
	DueDate     *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	// Assignees is loaded from task_assignee, in assignment order.
	Assignees []uuid.UUID `gorm:"-" json:"assignees"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	return nil
}

// Assignee links a task to one of the project's accepted members.
type Assignee struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primaryKey;column:task_id" json:"task_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id;index:idx_task_assignee_project_user,priority:2" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;column:project_id;not null;index:idx_task_assignee_project_user,priority:1" json:"project_id"`
	Position  int       `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Assignee) TableName() string { return "task_assignee" }

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;column:task_id;not null;index" json:"task_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;column:author_id;not null" json:"author_id"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Comment) TableName() string { return "task_comment" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
