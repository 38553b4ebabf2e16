package realtime

import (
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
)

type SSEEvent string

const (
	SSEEventConnected SSEEvent = "Connected"

	SSEEventProjectCreated SSEEvent = "ProjectCreated"
	SSEEventProjectUpdated SSEEvent = "ProjectUpdated"
	SSEEventProjectDeleted SSEEvent = "ProjectDeleted"
	SSEEventTaskCreated    SSEEvent = "TaskCreated"
	SSEEventTaskUpdated    SSEEvent = "TaskUpdated"
	SSEEventTaskDeleted    SSEEvent = "TaskDeleted"
	SSEEventCommentAdded   SSEEvent = "CommentAdded"
	SSEEventMemberRemoved  SSEEvent = "MemberRemoved"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// Event is the closed set of project-room payloads. Only types in this
// package implement it.
type Event interface {
	EventName() SSEEvent
	isEvent()
}

type ProjectCreated struct {
	Project *types.Project `json:"project"`
}

type ProjectUpdated struct {
	Project *types.Project `json:"project"`
}

type ProjectDeleted struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type TaskCreated struct {
	Task *types.Task `json:"task"`
}

type TaskUpdated struct {
	Task *types.Task `json:"task"`
}

type TaskDeleted struct {
	TaskID    uuid.UUID `json:"task_id"`
	ProjectID uuid.UUID `json:"project_id"`
}

type CommentAdded struct {
	Comment *types.Comment    `json:"comment"`
	Author  types.UserSummary `json:"author"`
}

// MemberRemoved is the last message a removed member's connections see in
// the room before they are evicted from it.
type MemberRemoved struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
}

func (ProjectCreated) EventName() SSEEvent { return SSEEventProjectCreated }
func (ProjectUpdated) EventName() SSEEvent { return SSEEventProjectUpdated }
func (ProjectDeleted) EventName() SSEEvent { return SSEEventProjectDeleted }
func (TaskCreated) EventName() SSEEvent    { return SSEEventTaskCreated }
func (TaskUpdated) EventName() SSEEvent    { return SSEEventTaskUpdated }
func (TaskDeleted) EventName() SSEEvent    { return SSEEventTaskDeleted }
func (CommentAdded) EventName() SSEEvent   { return SSEEventCommentAdded }
func (MemberRemoved) EventName() SSEEvent  { return SSEEventMemberRemoved }

func (ProjectCreated) isEvent() {}
func (ProjectUpdated) isEvent() {}
func (ProjectDeleted) isEvent() {}
func (TaskCreated) isEvent()    {}
func (TaskUpdated) isEvent()    {}
func (TaskDeleted) isEvent()    {}
func (CommentAdded) isEvent()   {}
func (MemberRemoved) isEvent()  {}

const projectChannelPrefix = "project:"

// ProjectChannel is the room name for a project.
func ProjectChannel(projectID uuid.UUID) string {
	return projectChannelPrefix + projectID.String()
}

// IsProjectChannel reports whether ch names a project room.
func IsProjectChannel(ch string) bool {
	return strings.HasPrefix(ch, projectChannelPrefix)
}

// ProjectIDFromChannel reverses ProjectChannel.
func ProjectIDFromChannel(channel string) (uuid.UUID, bool) {
	if !strings.HasPrefix(channel, projectChannelPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, projectChannelPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// removedUser extracts the evicted user from a MemberRemoved payload. Messages
// relayed from another replica carry the payload as decoded JSON.
func removedUser(data any) (uuid.UUID, bool) {
	switch v := data.(type) {
	case MemberRemoved:
		return v.UserID, v.UserID != uuid.Nil
	case *MemberRemoved:
		if v == nil {
			return uuid.Nil, false
		}
		return v.UserID, v.UserID != uuid.Nil
	case map[string]any:
		raw, _ := v["user_id"].(string)
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, false
		}
		return id, true
	}
	return uuid.Nil, false
}

// ProjectMessage wraps ev for delivery to the project's room.
func ProjectMessage(projectID uuid.UUID, ev Event) SSEMessage {
	return SSEMessage{
		Channel: ProjectChannel(projectID),
		Event:   ev.EventName(),
		Data:    ev,
	}
}
