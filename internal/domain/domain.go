package domain

import (
	"github.com/yungbote/collabhub-backend/internal/domain/activity"
	"github.com/yungbote/collabhub-backend/internal/domain/notification"
	"github.com/yungbote/collabhub-backend/internal/domain/project"
	"github.com/yungbote/collabhub-backend/internal/domain/task"
	"github.com/yungbote/collabhub-backend/internal/domain/user"
)

type User = user.User
type UserSummary = user.UserSummary

type Project = project.Project
type ProjectMember = project.Member
type Role = project.Role
type MemberStatus = project.MemberStatus

const (
	RoleOwner  = project.RoleOwner
	RoleMember = project.RoleMember
	RoleViewer = project.RoleViewer

	MemberPending  = project.StatusPending
	MemberAccepted = project.StatusAccepted
)

type ActivityEntry = activity.Entry
type ActivityAction = activity.Action
type ActivityEntityType = activity.EntityType

const (
	ActionCreatedProject     = activity.ActionCreatedProject
	ActionUpdatedProject     = activity.ActionUpdatedProject
	ActionDeletedProject     = activity.ActionDeletedProject
	ActionAddedMember        = activity.ActionAddedMember
	ActionRemovedMember      = activity.ActionRemovedMember
	ActionInvitedMember      = activity.ActionInvitedMember
	ActionAcceptedInvitation = activity.ActionAcceptedInvitation
	ActionRejectedInvitation = activity.ActionRejectedInvitation
	ActionCreatedTask        = activity.ActionCreatedTask
	ActionUpdatedTask        = activity.ActionUpdatedTask
	ActionDeletedTask        = activity.ActionDeletedTask
	ActionAddedComment       = activity.ActionAddedComment
	ActionUpdatedStatus      = activity.ActionUpdatedStatus
	ActionChangedRole        = activity.ActionChangedRole

	EntityProject = activity.EntityProject
	EntityTask    = activity.EntityTask
	EntityMember  = activity.EntityMember
	EntityComment = activity.EntityComment
)

type Notification = notification.Notification
type NotificationType = notification.Type

const (
	NotificationInvitation = notification.TypeInvitation
	NotificationProject    = notification.TypeProject
	NotificationTask       = notification.TypeTask
	NotificationComment    = notification.TypeComment
	NotificationMember     = notification.TypeMember
)

type Task = task.Task
type TaskStatus = task.Status
type Comment = task.Comment
type TaskAssignee = task.Assignee

const (
	TaskTodo       = task.StatusTodo
	TaskInProgress = task.StatusInProgress
	TaskDone       = task.StatusDone
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&project.Project{},
		&project.Member{},
		&activity.Entry{},
		&notification.Notification{},
		&task.Task{},
		&task.Assignee{},
		&task.Comment{},
	}
}
