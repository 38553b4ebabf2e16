// Package guard answers "may this caller do this to this project" from a
// roster snapshot. It never mutates anything.
package guard

import (
	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/collab/roster"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
)

type Action string

const (
	ReadProject  Action = "read_project"
	ReadTasks    Action = "read_tasks"
	ReadComments Action = "read_comments"
	ReadRoster   Action = "read_roster"
	ReadActivity Action = "read_activity"
	JoinRoom     Action = "join_room"

	UpdateProject Action = "update_project"
	DeleteProject Action = "delete_project"
	RemoveMember  Action = "remove_member"
	ChangeRole    Action = "change_role"

	InviteMember Action = "invite_member"
	AddMember    Action = "add_member"
	CreateTask   Action = "create_task"
	UpdateTask   Action = "update_task"
	DeleteTask   Action = "delete_task"
	AddComment   Action = "add_comment"

	AcceptInvite Action = "accept_invite"
	RejectInvite Action = "reject_invite"
)

type capability int

const (
	capMember capability = iota + 1
	capOwner
	capInvitee
)

var policy = map[Action]capability{
	ReadProject:  capMember,
	ReadTasks:    capMember,
	ReadComments: capMember,
	ReadRoster:   capMember,
	ReadActivity: capMember,
	JoinRoom:     capMember,

	UpdateProject: capOwner,
	DeleteProject: capOwner,
	RemoveMember:  capOwner,
	ChangeRole:    capOwner,

	InviteMember: capMember,
	AddMember:    capMember,
	CreateTask:   capMember,
	UpdateTask:   capMember,
	DeleteTask:   capMember,
	AddComment:   capMember,

	AcceptInvite: capInvitee,
	RejectInvite: capInvitee,
}

// IsMember reports whether userID holds an accepted entry. Pending invitees
// are not members.
func IsMember(r *roster.Roster, userID uuid.UUID) bool {
	e, ok := r.EntryForUser(userID)
	return ok && e.Status == types.MemberAccepted
}

func IsOwner(r *roster.Roster, userID uuid.UUID) bool {
	e, ok := r.EntryForUser(userID)
	return ok && e.Role == types.RoleOwner && e.Status == types.MemberAccepted
}

func IsInvitee(entry types.ProjectMember, userID uuid.UUID) bool {
	return entry.UserID == userID && entry.Status == types.MemberPending
}

// Check enforces the policy for roster-level actions. Invite responses need
// the target entry and go through CheckInvitee instead.
func Check(r *roster.Roster, userID uuid.UUID, action Action) error {
	c, ok := policy[action]
	if !ok {
		return apperr.Forbidden("unknown action %q", action)
	}
	if r == nil || userID == uuid.Nil {
		return apperr.Forbidden("not a member of this project")
	}
	switch c {
	case capMember:
		if !IsMember(r, userID) {
			return apperr.Forbidden("not a member of this project")
		}
	case capOwner:
		if !IsOwner(r, userID) {
			return apperr.Forbidden("only the project owner can do this")
		}
	case capInvitee:
		return apperr.Forbidden("action %q requires an invitation entry", action)
	}
	return nil
}

// CheckInvitee enforces invite responses: NotFound when the entry is absent,
// Forbidden when it belongs to someone else.
func CheckInvitee(r *roster.Roster, entryID, userID uuid.UUID) error {
	e, ok := r.Entry(entryID)
	if !ok {
		return apperr.NotFound("invitation not found")
	}
	if e.UserID != userID {
		return apperr.Forbidden("only the invited user can respond to this invitation")
	}
	return nil
}
