package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/collab/roster"
	"github.com/yungbote/collabhub-backend/internal/data/db"
	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/keylock"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

var errRosterVersionConflict = errors.New("roster version changed concurrently")

// MemberView is one roster entry as shown to clients.
type MemberView struct {
	EntryID   uuid.UUID          `json:"entry_id"`
	User      types.UserSummary  `json:"user"`
	Role      types.Role         `json:"role"`
	Status    types.MemberStatus `json:"status"`
	InvitedBy *uuid.UUID         `json:"invited_by,omitempty"`
	JoinedAt  *time.Time         `json:"joined_at,omitempty"`
}

// InvitationView is a pending invitation addressed to the caller.
type InvitationView struct {
	EntryID     uuid.UUID  `json:"entry_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	ProjectName string     `json:"project_name"`
	InvitedBy   *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MembershipResult is what a committed roster mutation returns.
type MembershipResult struct {
	Project *types.Project
	Roster  *roster.Roster
	Entry   types.ProjectMember
}

type MembershipService interface {
	// Create persists the owner-only roster of a freshly created project. It
	// runs inside the caller's transaction.
	Create(dbc dbctx.Context, projectID, ownerID uuid.UUID) (*roster.Roster, error)
	Roster(dbc dbctx.Context, projectID uuid.UUID) (*roster.Roster, error)
	// Authorize loads the project and its roster and applies the guard.
	Authorize(dbc dbctx.Context, projectID, userID uuid.UUID, action guard.Action) (*types.Project, *roster.Roster, error)
	Members(dbc dbctx.Context, projectID, requesterID uuid.UUID) ([]MemberView, error)
	PendingInvitations(dbc dbctx.Context, userID uuid.UUID) ([]InvitationView, error)

	Invite(ctx context.Context, projectID, inviterID uuid.UUID, email string) (*MembershipResult, error)
	AcceptInvite(ctx context.Context, projectID, entryID, requesterID uuid.UUID) (*MembershipResult, error)
	RejectInvite(ctx context.Context, projectID, entryID, requesterID uuid.UUID) (*MembershipResult, error)
	RemoveMember(ctx context.Context, projectID, requesterID, entryID uuid.UUID) (*MembershipResult, error)
	AddDirect(ctx context.Context, projectID, inviterID uuid.UUID, email string, role types.Role) (*MembershipResult, error)
	ChangeRole(ctx context.Context, projectID, requesterID, entryID uuid.UUID, role types.Role) (*MembershipResult, error)
}

type membershipService struct {
	db         *gorm.DB
	log        *logger.Logger
	projects   repos.ProjectRepo
	members    repos.MemberRepo
	users      repos.UserRepo
	assignees  repos.AssigneeRepo
	post       *PostCommit
	locks      *keylock.Locks[uuid.UUID]
	casRetries int
	now        func() time.Time
}

func NewMembershipService(
	db *gorm.DB,
	log *logger.Logger,
	projects repos.ProjectRepo,
	members repos.MemberRepo,
	users repos.UserRepo,
	assignees repos.AssigneeRepo,
	post *PostCommit,
	casRetries int,
) MembershipService {
	if casRetries <= 0 {
		casRetries = 5
	}
	return &membershipService{
		db:         db,
		log:        log.With("service", "MembershipService"),
		projects:   projects,
		members:    members,
		users:      users,
		assignees:  assignees,
		post:       post,
		locks:      keylock.New[uuid.UUID](),
		casRetries: casRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *membershipService) Create(dbc dbctx.Context, projectID, ownerID uuid.UUID) (*roster.Roster, error) {
	if projectID == uuid.Nil || ownerID == uuid.Nil {
		return nil, apperr.InvalidArgument("project and owner are required")
	}
	r := roster.New(projectID, ownerID, m.now())
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows := make([]*types.ProjectMember, 0, len(r.Entries))
	for i := range r.Entries {
		rows = append(rows, &r.Entries[i])
	}
	if err := m.members.Create(dbc, rows); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("project already has a roster")
		}
		return nil, fmt.Errorf("create owner entry: %w", err)
	}
	return r, nil
}

func (m *membershipService) Roster(dbc dbctx.Context, projectID uuid.UUID) (*roster.Roster, error) {
	_, r, err := m.load(dbc, projectID)
	return r, err
}

func (m *membershipService) load(dbc dbctx.Context, projectID uuid.UUID) (*types.Project, *roster.Roster, error) {
	p, err := m.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return nil, nil, apperr.NotFound("project not found")
	}
	rows, err := m.members.ListByProject(dbc, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roster: %w", err)
	}
	return p, roster.FromEntries(projectID, p.RosterVersion, rows), nil
}

func (m *membershipService) Authorize(dbc dbctx.Context, projectID, userID uuid.UUID, action guard.Action) (*types.Project, *roster.Roster, error) {
	p, r, err := m.load(dbc, projectID)
	if err != nil {
		return nil, nil, err
	}
	if err := guard.Check(r, userID, action); err != nil {
		return nil, nil, err
	}
	return p, r, nil
}

func (m *membershipService) Members(dbc dbctx.Context, projectID, requesterID uuid.UUID) ([]MemberView, error) {
	_, r, err := m.Authorize(dbc, projectID, requesterID, guard.ReadRoster)
	if err != nil {
		return nil, err
	}
	return m.views(dbc, r)
}

func (m *membershipService) views(dbc dbctx.Context, r *roster.Roster) ([]MemberView, error) {
	ids := make([]uuid.UUID, 0, len(r.Entries))
	for _, e := range r.Entries {
		ids = append(ids, e.UserID)
	}
	users, err := m.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load roster users: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]MemberView, 0, len(r.Entries))
	for _, e := range r.Entries {
		summary := types.UserSummary{ID: e.UserID}
		if u, ok := byID[e.UserID]; ok {
			summary = u.Summary()
		}
		out = append(out, MemberView{
			EntryID:   e.ID,
			User:      summary,
			Role:      e.Role,
			Status:    e.Status,
			InvitedBy: e.InvitedBy,
			JoinedAt:  e.JoinedAt,
		})
	}
	return out, nil
}

func (m *membershipService) PendingInvitations(dbc dbctx.Context, userID uuid.UUID) ([]InvitationView, error) {
	rows, err := m.members.ListPendingForUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	out := make([]InvitationView, 0, len(rows))
	for _, e := range rows {
		p, err := m.projects.GetByID(dbc, e.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("load invitation project: %w", err)
		}
		if p == nil {
			continue
		}
		out = append(out, InvitationView{
			EntryID:     e.ID,
			ProjectID:   p.ID,
			ProjectName: p.Name,
			InvitedBy:   e.InvitedBy,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out, nil
}

// rosterOp applies one state-machine step to the working copy of the
// roster. The touched entry is returned for the result and side effects.
type rosterOp func(p *types.Project, r *roster.Roster) (types.ProjectMember, error)

// mutate serializes roster writes for one project. Within the process a
// keyed mutex orders callers; across processes the roster_version CAS
// detects a lost race and the whole load-apply-persist step is retried.
func (m *membershipService) mutate(ctx context.Context, name string, projectID uuid.UUID, op rosterOp) (res *MembershipResult, err error) {
	ctx, span := startSpan(ctx, "MembershipService."+name, projectID)
	defer func() { endSpan(span, err) }()

	unlock := m.locks.Lock(projectID)
	defer unlock()

	for attempt := 1; attempt <= m.casRetries; attempt++ {
		res, err = m.mutateOnce(ctx, projectID, op)
		if !errors.Is(err, errRosterVersionConflict) {
			break
		}
		span.SetAttributes(attribute.Int("roster.cas_attempt", attempt))
		m.log.Debug("Roster version moved; retrying", "project_id", projectID, "attempt", attempt)
	}
	if errors.Is(err, errRosterVersionConflict) {
		return nil, apperr.Conflict("project roster is being modified concurrently, try again")
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("user is already a member or has a pending invitation")
		}
		return nil, err
	}
	return res, nil
}

func (m *membershipService) mutateOnce(ctx context.Context, projectID uuid.UUID, op rosterOp) (*MembershipResult, error) {
	var out *MembershipResult
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, before, err := m.load(dbc, projectID)
		if err != nil {
			return err
		}
		after := before.Clone()
		entry, err := op(p, after)
		if err != nil {
			return err
		}
		if err := after.Validate(); err != nil {
			return err
		}
		ok, err := m.projects.BumpRosterVersion(dbc, projectID, before.Version)
		if err != nil {
			return fmt.Errorf("bump roster version: %w", err)
		}
		if !ok {
			return errRosterVersionConflict
		}
		if err := m.persistDiff(dbc, before, after); err != nil {
			return err
		}
		after.Version = before.Version + 1
		p.RosterVersion = after.Version
		out = &MembershipResult{Project: p, Roster: after, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// persistDiff writes the difference between two roster snapshots.
func (m *membershipService) persistDiff(dbc dbctx.Context, before, after *roster.Roster) error {
	old := make(map[uuid.UUID]types.ProjectMember, len(before.Entries))
	for _, e := range before.Entries {
		old[e.ID] = e
	}
	var created []*types.ProjectMember
	for i := range after.Entries {
		e := after.Entries[i]
		prev, existed := old[e.ID]
		delete(old, e.ID)
		if !existed {
			created = append(created, &after.Entries[i])
			continue
		}
		if prev.Status != e.Status {
			if err := m.members.UpdateStatus(dbc, e.ID, e.Status, e.JoinedAt); err != nil {
				return fmt.Errorf("update member status: %w", err)
			}
		}
		if prev.Role != e.Role {
			if err := m.members.UpdateRole(dbc, e.ID, e.Role); err != nil {
				return fmt.Errorf("update member role: %w", err)
			}
		}
	}
	removed := make([]uuid.UUID, 0, len(old))
	for id, e := range old {
		removed = append(removed, id)
		if e.Status != types.MemberAccepted {
			continue
		}
		if _, err := m.assignees.UnassignUser(dbc, before.ProjectID, e.UserID); err != nil {
			return fmt.Errorf("unassign removed member: %w", err)
		}
	}
	if err := m.members.DeleteByIDs(dbc, removed); err != nil {
		return fmt.Errorf("delete member entries: %w", err)
	}
	if err := m.members.Create(dbc, created); err != nil {
		return fmt.Errorf("create member entries: %w", err)
	}
	return nil
}

func (m *membershipService) userByEmail(ctx context.Context, email string) (*types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.InvalidArgument("email is required")
	}
	u, err := m.users.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("no user with email %s", email)
	}
	return u, nil
}

func (m *membershipService) user(ctx context.Context, id uuid.UUID) *types.User {
	users, err := m.users.GetByIDs(dbctx.New(ctx), []uuid.UUID{id})
	if err != nil || len(users) == 0 {
		return &types.User{ID: id}
	}
	return users[0]
}

func memberLink(projectID, entryID uuid.UUID) *NotificationLink {
	return &NotificationLink{EntityType: types.EntityMember, EntityID: entryID, ProjectID: projectID}
}

func entityRef(id uuid.UUID) *uuid.UUID {
	return &id
}

func (m *membershipService) Invite(ctx context.Context, projectID, inviterID uuid.UUID, email string) (*MembershipResult, error) {
	// Outsiders must not learn which emails have accounts.
	if _, _, err := m.Authorize(dbctx.New(ctx), projectID, inviterID, guard.InviteMember); err != nil {
		return nil, err
	}
	invitee, err := m.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	res, err := m.mutate(ctx, "Invite", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		if err := guard.Check(r, inviterID, guard.InviteMember); err != nil {
			return types.ProjectMember{}, err
		}
		return r.Invite(invitee.ID, inviterID, m.now())
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("Member invited", "project_id", projectID, "actor_id", inviterID, "invitee_id", invitee.ID)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   inviterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    inviterID,
			Action:     types.ActionInvitedMember,
			Details:    invitee.Email,
			EntityType: types.EntityMember,
			EntityID:   entityRef(res.Entry.ID),
		},
		Notify: &NotifySpec{
			Recipients: []uuid.UUID{invitee.ID},
			Type:       types.NotificationInvitation,
			Message:    StaticMessage("You have been invited to join project: " + res.Project.Name),
			Link:       memberLink(projectID, res.Entry.ID),
		},
	})
	return res, nil
}

func (m *membershipService) AcceptInvite(ctx context.Context, projectID, entryID, requesterID uuid.UUID) (*MembershipResult, error) {
	res, err := m.mutate(ctx, "AcceptInvite", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		if err := guard.CheckInvitee(r, entryID, requesterID); err != nil {
			return types.ProjectMember{}, err
		}
		return r.Accept(entryID, requesterID, m.now())
	})
	if err != nil {
		return nil, err
	}
	joiner := m.user(ctx, requesterID)
	m.log.Info("Invitation accepted", "project_id", projectID, "user_id", requesterID)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   requesterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    requesterID,
			Action:     types.ActionAcceptedInvitation,
			Details:    res.Project.Name,
			EntityType: types.EntityMember,
			EntityID:   entityRef(res.Entry.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: requesterID,
			Type:          types.NotificationMember,
			Message:       StaticMessage(fmt.Sprintf("%s joined project: %s", joiner.DisplayName(), res.Project.Name)),
			Link:          memberLink(projectID, res.Entry.ID),
		},
	})
	return res, nil
}

func (m *membershipService) RejectInvite(ctx context.Context, projectID, entryID, requesterID uuid.UUID) (*MembershipResult, error) {
	res, err := m.mutate(ctx, "RejectInvite", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		if err := guard.CheckInvitee(r, entryID, requesterID); err != nil {
			return types.ProjectMember{}, err
		}
		return r.Reject(entryID, requesterID)
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("Invitation rejected", "project_id", projectID, "user_id", requesterID)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   requesterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    requesterID,
			Action:     types.ActionRejectedInvitation,
			Details:    res.Project.Name,
			EntityType: types.EntityMember,
			EntityID:   entityRef(res.Entry.ID),
		},
	})
	return res, nil
}

func (m *membershipService) RemoveMember(ctx context.Context, projectID, requesterID, entryID uuid.UUID) (*MembershipResult, error) {
	res, err := m.mutate(ctx, "RemoveMember", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		return r.Remove(requesterID, entryID)
	})
	if err != nil {
		return nil, err
	}
	removed := m.user(ctx, res.Entry.UserID)
	m.log.Info("Member removed", "project_id", projectID, "actor_id", requesterID, "user_id", res.Entry.UserID)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   requesterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    requesterID,
			Action:     types.ActionRemovedMember,
			Details:    removed.DisplayName(),
			EntityType: types.EntityMember,
			EntityID:   entityRef(res.Entry.ID),
		},
		Notify: &NotifySpec{
			Recipients: []uuid.UUID{res.Entry.UserID},
			Type:       types.NotificationMember,
			Message:    StaticMessage("You have been removed from project: " + res.Project.Name),
			Link:       &NotificationLink{EntityType: types.EntityProject, EntityID: projectID, ProjectID: projectID},
		},
		Event: realtime.MemberRemoved{ProjectID: projectID, UserID: res.Entry.UserID},
	})
	return res, nil
}

func (m *membershipService) AddDirect(ctx context.Context, projectID, inviterID uuid.UUID, email string, role types.Role) (*MembershipResult, error) {
	if _, _, err := m.Authorize(dbctx.New(ctx), projectID, inviterID, guard.AddMember); err != nil {
		return nil, err
	}
	target, err := m.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	res, err := m.mutate(ctx, "AddDirect", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		if err := guard.Check(r, inviterID, guard.AddMember); err != nil {
			return types.ProjectMember{}, err
		}
		return r.AddDirect(target.ID, inviterID, role, m.now())
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("Member added", "project_id", projectID, "actor_id", inviterID, "user_id", target.ID, "role", res.Entry.Role)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   inviterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    inviterID,
			Action:     types.ActionAddedMember,
			Details:    target.DisplayName(),
			EntityType: types.EntityMember,
			EntityID:   entityRef(target.ID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: inviterID,
			Type:          types.NotificationMember,
			Message:       StaticMessage(fmt.Sprintf("New member %s joined the project", target.DisplayName())),
			Link:          memberLink(projectID, res.Entry.ID),
		},
	})
	return res, nil
}

func (m *membershipService) ChangeRole(ctx context.Context, projectID, requesterID, entryID uuid.UUID, role types.Role) (*MembershipResult, error) {
	res, err := m.mutate(ctx, "ChangeRole", projectID, func(p *types.Project, r *roster.Roster) (types.ProjectMember, error) {
		return r.ChangeRole(requesterID, entryID, role)
	})
	if err != nil {
		return nil, err
	}
	target := m.user(ctx, res.Entry.UserID)
	m.log.Info("Member role changed", "project_id", projectID, "actor_id", requesterID, "user_id", target.ID, "role", res.Entry.Role)

	m.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   requesterID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    requesterID,
			Action:     types.ActionChangedRole,
			Details:    fmt.Sprintf("%s is now %s", target.DisplayName(), res.Entry.Role),
			EntityType: types.EntityMember,
			EntityID:   entityRef(res.Entry.ID),
		},
		Notify: &NotifySpec{
			Recipients: []uuid.UUID{res.Entry.UserID},
			Type:       types.NotificationMember,
			Message:    StaticMessage(fmt.Sprintf("Your role in project %s is now %s", res.Project.Name, res.Entry.Role)),
			Link:       memberLink(projectID, res.Entry.ID),
		},
	})
	return res, nil
}
