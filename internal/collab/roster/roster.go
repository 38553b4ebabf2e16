// Package roster holds a project's membership list as an ordered arena of
// entries and the state machine that mutates it. It performs no I/O; the
// membership service loads a Roster, applies one operation and persists the
// diff.
//
// Entry lifecycle:
//
//	invite    -> pending
//	addDirect -> accepted
//	pending   --accept(invitee)-->  accepted
//	pending   --reject(invitee)-->  removed
//	accepted  --remove(owner)-->    removed   (never for the Owner entry)
package roster

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
)

type Roster struct {
	ProjectID uuid.UUID
	Version   int64
	Entries   []types.ProjectMember
}

// New seeds a roster whose only entry is the accepted Owner.
func New(projectID, ownerID uuid.UUID, now time.Time) *Roster {
	joined := now
	return &Roster{
		ProjectID: projectID,
		Entries: []types.ProjectMember{{
			ID:        uuid.New(),
			ProjectID: projectID,
			UserID:    ownerID,
			Role:      types.RoleOwner,
			Status:    types.MemberAccepted,
			JoinedAt:  &joined,
			Position:  0,
			CreatedAt: now,
		}},
	}
}

// FromEntries builds a roster from persisted rows, which must already be in
// position order.
func FromEntries(projectID uuid.UUID, version int64, entries []types.ProjectMember) *Roster {
	out := make([]types.ProjectMember, len(entries))
	copy(out, entries)
	return &Roster{ProjectID: projectID, Version: version, Entries: out}
}

func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	return FromEntries(r.ProjectID, r.Version, r.Entries)
}

func (r *Roster) index(entryID uuid.UUID) int {
	for i := range r.Entries {
		if r.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// Entry returns a copy of the entry with the given id.
func (r *Roster) Entry(entryID uuid.UUID) (types.ProjectMember, bool) {
	if r == nil {
		return types.ProjectMember{}, false
	}
	if i := r.index(entryID); i >= 0 {
		return r.Entries[i], true
	}
	return types.ProjectMember{}, false
}

// EntryForUser returns a copy of the user's entry, whatever its status.
func (r *Roster) EntryForUser(userID uuid.UUID) (types.ProjectMember, bool) {
	if r == nil {
		return types.ProjectMember{}, false
	}
	for _, e := range r.Entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return types.ProjectMember{}, false
}

func (r *Roster) Owner() (types.ProjectMember, bool) {
	if r == nil {
		return types.ProjectMember{}, false
	}
	for _, e := range r.Entries {
		if e.Role == types.RoleOwner {
			return e, true
		}
	}
	return types.ProjectMember{}, false
}

// AcceptedUserIDs lists accepted members in roster order.
func (r *Roster) AcceptedUserIDs() []uuid.UUID {
	if r == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Status == types.MemberAccepted {
			out = append(out, e.UserID)
		}
	}
	return out
}

func (r *Roster) nextPosition() int {
	next := 0
	for _, e := range r.Entries {
		if e.Position >= next {
			next = e.Position + 1
		}
	}
	return next
}

// Invite appends a pending Member entry for userID.
func (r *Roster) Invite(userID, inviterID uuid.UUID, now time.Time) (types.ProjectMember, error) {
	if _, exists := r.EntryForUser(userID); exists {
		return types.ProjectMember{}, apperr.Conflict("user is already a member or has a pending invitation")
	}
	inviter := inviterID
	entry := types.ProjectMember{
		ID:        uuid.New(),
		ProjectID: r.ProjectID,
		UserID:    userID,
		Role:      types.RoleMember,
		Status:    types.MemberPending,
		InvitedBy: &inviter,
		Position:  r.nextPosition(),
		CreatedAt: now,
	}
	r.Entries = append(r.Entries, entry)
	return entry, nil
}

// AddDirect appends an already accepted entry. An empty role means Member.
func (r *Roster) AddDirect(userID, inviterID uuid.UUID, role types.Role, now time.Time) (types.ProjectMember, error) {
	if role == "" {
		role = types.RoleMember
	}
	if !role.Valid() {
		return types.ProjectMember{}, apperr.InvalidArgument("unknown role %q", role)
	}
	if role == types.RoleOwner {
		return types.ProjectMember{}, apperr.Invariant("a project has exactly one owner")
	}
	if _, exists := r.EntryForUser(userID); exists {
		return types.ProjectMember{}, apperr.Conflict("user is already a member or has a pending invitation")
	}
	inviter := inviterID
	joined := now
	entry := types.ProjectMember{
		ID:        uuid.New(),
		ProjectID: r.ProjectID,
		UserID:    userID,
		Role:      role,
		Status:    types.MemberAccepted,
		InvitedBy: &inviter,
		JoinedAt:  &joined,
		Position:  r.nextPosition(),
		CreatedAt: now,
	}
	r.Entries = append(r.Entries, entry)
	return entry, nil
}

func (r *Roster) pendingForInvitee(entryID, requesterID uuid.UUID) (int, error) {
	i := r.index(entryID)
	if i < 0 {
		return -1, apperr.NotFound("invitation not found")
	}
	if r.Entries[i].UserID != requesterID {
		return -1, apperr.Forbidden("only the invited user can respond to this invitation")
	}
	if r.Entries[i].Status != types.MemberPending {
		return -1, apperr.Conflict("invitation is not pending")
	}
	return i, nil
}

// Accept moves a pending entry to accepted.
func (r *Roster) Accept(entryID, requesterID uuid.UUID, now time.Time) (types.ProjectMember, error) {
	i, err := r.pendingForInvitee(entryID, requesterID)
	if err != nil {
		return types.ProjectMember{}, err
	}
	joined := now
	r.Entries[i].Status = types.MemberAccepted
	r.Entries[i].JoinedAt = &joined
	return r.Entries[i], nil
}

// Reject drops a pending entry and returns it.
func (r *Roster) Reject(entryID, requesterID uuid.UUID) (types.ProjectMember, error) {
	i, err := r.pendingForInvitee(entryID, requesterID)
	if err != nil {
		return types.ProjectMember{}, err
	}
	return r.removeAt(i), nil
}

// Remove drops any non-owner entry on behalf of the owner.
func (r *Roster) Remove(requesterID, entryID uuid.UUID) (types.ProjectMember, error) {
	requester, ok := r.EntryForUser(requesterID)
	if !ok || requester.Role != types.RoleOwner || requester.Status != types.MemberAccepted {
		return types.ProjectMember{}, apperr.Forbidden("only the project owner can remove members")
	}
	i := r.index(entryID)
	if i < 0 {
		return types.ProjectMember{}, apperr.NotFound("member not found")
	}
	if r.Entries[i].Role == types.RoleOwner {
		return types.ProjectMember{}, apperr.Invariant("the project owner cannot be removed")
	}
	return r.removeAt(i), nil
}

// ChangeRole sets a non-owner entry to Member or Viewer on behalf of the
// owner. Ownership cannot be granted or taken away this way.
func (r *Roster) ChangeRole(requesterID, entryID uuid.UUID, role types.Role) (types.ProjectMember, error) {
	requester, ok := r.EntryForUser(requesterID)
	if !ok || requester.Role != types.RoleOwner || requester.Status != types.MemberAccepted {
		return types.ProjectMember{}, apperr.Forbidden("only the project owner can change roles")
	}
	if !role.Valid() {
		return types.ProjectMember{}, apperr.InvalidArgument("unknown role %q", role)
	}
	i := r.index(entryID)
	if i < 0 {
		return types.ProjectMember{}, apperr.NotFound("member not found")
	}
	if r.Entries[i].Role == types.RoleOwner || role == types.RoleOwner {
		return types.ProjectMember{}, apperr.Invariant("a project has exactly one owner")
	}
	r.Entries[i].Role = role
	return r.Entries[i], nil
}

func (r *Roster) removeAt(i int) types.ProjectMember {
	removed := r.Entries[i]
	r.Entries = append(r.Entries[:i:i], r.Entries[i+1:]...)
	return removed
}

// Validate checks the structural invariants every committed roster holds.
func (r *Roster) Validate() error {
	owners := 0
	seen := make(map[uuid.UUID]struct{}, len(r.Entries))
	for _, e := range r.Entries {
		if e.Role == types.RoleOwner {
			owners++
			if e.Status != types.MemberAccepted {
				return apperr.Invariant("owner entry must be accepted")
			}
		}
		if _, dup := seen[e.UserID]; dup {
			return apperr.Invariant("user %s appears more than once", e.UserID)
		}
		seen[e.UserID] = struct{}{}
	}
	if owners != 1 {
		return apperr.Invariant("roster must have exactly one owner, found %d", owners)
	}
	return nil
}
