package roster

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustValid(t *testing.T, r *Roster) {
	t.Helper()
	if err := r.Validate(); err != nil {
		t.Fatalf("roster invariant broken: %v", err)
	}
}

func TestNewSeedsAcceptedOwner(t *testing.T) {
	owner := uuid.New()
	r := New(uuid.New(), owner, now)
	mustValid(t, r)
	got, ok := r.Owner()
	if !ok || got.UserID != owner || got.Status != types.MemberAccepted {
		t.Fatalf("unexpected owner entry: %+v", got)
	}
	if got.JoinedAt == nil || !got.JoinedAt.Equal(now) {
		t.Fatalf("owner joinedAt not set")
	}
}

func TestInviteAcceptLifecycle(t *testing.T) {
	owner, alice := uuid.New(), uuid.New()
	r := New(uuid.New(), owner, now)

	inv, err := r.Invite(alice, owner, now)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	mustValid(t, r)
	if inv.Role != types.RoleMember || inv.Status != types.MemberPending {
		t.Fatalf("invite entry: %+v", inv)
	}
	if inv.InvitedBy == nil || *inv.InvitedBy != owner {
		t.Fatalf("invitedBy not recorded")
	}
	if inv.Position != 1 {
		t.Fatalf("position: want=1 got=%d", inv.Position)
	}

	if _, err := r.Invite(alice, owner, now); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second invite: want Conflict got %v", err)
	}

	if _, err := r.Accept(inv.ID, owner, now); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("accept by non-invitee: want Forbidden got %v", err)
	}
	if _, err := r.Accept(uuid.New(), alice, now); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("accept unknown entry: want NotFound got %v", err)
	}

	acc, err := r.Accept(inv.ID, alice, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if acc.Status != types.MemberAccepted || acc.JoinedAt == nil {
		t.Fatalf("accepted entry: %+v", acc)
	}
	mustValid(t, r)

	before := r.Clone()
	if _, err := r.Accept(inv.ID, alice, now); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("double accept: want Conflict got %v", err)
	}
	if !reflect.DeepEqual(before.Entries, r.Entries) {
		t.Fatalf("roster changed after rejected accept")
	}
}

func TestRejectRemovesPendingEntry(t *testing.T) {
	owner, bob := uuid.New(), uuid.New()
	r := New(uuid.New(), owner, now)
	inv, _ := r.Invite(bob, owner, now)

	removed, err := r.Reject(inv.ID, bob)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if removed.ID != inv.ID {
		t.Fatalf("removed wrong entry")
	}
	if _, ok := r.EntryForUser(bob); ok {
		t.Fatalf("bob still on roster")
	}
	mustValid(t, r)

	// rejecting frees the slot for a later invite
	if _, err := r.Invite(bob, owner, now); err != nil {
		t.Fatalf("re-invite after reject: %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	owner, bob, carol := uuid.New(), uuid.New(), uuid.New()
	r := New(uuid.New(), owner, now)
	bobEntry, _ := r.AddDirect(bob, owner, "", now)
	carolEntry, _ := r.AddDirect(carol, owner, types.RoleViewer, now)

	if _, err := r.Remove(bob, carolEntry.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("remove by member: want Forbidden got %v", err)
	}
	if _, err := r.Remove(owner, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("remove unknown: want NotFound got %v", err)
	}

	ownerEntry, _ := r.Owner()
	before := r.Clone()
	if _, err := r.Remove(owner, ownerEntry.ID); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("remove owner: want InvariantViolation got %v", err)
	}
	if !reflect.DeepEqual(before.Entries, r.Entries) {
		t.Fatalf("roster changed after rejected owner removal")
	}

	if _, err := r.Remove(owner, bobEntry.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(r.Entries) != 2 {
		t.Fatalf("entries: want=2 got=%d", len(r.Entries))
	}
	if r.Entries[1].UserID != carol {
		t.Fatalf("order not preserved after removal")
	}
	mustValid(t, r)
}

func TestAddDirect(t *testing.T) {
	owner, dave := uuid.New(), uuid.New()
	r := New(uuid.New(), owner, now)

	if _, err := r.AddDirect(dave, owner, types.RoleOwner, now); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("add second owner: want InvariantViolation got %v", err)
	}
	if _, err := r.AddDirect(dave, owner, "Admin", now); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("unknown role: want InvalidArgument got %v", err)
	}
	e, err := r.AddDirect(dave, owner, "", now)
	if err != nil {
		t.Fatalf("AddDirect: %v", err)
	}
	if e.Status != types.MemberAccepted || e.Role != types.RoleMember {
		t.Fatalf("direct entry: %+v", e)
	}
	if _, err := r.AddDirect(dave, owner, "", now); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate add: want Conflict got %v", err)
	}
	if _, err := r.AddDirect(owner, owner, "", now); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("add owner again: want Conflict got %v", err)
	}
	got := r.AcceptedUserIDs()
	if len(got) != 2 || got[0] != owner || got[1] != dave {
		t.Fatalf("accepted ids: %v", got)
	}
}

func TestValidateDetectsBrokenRosters(t *testing.T) {
	pid := uuid.New()
	u := uuid.New()
	cases := map[string][]types.ProjectMember{
		"no owner":      {{ID: uuid.New(), UserID: u, Role: types.RoleMember, Status: types.MemberAccepted}},
		"pending owner": {{ID: uuid.New(), UserID: u, Role: types.RoleOwner, Status: types.MemberPending}},
		"duplicate user": {
			{ID: uuid.New(), UserID: u, Role: types.RoleOwner, Status: types.MemberAccepted},
			{ID: uuid.New(), UserID: u, Role: types.RoleMember, Status: types.MemberPending},
		},
	}
	for name, entries := range cases {
		if err := FromEntries(pid, 0, entries).Validate(); !errors.Is(err, apperr.ErrInvariantViolation) {
			t.Fatalf("%s: want InvariantViolation got %v", name, err)
		}
	}
}

func TestChangeRole(t *testing.T) {
	owner, bob := uuid.New(), uuid.New()
	r := New(uuid.New(), owner, now)
	bobEntry, _ := r.AddDirect(bob, owner, "", now)
	ownerEntry, _ := r.Owner()

	if _, err := r.ChangeRole(bob, bobEntry.ID, types.RoleViewer); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("change by member: want Forbidden got %v", err)
	}
	if _, err := r.ChangeRole(owner, uuid.New(), types.RoleViewer); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown entry: want NotFound got %v", err)
	}
	if _, err := r.ChangeRole(owner, bobEntry.ID, "Admin"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("unknown role: want InvalidArgument got %v", err)
	}
	if _, err := r.ChangeRole(owner, bobEntry.ID, types.RoleOwner); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("promote to owner: want InvariantViolation got %v", err)
	}
	if _, err := r.ChangeRole(owner, ownerEntry.ID, types.RoleMember); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("demote owner: want InvariantViolation got %v", err)
	}

	e, err := r.ChangeRole(owner, bobEntry.ID, types.RoleViewer)
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if e.Role != types.RoleViewer || e.Status != types.MemberAccepted {
		t.Fatalf("changed entry: %+v", e)
	}
	got, _ := r.Entry(bobEntry.ID)
	if got.Role != types.RoleViewer {
		t.Fatalf("roster not updated: %+v", got)
	}
	mustValid(t, r)
}
