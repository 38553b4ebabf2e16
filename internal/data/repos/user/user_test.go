package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	gdb := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewUserRepo(gdb, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.User{{ID: uuid.New(), Email: " Alice@Example.com ", Name: "Alice"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", created[0].Email)
	}

	got, err := repo.GetByEmail(dbc, "ALICE@example.com")
	if err != nil || got == nil || got.ID != created[0].ID {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	missing, err := repo.GetByEmail(dbc, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("GetByEmail(missing): got=%+v err=%v", missing, err)
	}

	byIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(byIDs) != 1 {
		t.Fatalf("GetByIDs: n=%d err=%v", len(byIDs), err)
	}
}

func TestUserRepoUpsertKeepsBlankFields(t *testing.T) {
	gdb := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewUserRepo(gdb, testutil.Logger(t))

	id := uuid.New()
	first, err := repo.Upsert(dbc, &types.User{ID: id, Email: "bob@example.com", Name: "Bob"})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if first.Name != "Bob" {
		t.Fatalf("name: %q", first.Name)
	}
	second, err := repo.Upsert(dbc, &types.User{ID: id, Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if second.Name != "Bob" {
		t.Fatalf("blank name must not overwrite: %q", second.Name)
	}
	third, err := repo.Upsert(dbc, &types.User{ID: id, Email: "bob@example.com", Name: "Robert"})
	if err != nil || third.Name != "Robert" {
		t.Fatalf("rename: got=%+v err=%v", third, err)
	}
}
