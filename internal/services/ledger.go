package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

const MaxActivityLimit = 50

// ActivityView is a ledger entry with the actor resolved for display.
type ActivityView struct {
	Seq        int64                    `json:"seq"`
	Actor      types.UserSummary        `json:"actor"`
	Action     types.ActivityAction     `json:"action"`
	Details    string                   `json:"details"`
	EntityType types.ActivityEntityType `json:"entity_type"`
	EntityID   *uuid.UUID               `json:"entity_id,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

type ActivityLedger interface {
	Append(dbc dbctx.Context, entry *types.ActivityEntry) error
	// Query returns at most limit entries, newest first. A limit outside
	// 1..50 is clamped.
	Query(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]ActivityView, error)
}

type activityLedger struct {
	db       *gorm.DB
	log      *logger.Logger
	activity repos.ActivityRepo
	users    repos.UserRepo
}

func NewActivityLedger(db *gorm.DB, log *logger.Logger, activity repos.ActivityRepo, users repos.UserRepo) ActivityLedger {
	return &activityLedger{
		db:       db,
		log:      log.With("service", "ActivityLedger"),
		activity: activity,
		users:    users,
	}
}

func (l *activityLedger) Append(dbc dbctx.Context, entry *types.ActivityEntry) (err error) {
	if entry == nil || entry.ProjectID == uuid.Nil || entry.ActorID == uuid.Nil {
		return apperr.InvalidArgument("activity entry needs a project and an actor")
	}
	ctx, span := startSpan(dbc.Ctx, "ActivityLedger.Append", entry.ProjectID)
	defer func() { endSpan(span, err) }()

	if !entry.Action.Valid() {
		return apperr.InvalidArgument("unknown activity action %q", entry.Action)
	}
	if !entry.EntityType.Valid() {
		return apperr.InvalidArgument("unknown activity entity type %q", entry.EntityType)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := l.activity.Append(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, []*types.ActivityEntry{entry}); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (l *activityLedger) Query(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]ActivityView, error) {
	if limit <= 0 || limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	entries, err := l.activity.ListByProject(dbc, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	actorIDs := make([]uuid.UUID, 0, len(entries))
	seen := map[uuid.UUID]bool{}
	for _, e := range entries {
		if !seen[e.ActorID] {
			seen[e.ActorID] = true
			actorIDs = append(actorIDs, e.ActorID)
		}
	}
	actors, err := l.users.GetByIDs(dbc, actorIDs)
	if err != nil {
		return nil, fmt.Errorf("load activity actors: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(actors))
	for _, u := range actors {
		byID[u.ID] = u
	}

	out := make([]ActivityView, 0, len(entries))
	for _, e := range entries {
		actor := types.UserSummary{ID: e.ActorID}
		if u, ok := byID[e.ActorID]; ok {
			actor = u.Summary()
		}
		out = append(out, ActivityView{
			Seq:        e.Seq,
			Actor:      actor,
			Action:     e.Action,
			Details:    e.Details,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}
