package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// MessageBuilder renders the notification text for one recipient.
type MessageBuilder func(recipientID uuid.UUID) string

// StaticMessage is a MessageBuilder that ignores the recipient.
func StaticMessage(msg string) MessageBuilder {
	return func(uuid.UUID) string { return msg }
}

// NotificationLink points a notification back at the entity it is about.
type NotificationLink struct {
	EntityType types.ActivityEntityType `json:"entity_type"`
	EntityID   uuid.UUID                `json:"entity_id"`
	ProjectID  uuid.UUID                `json:"project_id,omitempty"`
}

// FanoutResult counts per-recipient outcomes. It exists for logs and tests;
// callers never branch on it.
type FanoutResult struct {
	Attempted int
	Created   int
	Failed    int
}

type NotificationFanout interface {
	// Trigger notifies every accepted member of the project except
	// excludeUserID, reading the roster as it is now.
	Trigger(ctx context.Context, projectID, excludeUserID uuid.UUID, typ types.NotificationType, build MessageBuilder, link *NotificationLink) FanoutResult
	// Notify sends to explicit recipients, e.g. an invitee who is not yet a
	// member or a user who was just removed.
	Notify(ctx context.Context, recipients []uuid.UUID, projectID uuid.UUID, typ types.NotificationType, build MessageBuilder, link *NotificationLink) FanoutResult

	List(dbc dbctx.Context, userID uuid.UUID) ([]*types.Notification, error)
	// ListForProject is List narrowed to one project. It does not check
	// membership.
	ListForProject(dbc dbctx.Context, userID, projectID uuid.UUID) ([]*types.Notification, error)
	UnreadCount(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	MarkRead(dbc dbctx.Context, notificationID, userID uuid.UUID) (*types.Notification, error)
	Delete(dbc dbctx.Context, notificationID, userID uuid.UUID) error
}

type notificationFanout struct {
	db            *gorm.DB
	log           *logger.Logger
	members       repos.MemberRepo
	notifications repos.NotificationRepo
	concurrency   int
}

func NewNotificationFanout(db *gorm.DB, log *logger.Logger, members repos.MemberRepo, notifications repos.NotificationRepo, concurrency int) NotificationFanout {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &notificationFanout{
		db:            db,
		log:           log.With("service", "NotificationFanout"),
		members:       members,
		notifications: notifications,
		concurrency:   concurrency,
	}
}

func (f *notificationFanout) Trigger(ctx context.Context, projectID, excludeUserID uuid.UUID, typ types.NotificationType, build MessageBuilder, link *NotificationLink) FanoutResult {
	ctx, span := startSpan(ctx, "NotificationFanout.Trigger", projectID, attribute.String("notification.type", string(typ)))
	defer span.End()

	rows, err := f.members.ListByProject(dbctx.New(ctx), projectID)
	if err != nil {
		f.log.Error("Fan-out roster read failed", "error", err, "project_id", projectID, "type", typ)
		return FanoutResult{}
	}
	recipients := make([]uuid.UUID, 0, len(rows))
	for _, m := range rows {
		if m.Status == types.MemberAccepted && m.UserID != excludeUserID {
			recipients = append(recipients, m.UserID)
		}
	}
	res := f.deliver(ctx, recipients, projectID, typ, build, link)
	span.SetAttributes(
		attribute.Int("fanout.attempted", res.Attempted),
		attribute.Int("fanout.failed", res.Failed),
	)
	return res
}

func (f *notificationFanout) Notify(ctx context.Context, recipients []uuid.UUID, projectID uuid.UUID, typ types.NotificationType, build MessageBuilder, link *NotificationLink) FanoutResult {
	ctx, span := startSpan(ctx, "NotificationFanout.Notify", projectID, attribute.String("notification.type", string(typ)))
	defer span.End()
	return f.deliver(ctx, recipients, projectID, typ, build, link)
}

// deliver creates one notification per recipient. A failure is logged and
// the remaining recipients are still attempted; nothing is rolled back.
func (f *notificationFanout) deliver(ctx context.Context, recipients []uuid.UUID, projectID uuid.UUID, typ types.NotificationType, build MessageBuilder, link *NotificationLink) FanoutResult {
	res := FanoutResult{Attempted: len(recipients)}
	if len(recipients) == 0 {
		return res
	}
	if !typ.Valid() || build == nil {
		f.log.Error("Fan-out skipped; bad request", "type", typ, "project_id", projectID)
		res.Failed = len(recipients)
		return res
	}
	data := encodeLink(link)

	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)

	var created, failed int64
	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for _, rid := range recipients {
		rid := rid
		g.Go(func() error {
			n := &types.Notification{
				RecipientID: rid,
				Type:        typ,
				Message:     build(rid),
				Data:        data,
			}
			if projectID != uuid.Nil {
				pid := projectID
				n.ProjectID = &pid
			}
			if err := f.notifications.Create(dbctx.New(ctx), n); err != nil {
				atomic.AddInt64(&failed, 1)
				f.log.Warn("Notification create failed", "error", err, "recipient_id", rid, "project_id", projectID, "type", typ)
				return nil
			}
			atomic.AddInt64(&created, 1)
			return nil
		})
	}
	_ = g.Wait()

	res.Created = int(created)
	res.Failed = int(failed)
	if res.Failed > 0 {
		f.log.Warn("Fan-out partially delivered", "project_id", projectID, "type", typ, "attempted", res.Attempted, "failed", res.Failed)
	}
	return res
}

func encodeLink(link *NotificationLink) datatypes.JSON {
	if link == nil {
		return nil
	}
	raw, err := json.Marshal(link)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func (f *notificationFanout) List(dbc dbctx.Context, userID uuid.UUID) ([]*types.Notification, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	out, err := f.notifications.ListByRecipient(dbc, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (f *notificationFanout) ListForProject(dbc dbctx.Context, userID, projectID uuid.UUID) ([]*types.Notification, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	out, err := f.notifications.ListByRecipientAndProject(dbc, userID, projectID, 0)
	if err != nil {
		return nil, fmt.Errorf("list project notifications: %w", err)
	}
	return out, nil
}

func (f *notificationFanout) UnreadCount(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, apperr.ErrUnauthorized
	}
	return f.notifications.CountUnread(dbc, userID)
}

func (f *notificationFanout) owned(dbc dbctx.Context, notificationID, userID uuid.UUID) (*types.Notification, error) {
	n, err := f.notifications.GetByID(dbc, notificationID)
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}
	if n == nil {
		return nil, apperr.NotFound("notification not found")
	}
	if n.RecipientID != userID {
		return nil, apperr.Forbidden("notification belongs to another user")
	}
	return n, nil
}

// MarkRead is idempotent: marking an already read notification succeeds.
func (f *notificationFanout) MarkRead(dbc dbctx.Context, notificationID, userID uuid.UUID) (*types.Notification, error) {
	n, err := f.owned(dbc, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := f.notifications.MarkRead(dbc, n.ID); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.Read = true
	return n, nil
}

func (f *notificationFanout) Delete(dbc dbctx.Context, notificationID, userID uuid.UUID) error {
	n, err := f.owned(dbc, notificationID, userID)
	if err != nil {
		return err
	}
	if err := f.notifications.Delete(dbc, n.ID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
