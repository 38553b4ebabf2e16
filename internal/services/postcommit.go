package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

// FanoutSpec asks for every accepted member except ExcludeUserID to be
// notified.
type FanoutSpec struct {
	ExcludeUserID uuid.UUID
	Type          types.NotificationType
	Message       MessageBuilder
	Link          *NotificationLink
}

// NotifySpec targets explicit recipients.
type NotifySpec struct {
	Recipients []uuid.UUID
	Type       types.NotificationType
	Message    MessageBuilder
	Link       *NotificationLink
}

// Effects are the side effects of a committed mutation. Nil fields are
// skipped.
type Effects struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Activity  *types.ActivityEntry
	Fanout    *FanoutSpec
	Notify    *NotifySpec
	Event     realtime.Event
}

type PostCommitReport struct {
	LedgerErr error
	Fanout    FanoutResult
	Notify    FanoutResult
	Published bool
}

// PostCommit runs the ledger, notification and publish steps after the
// primary write has committed. No step can fail the caller.
type PostCommit struct {
	log     *logger.Logger
	ledger  ActivityLedger
	fanout  NotificationFanout
	emitter SSEEmitter
}

func NewPostCommit(log *logger.Logger, ledger ActivityLedger, fanout NotificationFanout, emitter SSEEmitter) *PostCommit {
	return &PostCommit{
		log:     log.With("service", "PostCommit"),
		ledger:  ledger,
		fanout:  fanout,
		emitter: emitter,
	}
}

func (p *PostCommit) Run(ctx context.Context, eff Effects) PostCommitReport {
	var rep PostCommitReport
	if p == nil {
		return rep
	}
	ctx = context.WithoutCancel(ctx)

	if eff.Activity != nil && p.ledger != nil {
		if err := p.ledger.Append(dbctx.New(ctx), eff.Activity); err != nil {
			rep.LedgerErr = err
			p.log.Error("Activity append failed after commit",
				"error", err,
				"project_id", eff.ProjectID,
				"action", eff.Activity.Action,
				"actor_id", eff.ActorID,
			)
		}
	}

	if eff.Fanout != nil && p.fanout != nil {
		rep.Fanout = p.fanout.Trigger(ctx, eff.ProjectID, eff.Fanout.ExcludeUserID, eff.Fanout.Type, eff.Fanout.Message, eff.Fanout.Link)
	}
	if eff.Notify != nil && p.fanout != nil {
		rep.Notify = p.fanout.Notify(ctx, eff.Notify.Recipients, eff.ProjectID, eff.Notify.Type, eff.Notify.Message, eff.Notify.Link)
	}

	if eff.Event != nil && p.emitter != nil {
		p.emitter.Emit(ctx, realtime.ProjectMessage(eff.ProjectID, eff.Event))
		rep.Published = true
	}
	return rep
}
