package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/collabhub-backend/internal/http/handlers"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	User         *httpH.UserHandler
	Project      *httpH.ProjectHandler
	Member       *httpH.MemberHandler
	Activity     *httpH.ActivityHandler
	Task         *httpH.TaskHandler
	Comment      *httpH.CommentHandler
	Notification *httpH.NotificationHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		User:         httpH.NewUserHandler(s.User),
		Project:      httpH.NewProjectHandler(log, s.Project),
		Member:       httpH.NewMemberHandler(log, s.Membership),
		Activity:     httpH.NewActivityHandler(log, s.Membership, s.Ledger),
		Task:         httpH.NewTaskHandler(log, s.Task),
		Comment:      httpH.NewCommentHandler(log, s.Comment),
		Notification: httpH.NewNotificationHandler(log, s.Fanout, s.Membership),
		Realtime:     httpH.NewRealtimeHandler(log, hub, s.Membership),
	}
}
