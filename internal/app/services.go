package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Ledger     services.ActivityLedger
	Fanout     services.NotificationFanout
	PostCommit *services.PostCommit
	Membership services.MembershipService
	Project    services.ProjectService
	Task       services.TaskService
	Comment    services.CommentService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, emitter services.SSEEmitter) Services {
	log.Info("Wiring services...")

	ledger := services.NewActivityLedger(db, log, r.Activity, r.User)
	fanout := services.NewNotificationFanout(db, log, r.Member, r.Notification, cfg.FanoutConcurrency)
	post := services.NewPostCommit(log, ledger, fanout, emitter)

	membership := services.NewMembershipService(db, log, r.Project, r.Member, r.User, r.Assignee, post, cfg.RosterCASRetries)

	return Services{
		Auth:       services.NewAuthService(db, log, r.User, cfg.JWTSecretKey),
		User:       services.NewUserService(db, log, r.User, membership),
		Ledger:     ledger,
		Fanout:     fanout,
		PostCommit: post,
		Membership: membership,
		Project:    services.NewProjectService(db, log, r.Project, membership, post),
		Task:       services.NewTaskService(db, log, r.Task, r.Assignee, r.Comment, membership, post),
		Comment:    services.NewCommentService(db, log, r.Task, r.Comment, r.User, membership, post),
	}
}
