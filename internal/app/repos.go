package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

type Repos struct {
	User         repos.UserRepo
	Project      repos.ProjectRepo
	Member       repos.MemberRepo
	Activity     repos.ActivityRepo
	Notification repos.NotificationRepo
	Task         repos.TaskRepo
	Comment      repos.CommentRepo
	Assignee     repos.AssigneeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Project:      repos.NewProjectRepo(db, log),
		Member:       repos.NewMemberRepo(db, log),
		Activity:     repos.NewActivityRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
		Task:         repos.NewTaskRepo(db, log),
		Comment:      repos.NewCommentRepo(db, log),
		Assignee:     repos.NewAssigneeRepo(db, log),
	}
}
