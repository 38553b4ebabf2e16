package repos

import (
	"github.com/yungbote/collabhub-backend/internal/data/repos/activity"
	"github.com/yungbote/collabhub-backend/internal/data/repos/notification"
	"github.com/yungbote/collabhub-backend/internal/data/repos/project"
	"github.com/yungbote/collabhub-backend/internal/data/repos/task"
	"github.com/yungbote/collabhub-backend/internal/data/repos/user"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type ProjectRepo = project.ProjectRepo
type MemberRepo = project.MemberRepo

type ActivityRepo = activity.ActivityRepo
type NotificationRepo = notification.NotificationRepo

type TaskRepo = task.TaskRepo
type CommentRepo = task.CommentRepo
type AssigneeRepo = task.AssigneeRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewProjectRepo(db *gorm.DB, log *logger.Logger) ProjectRepo {
	return project.NewProjectRepo(db, log)
}
func NewMemberRepo(db *gorm.DB, log *logger.Logger) MemberRepo {
	return project.NewMemberRepo(db, log)
}

func NewActivityRepo(db *gorm.DB, log *logger.Logger) ActivityRepo {
	return activity.NewActivityRepo(db, log)
}
func NewNotificationRepo(db *gorm.DB, log *logger.Logger) NotificationRepo {
	return notification.NewNotificationRepo(db, log)
}

func NewTaskRepo(db *gorm.DB, log *logger.Logger) TaskRepo       { return task.NewTaskRepo(db, log) }
func NewCommentRepo(db *gorm.DB, log *logger.Logger) CommentRepo { return task.NewCommentRepo(db, log) }

func NewAssigneeRepo(db *gorm.DB, log *logger.Logger) AssigneeRepo {
	return task.NewAssigneeRepo(db, log)
}
