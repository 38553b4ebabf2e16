package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/collabhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/collabhub-backend/internal/http/middleware"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Log         *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	UserHandler         *httpH.UserHandler
	ProjectHandler      *httpH.ProjectHandler
	MemberHandler       *httpH.MemberHandler
	ActivityHandler     *httpH.ActivityHandler
	TaskHandler         *httpH.TaskHandler
	CommentHandler      *httpH.CommentHandler
	NotificationHandler *httpH.NotificationHandler
	RealtimeHandler     *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			protected.GET("/projects", cfg.ProjectHandler.List)
			protected.POST("/projects", cfg.ProjectHandler.Create)
			protected.GET("/projects/:id", cfg.ProjectHandler.Get)
			protected.PUT("/projects/:id", cfg.ProjectHandler.Update)
			protected.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
		}

		// Membership
		if cfg.MemberHandler != nil {
			protected.GET("/projects/:id/members", cfg.MemberHandler.List)
			protected.POST("/projects/:id/members", cfg.MemberHandler.AddDirect)
			protected.POST("/projects/:id/members/invite", cfg.MemberHandler.Invite)
			protected.POST("/projects/:id/members/invites/:entryId/accept", cfg.MemberHandler.Accept)
			protected.POST("/projects/:id/members/invites/:entryId/reject", cfg.MemberHandler.Reject)
			protected.PATCH("/projects/:id/members/:entryId", cfg.MemberHandler.ChangeRole)
			protected.DELETE("/projects/:id/members/:entryId", cfg.MemberHandler.Remove)
		}

		// Activity
		if cfg.ActivityHandler != nil {
			protected.GET("/projects/:id/activity", cfg.ActivityHandler.List)
		}

		// Tasks
		if cfg.TaskHandler != nil {
			protected.GET("/projects/:id/tasks", cfg.TaskHandler.List)
			protected.POST("/projects/:id/tasks", cfg.TaskHandler.Create)
			protected.GET("/projects/:id/tasks/:taskId", cfg.TaskHandler.Get)
			protected.PUT("/projects/:id/tasks/:taskId", cfg.TaskHandler.Update)
			protected.DELETE("/projects/:id/tasks/:taskId", cfg.TaskHandler.Delete)
		}

		// Comments
		if cfg.CommentHandler != nil {
			protected.GET("/tasks/:taskId/comments", cfg.CommentHandler.List)
			protected.POST("/tasks/:taskId/comments", cfg.CommentHandler.Add)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.GET("/projects/:id/notifications", cfg.NotificationHandler.ListForProject)
			protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
			protected.PATCH("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
			protected.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)
			protected.POST("/realtime/join", cfg.RealtimeHandler.Join)
			protected.POST("/realtime/leave", cfg.RealtimeHandler.Leave)
		}
	}

	return r
}
