package app

import (
	httpserver "github.com/yungbote/collabhub-backend/internal/http"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSOrigins,
		Log:                 log,
		AuthMiddleware:      middleware.Auth,
		HealthHandler:       handlers.Health,
		UserHandler:         handlers.User,
		ProjectHandler:      handlers.Project,
		MemberHandler:       handlers.Member,
		ActivityHandler:     handlers.Activity,
		TaskHandler:         handlers.Task,
		CommentHandler:      handlers.Comment,
		NotificationHandler: handlers.Notification,
		RealtimeHandler:     handlers.Realtime,
	})
}
