package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/http/response"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type NotificationHandler struct {
	log        *logger.Logger
	fanout     services.NotificationFanout
	membership services.MembershipService
}

func NewNotificationHandler(log *logger.Logger, fanout services.NotificationFanout, membership services.MembershipService) *NotificationHandler {
	return &NotificationHandler{
		log:        log.With("handler", "NotificationHandler"),
		fanout:     fanout,
		membership: membership,
	}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.fanout.List(requestDBC(c), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": out})
}

// GET /api/projects/:id/notifications
func (h *NotificationHandler) ListForProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	dbc := requestDBC(c)
	if _, _, err := h.membership.Authorize(dbc, projectID, userID, guard.ReadProject); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out, err := h.fanout.ListForProject(dbc, userID, projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": out})
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	n, err := h.fanout.UnreadCount(requestDBC(c), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unread": n})
}

// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_notification_id")
	if !ok {
		return
	}
	n, err := h.fanout.MarkRead(requestDBC(c), id, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notification": n})
}

// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_notification_id")
	if !ok {
		return
	}
	if err := h.fanout.Delete(requestDBC(c), id, userID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
