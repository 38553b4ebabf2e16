package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collabhub-backend/internal/http/response"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type CommentHandler struct {
	log      *logger.Logger
	comments services.CommentService
}

func NewCommentHandler(log *logger.Logger, comments services.CommentService) *CommentHandler {
	return &CommentHandler{log: log.With("handler", "CommentHandler"), comments: comments}
}

// GET /api/tasks/:taskId/comments
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId", "invalid_task_id")
	if !ok {
		return
	}
	out, err := h.comments.List(requestDBC(c), taskID, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": out})
}

// POST /api/tasks/:taskId/comments
// body: { "content": "..." }
func (h *CommentHandler) Add(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId", "invalid_task_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.comments.Add(c.Request.Context(), taskID, userID, req.Content)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": view})
}
