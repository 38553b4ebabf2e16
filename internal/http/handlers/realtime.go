package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/http/response"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type RealtimeHandler struct {
	log        *logger.Logger
	hub        *realtime.SSEHub
	membership services.MembershipService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, membership services.MembershipService) *RealtimeHandler {
	return &RealtimeHandler{
		log:        log.With("handler", "RealtimeHandler"),
		hub:        hub,
		membership: membership,
	}
}

type roomRequest struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	ProjectID    uuid.UUID `json:"project_id"`
}

// GET /api/realtime/stream
// The first frame is Connected{connection_id}; rooms are joined afterwards
// through /api/realtime/join.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	client := h.hub.NewSSEClient(userID)
	h.log.Info("SSE stream open", "user_id", userID, "connection_id", client.ID)
	defer h.hub.CloseClient(client)

	h.hub.Send(client, realtime.SSEMessage{
		Event: realtime.SSEEventConnected,
		Data:  gin.H{"connection_id": client.ID},
	})
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Debug("SSE stream closed", "user_id", userID, "connection_id", client.ID)
}

// connection resolves the caller's own open stream.
func (h *RealtimeHandler) connection(c *gin.Context, userID uuid.UUID) (*realtime.SSEClient, roomRequest, bool) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConnectionID == uuid.Nil || req.ProjectID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, req, false
	}
	client, exists := h.hub.Client(req.ConnectionID)
	if !exists || client.UserID != userID {
		response.RespondError(c, http.StatusNotFound, "connection_not_found", nil)
		return nil, req, false
	}
	return client, req, true
}

// POST /api/realtime/join
// body: { "connection_id": "...", "project_id": "..." }
func (h *RealtimeHandler) Join(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	client, req, ok := h.connection(c, userID)
	if !ok {
		return
	}
	if _, _, err := h.membership.Authorize(requestDBC(c), req.ProjectID, userID, guard.JoinRoom); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	channel := realtime.ProjectChannel(req.ProjectID)
	h.hub.AddChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "joined", "channel": channel})
}

// POST /api/realtime/leave
func (h *RealtimeHandler) Leave(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	client, req, ok := h.connection(c, userID)
	if !ok {
		return
	}
	channel := realtime.ProjectChannel(req.ProjectID)
	h.hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "left", "channel": channel})
}
