package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/http/response"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type MemberHandler struct {
	log        *logger.Logger
	membership services.MembershipService
}

func NewMemberHandler(log *logger.Logger, membership services.MembershipService) *MemberHandler {
	return &MemberHandler{log: log.With("handler", "MemberHandler"), membership: membership}
}

// GET /api/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	members, err := h.membership.Members(requestDBC(c), projectID, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": members})
}

// POST /api/projects/:id/members
// body: { "email": "...", "role": "Member" | "Viewer" }
func (h *MemberHandler) AddDirect(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req struct {
		Email string     `json:"email"`
		Role  types.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.membership.AddDirect(c.Request.Context(), projectID, userID, req.Email, req.Role)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": res.Entry})
}

// POST /api/projects/:id/members/invite
// body: { "email": "..." }
func (h *MemberHandler) Invite(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.membership.Invite(c.Request.Context(), projectID, userID, req.Email)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": res.Entry})
}

// POST /api/projects/:id/members/invites/:entryId/accept
func (h *MemberHandler) Accept(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(c, "entryId", "invalid_entry_id")
	if !ok {
		return
	}
	res, err := h.membership.AcceptInvite(c.Request.Context(), projectID, entryID, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": res.Entry})
}

// POST /api/projects/:id/members/invites/:entryId/reject
func (h *MemberHandler) Reject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(c, "entryId", "invalid_entry_id")
	if !ok {
		return
	}
	if _, err := h.membership.RejectInvite(c.Request.Context(), projectID, entryID, userID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PATCH /api/projects/:id/members/:entryId
// body: { "role": "Member" | "Viewer" }
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(c, "entryId", "invalid_entry_id")
	if !ok {
		return
	}
	var req struct {
		Role types.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.membership.ChangeRole(c.Request.Context(), projectID, userID, entryID, req.Role)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": res.Entry})
}

// DELETE /api/projects/:id/members/:entryId
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(c, "entryId", "invalid_entry_id")
	if !ok {
		return
	}
	res, err := h.membership.RemoveMember(c.Request.Context(), projectID, userID, entryID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	members, err := h.membership.Members(requestDBC(c), projectID, userID)
	if err != nil {
		h.log.Warn("Roster view after removal failed", "error", err, "project_id", projectID)
		response.RespondOK(c, gin.H{"removed": res.Entry})
		return
	}
	response.RespondOK(c, gin.H{"removed": res.Entry, "members": members})
}
