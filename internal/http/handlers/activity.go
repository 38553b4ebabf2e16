package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/http/response"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type ActivityHandler struct {
	log        *logger.Logger
	membership services.MembershipService
	ledger     services.ActivityLedger
}

func NewActivityHandler(log *logger.Logger, membership services.MembershipService, ledger services.ActivityLedger) *ActivityHandler {
	return &ActivityHandler{
		log:        log.With("handler", "ActivityHandler"),
		membership: membership,
		ledger:     ledger,
	}
}

// GET /api/projects/:id/activity?limit=
func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}

	dbc := requestDBC(c)
	if _, _, err := h.membership.Authorize(dbc, projectID, userID, guard.ReadActivity); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	views, err := h.ledger.Query(dbc, projectID, limit)
	if err != nil {
		h.log.Error("Activity query failed", "error", err, "project_id", projectID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": views})
}
