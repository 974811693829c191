package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
)

type AdminHandler struct {
	ledger *credits.Ledger
	logger *slog.Logger
}

func NewAdminHandler(ledger *credits.Ledger, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, logger: logger}
}

type creditsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// GrantCredits handles POST /admin/users/:id/credits. Negative amounts deduct.
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	uid, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req creditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, common.NewAppError("INVALID_BODY", "invalid request body: "+err.Error(), common.ErrInvalidInput))
		return
	}
	v := common.NewValidator().
		Field("amount", req.Amount, common.NonZero).
		Field("reason", req.Reason, common.MaxLength(500))
	if err := v.Error(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	balance, err := h.ledger.Adjust(c.Request.Context(), uid, req.Amount, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "credits": balance})
}
