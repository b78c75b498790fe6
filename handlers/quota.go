package handlers

import (
	"net/http"

	"wellness/middleware"
	"wellness/models"
	"wellness/services/authz"
	"wellness/services/quota"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuotaHandler exposes balances and HR quota adjustments.
type QuotaHandler struct {
	Ledger quota.Ledger
}

func NewQuotaHandler(ledger quota.Ledger) *QuotaHandler {
	return &QuotaHandler{Ledger: ledger}
}

func (h *QuotaHandler) GetBalanceHandler(c *gin.Context) {
	userID := c.Param("userId")
	if err := authz.Authorize(middleware.ActorFrom(c), authz.ActionViewQuota, authz.Subject{UserID: userID}); err != nil {
		utils.RespondError(c, err)
		return
	}
	balance, err := h.Ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *QuotaHandler) ListAllocationsHandler(c *gin.Context) {
	userID := c.Param("userId")
	if err := authz.Authorize(middleware.ActorFrom(c), authz.ActionViewQuota, authz.Subject{UserID: userID}); err != nil {
		utils.RespondError(c, err)
		return
	}
	allocations, err := h.Ledger.ListAllocations(c.Request.Context(), userID, queryBool(c, "includeInactive"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocations": allocations})
}

func (h *QuotaHandler) AdjustQuotaHandler(c *gin.Context) {
	var req models.AdjustAllocationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	actor := middleware.ActorFrom(c)
	if err := authz.Authorize(actor, authz.ActionAdjustQuota, authz.Subject{UserID: req.UserID}); err != nil {
		utils.RespondError(c, err)
		return
	}
	alloc, balance, err := h.Ledger.AdjustAllocation(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("quota adjusted",
		zap.String("userId", req.UserID),
		zap.String("type", string(req.AllocationType)),
		zap.String("operation", string(req.Operation)),
		zap.Int("amount", req.Amount))
	c.JSON(http.StatusOK, gin.H{"allocation": alloc, "balance": balance})
}

func (h *QuotaHandler) DeactivateAllocationHandler(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if !bindJSON(c, &body, true) {
		return
	}
	if err := authz.Authorize(middleware.ActorFrom(c), authz.ActionAdjustQuota, authz.Subject{}); err != nil {
		utils.RespondError(c, err)
		return
	}
	alloc, err := h.Ledger.DeactivateAllocation(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alloc)
}
