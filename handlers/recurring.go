package handlers

import (
	"net/http"

	"wellness/middleware"
	"wellness/models"
	"wellness/services/recurring"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecurringHandler manages recurring templates and lets an admin trigger a dispatch run.
type RecurringHandler struct {
	Dispatcher *recurring.Dispatcher
}

func NewRecurringHandler(dispatcher *recurring.Dispatcher) *RecurringHandler {
	return &RecurringHandler{Dispatcher: dispatcher}
}

func (h *RecurringHandler) CreateTemplateHandler(c *gin.Context) {
	var req models.CreateTemplateRequest
	if !bindJSON(c, &req, false) {
		return
	}
	tmpl, err := h.Dispatcher.CreateTemplate(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *RecurringHandler) ListTemplatesHandler(c *gin.Context) {
	templates, err := h.Dispatcher.ListTemplates(c.Request.Context(), middleware.ActorFrom(c), c.Query("userId"), queryBool(c, "includeInactive"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *RecurringHandler) DeactivateTemplateHandler(c *gin.Context) {
	tmpl, err := h.Dispatcher.DeactivateTemplate(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// DispatchHandler runs one dispatch pass synchronously. Per-template failures are reported in the
// body, not as an error status.
func (h *RecurringHandler) DispatchHandler(c *gin.Context) {
	report, err := h.Dispatcher.DispatchAs(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("manual recurring dispatch",
		zap.Int("dispatched", report.DispatchedCount),
		zap.Int("errors", len(report.Errors)))
	c.JSON(http.StatusOK, report)
}
