package handlers

import (
	"net/http"

	"wellness/middleware"
	"wellness/models"
	"wellness/services/booking"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.CreateBookingRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.Service.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		getLogger(c).Info("booking rejected", zap.String("providerId", req.ProviderID), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var req models.CancelBookingRequest
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.Service.Cancel(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) RescheduleBookingHandler(c *gin.Context) {
	var req models.RescheduleBookingRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.Service.Reschedule(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req, false) {
		return
	}
	b, err := h.Service.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) DeleteBookingHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	filter := models.BookingFilter{
		UserID:     c.Query("userId"),
		ProviderID: c.Query("providerId"),
	}
	for _, s := range queryList(c, "status") {
		filter.Statuses = append(filter.Statuses, models.BookingStatus(s))
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		utils.RespondError(c, err)
		return
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		utils.RespondError(c, err)
		return
	}
	if filter.Page, err = queryInt(c, "page", 1); err != nil {
		utils.RespondError(c, err)
		return
	}
	if filter.PageSize, err = queryInt(c, "pageSize", utils.DefaultPageSize); err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := h.Service.List(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
