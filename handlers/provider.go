package handlers

import (
	"net/http"

	"wellness/middleware"
	"wellness/models"
	"wellness/services/availability"
	"wellness/services/provider"
	"wellness/utils"

	"github.com/gin-gonic/gin"
)

// ProviderHandler serves the provider directory and each provider's weekly slots.
type ProviderHandler struct {
	Directory    provider.ProviderService
	Availability availability.Checker
}

func NewProviderHandler(directory provider.ProviderService, checker availability.Checker) *ProviderHandler {
	return &ProviderHandler{Directory: directory, Availability: checker}
}

func (h *ProviderHandler) RegisterProviderHandler(c *gin.Context) {
	var req models.RegisterProviderRequest
	if !bindJSON(c, &req, false) {
		return
	}
	p, err := h.Directory.RegisterProvider(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProviderHandler) GetProviderHandler(c *gin.Context) {
	p, err := h.Directory.GetProvider(c.Request.Context(), c.Param("providerId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) ListProvidersHandler(c *gin.Context) {
	providers, err := h.Directory.ListProviders(c.Request.Context(), models.ProviderCategory(c.Query("category")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *ProviderHandler) SetProviderActiveHandler(c *gin.Context) {
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if !bindJSON(c, &body, false) {
		return
	}
	p, err := h.Directory.SetProviderActive(c.Request.Context(), middleware.ActorFrom(c), c.Param("providerId"), *body.Active)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) UpsertSlotHandler(c *gin.Context) {
	var in models.SlotInput
	if !bindJSON(c, &in, false) {
		return
	}
	slot, err := h.Availability.UpsertSlot(c.Request.Context(), middleware.ActorFrom(c), c.Param("providerId"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *ProviderHandler) ListSlotsHandler(c *gin.Context) {
	slots, err := h.Availability.ListSlots(c.Request.Context(), c.Param("providerId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (h *ProviderHandler) DeleteSlotHandler(c *gin.Context) {
	err := h.Availability.DeleteSlot(c.Request.Context(), middleware.ActorFrom(c), c.Param("providerId"), c.Param("slotId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailabilityHandler answers whether ?start=<RFC3339>&duration=<minutes> is bookable.
func (h *ProviderHandler) CheckAvailabilityHandler(c *gin.Context) {
	start, err := queryTime(c, "start")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if start == nil {
		utils.RespondError(c, utils.Validationf("start is required"))
		return
	}
	duration, err := queryInt(c, "duration", 0)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if duration <= 0 {
		utils.RespondError(c, utils.Validationf("duration must be a positive number of minutes"))
		return
	}

	providerID := c.Param("providerId")
	ok, err := h.Availability.IsAvailable(c.Request.Context(), providerID, *start, duration, "")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AvailabilityResponse{
		ProviderID:      providerID,
		Start:           *start,
		DurationMinutes: duration,
		Available:       ok,
	})
}
