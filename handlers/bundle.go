package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups every endpoint handler so routes can be registered in one place.
type HandlerBundle struct {
	// Booking endpoints
	CreateBookingHandler     gin.HandlerFunc
	GetBookingHandler        gin.HandlerFunc
	ListBookingsHandler      gin.HandlerFunc
	CancelBookingHandler     gin.HandlerFunc
	RescheduleBookingHandler gin.HandlerFunc
	UpdateStatusHandler      gin.HandlerFunc
	DeleteBookingHandler     gin.HandlerFunc

	// Quota endpoints
	GetBalanceHandler           gin.HandlerFunc
	ListAllocationsHandler      gin.HandlerFunc
	AdjustQuotaHandler          gin.HandlerFunc
	DeactivateAllocationHandler gin.HandlerFunc

	// Provider endpoints
	RegisterProviderHandler  gin.HandlerFunc
	GetProviderHandler       gin.HandlerFunc
	ListProvidersHandler     gin.HandlerFunc
	SetProviderActiveHandler gin.HandlerFunc
	UpsertSlotHandler        gin.HandlerFunc
	ListSlotsHandler         gin.HandlerFunc
	DeleteSlotHandler        gin.HandlerFunc
	CheckAvailabilityHandler gin.HandlerFunc

	// Recurring endpoints
	CreateTemplateHandler     gin.HandlerFunc
	ListTemplatesHandler      gin.HandlerFunc
	DeactivateTemplateHandler gin.HandlerFunc
	DispatchHandler           gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle.
func NewHandlerBundle(b *BookingHandler, q *QuotaHandler, p *ProviderHandler, r *RecurringHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateBookingHandler:     b.CreateBookingHandler,
		GetBookingHandler:        b.GetBookingHandler,
		ListBookingsHandler:      b.ListBookingsHandler,
		CancelBookingHandler:     b.CancelBookingHandler,
		RescheduleBookingHandler: b.RescheduleBookingHandler,
		UpdateStatusHandler:      b.UpdateStatusHandler,
		DeleteBookingHandler:     b.DeleteBookingHandler,

		GetBalanceHandler:           q.GetBalanceHandler,
		ListAllocationsHandler:      q.ListAllocationsHandler,
		AdjustQuotaHandler:          q.AdjustQuotaHandler,
		DeactivateAllocationHandler: q.DeactivateAllocationHandler,

		RegisterProviderHandler:  p.RegisterProviderHandler,
		GetProviderHandler:       p.GetProviderHandler,
		ListProvidersHandler:     p.ListProvidersHandler,
		SetProviderActiveHandler: p.SetProviderActiveHandler,
		UpsertSlotHandler:        p.UpsertSlotHandler,
		ListSlotsHandler:         p.ListSlotsHandler,
		DeleteSlotHandler:        p.DeleteSlotHandler,
		CheckAvailabilityHandler: p.CheckAvailabilityHandler,

		CreateTemplateHandler:     r.CreateTemplateHandler,
		ListTemplatesHandler:      r.ListTemplatesHandler,
		DeactivateTemplateHandler: r.DeactivateTemplateHandler,
		DispatchHandler:           r.DispatchHandler,

		HealthHandler: HealthHandler,
	}
}
