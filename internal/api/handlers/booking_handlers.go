package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/application"
)

// BookingService defines the application operations used by the
// booking handlers
type BookingService interface {
	CreateBooking(ctx context.Context, cmd application.CreateBookingCommand) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, query application.GetBookingQuery) (*application.BookingDTO, error)
	ListOrderBookings(ctx context.Context, query application.ListOrderBookingsQuery) ([]*application.BookingDTO, error)
}

// BookingHandlers contains handlers for slot booking operations
type BookingHandlers struct {
	service BookingService
	logger  *logging.Logger
}

// NewBookingHandlers creates a new BookingHandlers
func NewBookingHandlers(service BookingService, logger *logging.Logger) *BookingHandlers {
	return &BookingHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers booking routes on the router
func (h *BookingHandlers) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(middleware.RoleClient), h.CreateBooking)
		bookings.GET("/:bookingId", h.GetBooking)
	}
	router.GET("/orders/:orderId/bookings", h.ListOrderBookings)
}

// CreateBooking handles booking a loading slot against a paid order
func (h *BookingHandlers) CreateBooking(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		responder.RespondUnauthorized("identity headers are required")
		return
	}

	var req struct {
		OrderID            string  `json:"orderId" binding:"required"`
		WorkshopScheduleID string  `json:"workshopScheduleId" binding:"required"`
		Date               string  `json:"date" binding:"required,iso_date"`
		StartAt            string  `json:"startAt" binding:"required"`
		EndAt              string  `json:"endAt" binding:"required"`
		VehicleID          string  `json:"vehicleId" binding:"required"`
		TrailerID          string  `json:"trailerId"`
		BookedTons         float64 `json:"bookedTons" binding:"required,gt=0"`
		OrganizationID     string  `json:"organizationId"`
		DriverID           string  `json:"driverId" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		responder.RespondBadRequest("date must be in YYYY-MM-DD format")
		return
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		responder.RespondBadRequest("startAt must be an RFC 3339 timestamp")
		return
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		responder.RespondBadRequest("endAt must be an RFC 3339 timestamp")
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"order.id":    req.OrderID,
		"schedule.id": req.WorkshopScheduleID,
	})

	cmd := application.CreateBookingCommand{
		RequesterID:        principal.UserID,
		OrderID:            req.OrderID,
		WorkshopScheduleID: req.WorkshopScheduleID,
		Date:               date,
		StartAt:            startAt,
		EndAt:              endAt,
		VehicleID:          req.VehicleID,
		TrailerID:          req.TrailerID,
		BookedTons:         req.BookedTons,
		OrganizationID:     req.OrganizationID,
		DriverID:           req.DriverID,
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles getting a booking by ID
func (h *BookingHandlers) GetBooking(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	bookingID := c.Param("bookingId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"booking.id": bookingID,
	})

	query := application.GetBookingQuery{BookingID: bookingID}

	booking, err := h.service.GetBooking(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListOrderBookings handles listing all bookings of an order
func (h *BookingHandlers) ListOrderBookings(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	orderID := c.Param("orderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"order.id": orderID,
	})

	query := application.ListOrderBookingsQuery{OrderID: orderID}

	bookings, err := h.service.ListOrderBookings(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, bookings)
}
