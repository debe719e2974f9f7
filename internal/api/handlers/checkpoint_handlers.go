package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/application"
)

// CheckpointService defines the application operations used by the
// checkpoint handlers
type CheckpointService interface {
	ClaimStep(ctx context.Context, cmd application.ClaimStepCommand) (*application.BookingStepDTO, error)
	Decide(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error)
}

// CheckpointHandlers contains handlers for checkpoint operations on
// bookings: claiming a step and deciding its outcome
type CheckpointHandlers struct {
	service CheckpointService
	logger  *logging.Logger
}

// NewCheckpointHandlers creates a new CheckpointHandlers
func NewCheckpointHandlers(service CheckpointService, logger *logging.Logger) *CheckpointHandlers {
	return &CheckpointHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers checkpoint routes on the router
func (h *CheckpointHandlers) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings", middleware.RequireRole(middleware.RoleEmployee))
	{
		bookings.POST("/:bookingId/claim", h.ClaimStep)
		bookings.POST("/:bookingId/decision", h.Decide)
	}
}

// ClaimStep handles an employee taking responsibility for the current
// checkpoint step of a booking
func (h *CheckpointHandlers) ClaimStep(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		responder.RespondUnauthorized("identity headers are required")
		return
	}

	bookingID := c.Param("bookingId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"booking.id":  bookingID,
		"employee.id": principal.UserID,
	})

	cmd := application.ClaimStepCommand{
		BookingID:  bookingID,
		EmployeeID: principal.UserID,
	}

	step, err := h.service.ClaimStep(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, step)
}

// Decide handles an employee decision on the current checkpoint step
func (h *CheckpointHandlers) Decide(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		responder.RespondUnauthorized("identity headers are required")
		return
	}

	bookingID := c.Param("bookingId")

	var req struct {
		CurrentOperation string   `json:"currentOperation" binding:"required,operation_value"`
		NextOperation    string   `json:"nextOperation"`
		IsPassed         bool     `json:"isPassed"`
		CancelReason     string   `json:"cancelReason"`
		TaraTons         *float64 `json:"taraTons"`
		BruttoTons       *float64 `json:"bruttoTons"`
		NettoTons        *float64 `json:"nettoTons"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"booking.id":  bookingID,
		"employee.id": principal.UserID,
		"operation":   req.CurrentOperation,
		"passed":      req.IsPassed,
	})

	cmd := application.DecideCommand{
		BookingID:             bookingID,
		EmployeeID:            principal.UserID,
		CurrentOperationValue: req.CurrentOperation,
		NextOperationValue:    req.NextOperation,
		IsPassed:              req.IsPassed,
		CancelReason:          req.CancelReason,
		TaraTons:              req.TaraTons,
		BruttoTons:            req.BruttoTons,
		NettoTons:             req.NettoTons,
	}

	step, err := h.service.Decide(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, step)
}
