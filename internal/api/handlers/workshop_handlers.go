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

// AvailabilityService defines the application operations used by the
// workshop handlers
type AvailabilityService interface {
	GetFreeIntervals(ctx context.Context, query application.GetFreeIntervalsQuery) ([]*application.FreeIntervalDTO, error)
}

// WorkshopHandlers contains handlers for workshop availability lookups
type WorkshopHandlers struct {
	service AvailabilityService
	logger  *logging.Logger
}

// NewWorkshopHandlers creates a new WorkshopHandlers
func NewWorkshopHandlers(service AvailabilityService, logger *logging.Logger) *WorkshopHandlers {
	return &WorkshopHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers workshop routes on the router
func (h *WorkshopHandlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/workshops/:sapId/free-intervals", h.GetFreeIntervals)
}

// GetFreeIntervals handles listing the bookable time-slots of a
// workshop on a given date
func (h *WorkshopHandlers) GetFreeIntervals(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	sapID := c.Param("sapId")
	rawDate := c.Query("date")
	if rawDate == "" {
		responder.RespondBadRequest("date query parameter is required")
		return
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		responder.RespondBadRequest("date must be in YYYY-MM-DD format")
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workshop.sapId": sapID,
		"date":           rawDate,
	})

	query := application.GetFreeIntervalsQuery{
		WorkshopSapID: sapID,
		Date:          date,
	}

	intervals, err := h.service.GetFreeIntervals(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, intervals)
}
