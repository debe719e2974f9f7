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

// ConfigService defines the application operations used by the admin
// handlers
type ConfigService interface {
	CreateOperation(ctx context.Context, cmd application.CreateOperationCommand) (*application.OperationDTO, error)
	ListOperations(ctx context.Context) ([]*application.OperationDTO, error)
	CreateWorkshop(ctx context.Context, cmd application.CreateWorkshopCommand) (*application.WorkshopDTO, error)
	ListWorkshops(ctx context.Context) ([]*application.WorkshopDTO, error)
	CreateWorkshopSchedule(ctx context.Context, cmd application.CreateWorkshopScheduleCommand) (*application.WorkshopScheduleDTO, error)
	ListWorkshopSchedules(ctx context.Context) ([]*application.WorkshopScheduleDTO, error)
}

// AdminHandlers contains handlers for administrator reference data:
// pipeline operations, workshops and capacity schedules
type AdminHandlers struct {
	service ConfigService
	logger  *logging.Logger
}

// NewAdminHandlers creates a new AdminHandlers
func NewAdminHandlers(service ConfigService, logger *logging.Logger) *AdminHandlers {
	return &AdminHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers admin routes on the router
func (h *AdminHandlers) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/operations", h.CreateOperation)
		admin.POST("/workshops", h.CreateWorkshop)
		admin.POST("/workshop-schedules", h.CreateWorkshopSchedule)
	}

	// Reference reads are open to every authenticated caller
	router.GET("/operations", h.ListOperations)
	router.GET("/workshops", h.ListWorkshops)
	router.GET("/workshop-schedules", h.ListWorkshopSchedules)
}

// CreateOperation handles adding a pipeline step
func (h *AdminHandlers) CreateOperation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Title     string `json:"title" binding:"required"`
		Value     string `json:"value" binding:"required,operation_value"`
		RoleValue string `json:"roleValue"`
		IsFirst   bool   `json:"isFirst"`
		IsLast    bool   `json:"isLast"`
		PrevValue string `json:"prevValue"`
		NextValue string `json:"nextValue"`
		CanCancel bool   `json:"canCancel"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"operation.value": req.Value,
	})

	cmd := application.CreateOperationCommand{
		Title:     req.Title,
		Value:     req.Value,
		RoleValue: req.RoleValue,
		IsFirst:   req.IsFirst,
		IsLast:    req.IsLast,
		PrevValue: req.PrevValue,
		NextValue: req.NextValue,
		CanCancel: req.CanCancel,
	}

	operation, err := h.service.CreateOperation(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, operation)
}

// ListOperations handles listing all pipeline steps
func (h *AdminHandlers) ListOperations(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	operations, err := h.service.ListOperations(c.Request.Context())
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, operations)
}

// CreateWorkshop handles registering a loading location
func (h *AdminHandlers) CreateWorkshop(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		SapID string `json:"sapId" binding:"required,sap_id"`
		Title string `json:"title" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workshop.sapId": req.SapID,
	})

	cmd := application.CreateWorkshopCommand{
		SapID: req.SapID,
		Title: req.Title,
	}

	workshop, err := h.service.CreateWorkshop(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, workshop)
}

// ListWorkshops handles listing all workshops
func (h *AdminHandlers) ListWorkshops(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workshops, err := h.service.ListWorkshops(c.Request.Context())
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, workshops)
}

// CreateWorkshopSchedule handles configuring workshop capacity over a
// validity window
func (h *AdminHandlers) CreateWorkshopSchedule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		WorkshopSapID          string `json:"workshopSapId" binding:"required,sap_id"`
		DateStart              string `json:"dateStart" binding:"required,iso_date"`
		DateEnd                string `json:"dateEnd" binding:"required,iso_date"`
		StartAt                string `json:"startAt" binding:"required"`
		EndAt                  string `json:"endAt" binding:"required"`
		CarServiceMin          int    `json:"carServiceMin" binding:"required,gt=0"`
		BreakBetweenServiceMin int    `json:"breakBetweenServiceMin" binding:"gte=0"`
		MachineAtOneTime       int    `json:"machineAtOneTime" binding:"required,gt=0"`
		CanEarlierComeMin      int    `json:"canEarlierComeMin" binding:"gte=0"`
		CanLateComeMin         int    `json:"canLateComeMin" binding:"gte=0"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	dateStart, err := time.Parse("2006-01-02", req.DateStart)
	if err != nil {
		responder.RespondBadRequest("dateStart must be in YYYY-MM-DD format")
		return
	}
	dateEnd, err := time.Parse("2006-01-02", req.DateEnd)
	if err != nil {
		responder.RespondBadRequest("dateEnd must be in YYYY-MM-DD format")
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workshop.sapId": req.WorkshopSapID,
	})

	cmd := application.CreateWorkshopScheduleCommand{
		WorkshopSapID:          req.WorkshopSapID,
		DateStart:              dateStart,
		DateEnd:                dateEnd,
		StartAt:                req.StartAt,
		EndAt:                  req.EndAt,
		CarServiceMin:          req.CarServiceMin,
		BreakBetweenServiceMin: req.BreakBetweenServiceMin,
		MachineAtOneTime:       req.MachineAtOneTime,
		CanEarlierComeMin:      req.CanEarlierComeMin,
		CanLateComeMin:         req.CanLateComeMin,
	}

	schedule, err := h.service.CreateWorkshopSchedule(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// ListWorkshopSchedules handles listing all capacity schedules
func (h *AdminHandlers) ListWorkshopSchedules(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	schedules, err := h.service.ListWorkshopSchedules(c.Request.Context())
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}
