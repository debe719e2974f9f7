package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"

	"github.com/plantgate-platform/dispatch-service/internal/application"
)

type mockConfigService struct {
	createOperationFn func(ctx context.Context, cmd application.CreateOperationCommand) (*application.OperationDTO, error)
	listOperationsFn  func(ctx context.Context) ([]*application.OperationDTO, error)
	createWorkshopFn  func(ctx context.Context, cmd application.CreateWorkshopCommand) (*application.WorkshopDTO, error)
	listWorkshopsFn   func(ctx context.Context) ([]*application.WorkshopDTO, error)
	createScheduleFn  func(ctx context.Context, cmd application.CreateWorkshopScheduleCommand) (*application.WorkshopScheduleDTO, error)
	listSchedulesFn   func(ctx context.Context) ([]*application.WorkshopScheduleDTO, error)
}

func (m *mockConfigService) CreateOperation(ctx context.Context, cmd application.CreateOperationCommand) (*application.OperationDTO, error) {
	if m.createOperationFn == nil {
		panic("CreateOperation not implemented")
	}
	return m.createOperationFn(ctx, cmd)
}

func (m *mockConfigService) ListOperations(ctx context.Context) ([]*application.OperationDTO, error) {
	if m.listOperationsFn == nil {
		panic("ListOperations not implemented")
	}
	return m.listOperationsFn(ctx)
}

func (m *mockConfigService) CreateWorkshop(ctx context.Context, cmd application.CreateWorkshopCommand) (*application.WorkshopDTO, error) {
	if m.createWorkshopFn == nil {
		panic("CreateWorkshop not implemented")
	}
	return m.createWorkshopFn(ctx, cmd)
}

func (m *mockConfigService) ListWorkshops(ctx context.Context) ([]*application.WorkshopDTO, error) {
	if m.listWorkshopsFn == nil {
		panic("ListWorkshops not implemented")
	}
	return m.listWorkshopsFn(ctx)
}

func (m *mockConfigService) CreateWorkshopSchedule(ctx context.Context, cmd application.CreateWorkshopScheduleCommand) (*application.WorkshopScheduleDTO, error) {
	if m.createScheduleFn == nil {
		panic("CreateWorkshopSchedule not implemented")
	}
	return m.createScheduleFn(ctx, cmd)
}

func (m *mockConfigService) ListWorkshopSchedules(ctx context.Context) ([]*application.WorkshopScheduleDTO, error) {
	if m.listSchedulesFn == nil {
		panic("ListWorkshopSchedules not implemented")
	}
	return m.listSchedulesFn(ctx)
}

func TestAdminHandlers_CreateOperation(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockConfigService{
			createOperationFn: func(ctx context.Context, cmd application.CreateOperationCommand) (*application.OperationDTO, error) {
				if cmd.Value != "loading_goods" || cmd.RoleValue != "loader" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				return &application.OperationDTO{Value: cmd.Value, Title: cmd.Title}, nil
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"title":"Loading","value":"loading_goods","roleValue":"loader","prevValue":"loading_validation","nextValue":"completed"}`
		rec := performRequest(router, http.MethodPost, "/api/v1/operations", body, adminPrincipal())

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("employee cannot configure", func(t *testing.T) {
		service := &mockConfigService{}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"title":"Loading","value":"loading_goods"}`
		rec := performRequest(router, http.MethodPost, "/api/v1/operations", body, employeePrincipal())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		service := &mockConfigService{}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"title":"Loading","value":"Loading Goods"}`
		rec := performRequest(router, http.MethodPost, "/api/v1/operations", body, adminPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("broken chain", func(t *testing.T) {
		service := &mockConfigService{
			createOperationFn: func(ctx context.Context, cmd application.CreateOperationCommand) (*application.OperationDTO, error) {
				return nil, errors.ErrValidation("pipeline is broken")
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"title":"Orphan","value":"orphan_step"}`
		rec := performRequest(router, http.MethodPost, "/api/v1/operations", body, adminPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAdminHandlers_CreateWorkshop(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockConfigService{
			createWorkshopFn: func(ctx context.Context, cmd application.CreateWorkshopCommand) (*application.WorkshopDTO, error) {
				if cmd.SapID != "WS-200" {
					t.Fatalf("SapID = %s", cmd.SapID)
				}
				return &application.WorkshopDTO{SapID: cmd.SapID, Title: cmd.Title}, nil
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/workshops", `{"sapId":"WS-200","title":"South gate"}`, adminPrincipal())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		service := &mockConfigService{
			createWorkshopFn: func(ctx context.Context, cmd application.CreateWorkshopCommand) (*application.WorkshopDTO, error) {
				return nil, errors.ErrConflict("workshop already exists")
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/workshops", `{"sapId":"WS-200","title":"South gate"}`, adminPrincipal())
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

const createScheduleBody = `{
	"workshopSapId": "WS-200",
	"dateStart": "2026-09-01",
	"dateEnd": "2026-09-30",
	"startAt": "09:00",
	"endAt": "18:00",
	"carServiceMin": 20,
	"breakBetweenServiceMin": 5,
	"machineAtOneTime": 4,
	"canEarlierComeMin": 15,
	"canLateComeMin": 15
}`

func TestAdminHandlers_CreateWorkshopSchedule(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockConfigService{
			createScheduleFn: func(ctx context.Context, cmd application.CreateWorkshopScheduleCommand) (*application.WorkshopScheduleDTO, error) {
				if cmd.WorkshopSapID != "WS-200" || cmd.MachineAtOneTime != 4 {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				if cmd.DateStart.Format("2006-01-02") != "2026-09-01" {
					t.Fatalf("DateStart = %s", cmd.DateStart)
				}
				return &application.WorkshopScheduleDTO{WorkshopSapID: cmd.WorkshopSapID}, nil
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/workshop-schedules", createScheduleBody, adminPrincipal())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bad date format", func(t *testing.T) {
		service := &mockConfigService{}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := strings.Replace(createScheduleBody, "2026-09-01", "01.09.2026", 1)
		rec := performRequest(router, http.MethodPost, "/api/v1/workshop-schedules", body, adminPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("overlap conflict", func(t *testing.T) {
		service := &mockConfigService{
			createScheduleFn: func(ctx context.Context, cmd application.CreateWorkshopScheduleCommand) (*application.WorkshopScheduleDTO, error) {
				return nil, errors.ErrConflict("an active schedule already covers part of this validity window")
			},
		}
		router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/workshop-schedules", createScheduleBody, adminPrincipal())
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAdminHandlers_Lists(t *testing.T) {
	service := &mockConfigService{
		listOperationsFn: func(ctx context.Context) ([]*application.OperationDTO, error) {
			return []*application.OperationDTO{{Value: "entry_checkpoint"}}, nil
		},
		listWorkshopsFn: func(ctx context.Context) ([]*application.WorkshopDTO, error) {
			return []*application.WorkshopDTO{{SapID: "WS-100"}}, nil
		},
		listSchedulesFn: func(ctx context.Context) ([]*application.WorkshopScheduleDTO, error) {
			return []*application.WorkshopScheduleDTO{}, nil
		},
	}
	router := newTestRouter(NewAdminHandlers(service, testHandlerLogger()).RegisterRoutes)

	// Reads are not admin-gated
	rec := performRequest(router, http.MethodGet, "/api/v1/operations", "", clientPrincipal())
	if rec.Code != http.StatusOK {
		t.Fatalf("operations status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "entry_checkpoint") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = performRequest(router, http.MethodGet, "/api/v1/workshops", "", clientPrincipal())
	if rec.Code != http.StatusOK {
		t.Fatalf("workshops status = %d", rec.Code)
	}

	rec = performRequest(router, http.MethodGet, "/api/v1/workshop-schedules", "", clientPrincipal())
	if rec.Code != http.StatusOK {
		t.Fatalf("schedules status = %d", rec.Code)
	}
}
