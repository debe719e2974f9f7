package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"

	"github.com/plantgate-platform/dispatch-service/internal/application"
)

type mockCheckpointService struct {
	claimStepFn func(ctx context.Context, cmd application.ClaimStepCommand) (*application.BookingStepDTO, error)
	decideFn    func(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error)
}

func (m *mockCheckpointService) ClaimStep(ctx context.Context, cmd application.ClaimStepCommand) (*application.BookingStepDTO, error) {
	if m.claimStepFn == nil {
		panic("ClaimStep not implemented")
	}
	return m.claimStepFn(ctx, cmd)
}

func (m *mockCheckpointService) Decide(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error) {
	if m.decideFn == nil {
		panic("Decide not implemented")
	}
	return m.decideFn(ctx, cmd)
}

func TestCheckpointHandlers_ClaimStep(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockCheckpointService{
			claimStepFn: func(ctx context.Context, cmd application.ClaimStepCommand) (*application.BookingStepDTO, error) {
				if cmd.BookingID != "BK-1" || cmd.EmployeeID != "u-gate" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				return &application.BookingStepDTO{BookingID: cmd.BookingID, OperationValue: "entry_checkpoint"}, nil
			},
		}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/claim", "", employeePrincipal())

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"operationValue":"entry_checkpoint"`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("client cannot claim", func(t *testing.T) {
		service := &mockCheckpointService{}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/claim", "", clientPrincipal())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("already claimed", func(t *testing.T) {
		service := &mockCheckpointService{
			claimStepFn: func(ctx context.Context, cmd application.ClaimStepCommand) (*application.BookingStepDTO, error) {
				return nil, errors.ErrBadRequest("booking is already claimed by another employee")
			},
		}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/claim", "", employeePrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestCheckpointHandlers_Decide(t *testing.T) {
	t.Run("pass with weight", func(t *testing.T) {
		service := &mockCheckpointService{
			decideFn: func(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error) {
				if cmd.BookingID != "BK-1" || cmd.EmployeeID != "u-gate" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				if cmd.CurrentOperationValue != "initial_weighing" || !cmd.IsPassed {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				if cmd.TaraTons == nil || *cmd.TaraTons != 14.2 {
					t.Fatalf("TaraTons = %v", cmd.TaraTons)
				}
				passed := true
				return &application.BookingStepDTO{BookingID: cmd.BookingID, OperationValue: cmd.CurrentOperationValue, IsPassed: &passed}, nil
			},
		}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"currentOperation":"initial_weighing","isPassed":true,"taraTons":14.2}`
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/decision", body, employeePrincipal())

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("reject with reason", func(t *testing.T) {
		service := &mockCheckpointService{
			decideFn: func(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error) {
				if cmd.IsPassed || cmd.CancelReason != "vehicle failed inspection" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				passed := false
				return &application.BookingStepDTO{BookingID: cmd.BookingID, IsPassed: &passed}, nil
			},
		}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"currentOperation":"loading_validation","isPassed":false,"cancelReason":"vehicle failed inspection"}`
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/decision", body, employeePrincipal())
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("invalid operation value", func(t *testing.T) {
		service := &mockCheckpointService{}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"currentOperation":"Initial Weighing","isPassed":true}`
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/decision", body, employeePrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("not responsible", func(t *testing.T) {
		service := &mockCheckpointService{
			decideFn: func(ctx context.Context, cmd application.DecideCommand) (*application.BookingStepDTO, error) {
				return nil, errors.ErrForbidden("another employee is responsible for this step")
			},
		}
		router := newTestRouter(NewCheckpointHandlers(service, testHandlerLogger()).RegisterRoutes)
		body := `{"currentOperation":"loading_goods","isPassed":true}`
		rec := performRequest(router, http.MethodPost, "/api/v1/bookings/BK-1/decision", body, employeePrincipal())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
