package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"

	"github.com/plantgate-platform/dispatch-service/internal/application"
)

type mockAvailabilityService struct {
	getFreeIntervalsFn func(ctx context.Context, query application.GetFreeIntervalsQuery) ([]*application.FreeIntervalDTO, error)
}

func (m *mockAvailabilityService) GetFreeIntervals(ctx context.Context, query application.GetFreeIntervalsQuery) ([]*application.FreeIntervalDTO, error) {
	if m.getFreeIntervalsFn == nil {
		panic("GetFreeIntervals not implemented")
	}
	return m.getFreeIntervalsFn(ctx, query)
}

func TestWorkshopHandlers_GetFreeIntervals(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockAvailabilityService{
			getFreeIntervalsFn: func(ctx context.Context, query application.GetFreeIntervalsQuery) ([]*application.FreeIntervalDTO, error) {
				if query.WorkshopSapID != "WS-100" {
					t.Fatalf("WorkshopSapID = %s", query.WorkshopSapID)
				}
				if query.Date.Format("2006-01-02") != "2026-09-10" {
					t.Fatalf("Date = %s", query.Date)
				}
				return []*application.FreeIntervalDTO{{
					StartAt:   time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
					EndAt:     time.Date(2026, 9, 10, 9, 20, 0, 0, time.UTC),
					FreeSpace: 4,
				}}, nil
			},
		}
		router := newTestRouter(NewWorkshopHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodGet, "/api/v1/workshops/WS-100/free-intervals?date=2026-09-10", "", clientPrincipal())

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"freeSpace":4`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("missing date", func(t *testing.T) {
		service := &mockAvailabilityService{}
		router := newTestRouter(NewWorkshopHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodGet, "/api/v1/workshops/WS-100/free-intervals", "", clientPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		service := &mockAvailabilityService{}
		router := newTestRouter(NewWorkshopHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodGet, "/api/v1/workshops/WS-100/free-intervals?date=10.09.2026", "", clientPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("unknown workshop", func(t *testing.T) {
		service := &mockAvailabilityService{
			getFreeIntervalsFn: func(ctx context.Context, query application.GetFreeIntervalsQuery) ([]*application.FreeIntervalDTO, error) {
				return nil, errors.ErrBadRequest("unknown workshop")
			},
		}
		router := newTestRouter(NewWorkshopHandlers(service, testHandlerLogger()).RegisterRoutes)
		rec := performRequest(router, http.MethodGet, "/api/v1/workshops/nope/free-intervals?date=2026-09-10", "", clientPrincipal())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
