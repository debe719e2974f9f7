package application

import (
	"context"
	"fmt"
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// AvailabilityService derives bookable intervals and their remaining
// capacity. It is the single source of truth for slot validity: the
// booking flow re-invokes it at creation time instead of keeping a
// separate reservation table.
type AvailabilityService struct {
	workshopRepo    domain.WorkshopRepository
	scheduleRepo    domain.WorkshopScheduleRepository
	bookingRepo     domain.BookingRepository
	logger          *logging.Logger
	businessMetrics *middleware.BusinessMetrics

	// now is swappable for deterministic tests
	now func() time.Time
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(
	workshopRepo domain.WorkshopRepository,
	scheduleRepo domain.WorkshopScheduleRepository,
	bookingRepo domain.BookingRepository,
	logger *logging.Logger,
	businessMetrics *middleware.BusinessMetrics,
) *AvailabilityService {
	return &AvailabilityService{
		workshopRepo:    workshopRepo,
		scheduleRepo:    scheduleRepo,
		bookingRepo:     bookingRepo,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// GetFreeIntervals returns the ordered bookable intervals for one
// workshop and calendar day. An unknown workshop or a past date is a
// bad request; an inactive workshop or a day without a covering
// capacity schedule yields an empty list.
func (s *AvailabilityService) GetFreeIntervals(ctx context.Context, query GetFreeIntervalsQuery) ([]*FreeIntervalDTO, error) {
	workshop, err := s.workshopRepo.FindBySapID(ctx, query.WorkshopSapID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workshop: %w", err)
	}
	if workshop == nil {
		return nil, errors.ErrBadRequest("unknown workshop").WithDetail("workshopSapId", query.WorkshopSapID)
	}

	now := s.now()
	if startOfDay(query.Date).Before(startOfDay(now)) {
		return nil, errors.ErrBadRequest("cannot fetch schedule for past dates")
	}

	s.businessMetrics.RecordIntervalQuery(query.WorkshopSapID)

	if !workshop.IsActive {
		return []*FreeIntervalDTO{}, nil
	}

	schedule, err := s.scheduleRepo.FindActiveForDate(ctx, query.WorkshopSapID, query.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load capacity schedule: %w", err)
	}
	if schedule == nil {
		return []*FreeIntervalDTO{}, nil
	}

	return s.FreeIntervalsForSchedule(ctx, schedule, query.Date)
}

// FreeIntervalsForSchedule computes free intervals against a resolved
// capacity schedule. The booking flow calls this directly with the
// schedule it validated, so both paths share one capacity count.
func (s *AvailabilityService) FreeIntervalsForSchedule(ctx context.Context, schedule *domain.WorkshopSchedule, date time.Time) ([]*FreeIntervalDTO, error) {
	intervals := schedule.Intervals(date, s.now())

	free := make([]*FreeIntervalDTO, 0, len(intervals))
	for _, iv := range intervals {
		count, err := s.bookingRepo.CountActiveAtStart(ctx, schedule.ID.Hex(), iv.StartAt)
		if err != nil {
			return nil, fmt.Errorf("failed to count bookings at %s: %w", iv.StartAt.Format(time.RFC3339), err)
		}

		space := schedule.MachineAtOneTime - int(count)
		if space <= 0 {
			continue
		}
		free = append(free, &FreeIntervalDTO{StartAt: iv.StartAt, EndAt: iv.EndAt, FreeSpace: space})
	}
	return free, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
