package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for capacity schedule configuration
var (
	ErrInvalidDayTime        = errors.New("day time must be in HH:MM format")
	ErrInvalidValidityWindow = errors.New("validity window end must not precede its start")
	ErrInvalidDayWindow      = errors.New("daily end must be after daily start")
	ErrInvalidServiceTime    = errors.New("vehicle service time must be positive")
	ErrNegativeCapacity      = errors.New("concurrent capacity must not be negative")
)

// WorkshopSchedule is the capacity configuration governing bookable
// intervals for one workshop over a validity window. Daily times are
// stored as HH:MM strings and combined with the target date when
// intervals are generated.
type WorkshopSchedule struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID               string             `bson:"tenantId" json:"tenantId"`
	FactoryID              string             `bson:"factoryId" json:"factoryId"`
	WorkshopID             string             `bson:"workshopId" json:"workshopId"`
	WorkshopSapID          string             `bson:"workshopSapId" json:"workshopSapId"`
	DateStart              time.Time          `bson:"dateStart" json:"dateStart"`
	DateEnd                time.Time          `bson:"dateEnd" json:"dateEnd"`
	StartAt                string             `bson:"startAt" json:"startAt"`
	EndAt                  string             `bson:"endAt" json:"endAt"`
	CarServiceMin          int                `bson:"carServiceMin" json:"carServiceMin"`
	BreakBetweenServiceMin int                `bson:"breakBetweenServiceMin" json:"breakBetweenServiceMin"`
	MachineAtOneTime       int                `bson:"machineAtOneTime" json:"machineAtOneTime"`
	CanEarlierComeMin      int                `bson:"canEarlierComeMin" json:"canEarlierComeMin"`
	CanLateComeMin         int                `bson:"canLateComeMin" json:"canLateComeMin"`
	IsActive               bool               `bson:"isActive" json:"isActive"`
	CreatedAt              time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Interval is one bookable time window
type Interval struct {
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// NewWorkshopSchedule creates and validates a capacity schedule
func NewWorkshopSchedule(workshopID, workshopSapID string, dateStart, dateEnd time.Time, startAt, endAt string, carServiceMin, breakMin, machineAtOneTime, earlyGraceMin, lateGraceMin int) (*WorkshopSchedule, error) {
	now := time.Now().UTC()
	ws := &WorkshopSchedule{
		ID:                     primitive.NewObjectID(),
		WorkshopID:             workshopID,
		WorkshopSapID:          workshopSapID,
		DateStart:              dateStart,
		DateEnd:                dateEnd,
		StartAt:                startAt,
		EndAt:                  endAt,
		CarServiceMin:          carServiceMin,
		BreakBetweenServiceMin: breakMin,
		MachineAtOneTime:       machineAtOneTime,
		CanEarlierComeMin:      earlyGraceMin,
		CanLateComeMin:         lateGraceMin,
		IsActive:               true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Validate checks the schedule's internal consistency
func (s *WorkshopSchedule) Validate() error {
	start, err := parseDayTime(s.StartAt)
	if err != nil {
		return err
	}
	end, err := parseDayTime(s.EndAt)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return ErrInvalidDayWindow
	}
	if s.DateEnd.Before(s.DateStart) {
		return ErrInvalidValidityWindow
	}
	if s.CarServiceMin <= 0 {
		return ErrInvalidServiceTime
	}
	if s.BreakBetweenServiceMin < 0 {
		return ErrInvalidServiceTime
	}
	if s.MachineAtOneTime < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// CoversDate reports whether the given calendar day falls inside the
// schedule's validity window
func (s *WorkshopSchedule) CoversDate(date time.Time) bool {
	day := truncateToDay(date)
	return !day.Before(truncateToDay(s.DateStart)) && !day.After(truncateToDay(s.DateEnd))
}

// OverlapsWindow reports whether another validity window overlaps this
// schedule's window. Used to keep at most one active schedule per
// workshop for any date.
func (s *WorkshopSchedule) OverlapsWindow(dateStart, dateEnd time.Time) bool {
	return !truncateToDay(dateEnd).Before(truncateToDay(s.DateStart)) &&
		!truncateToDay(dateStart).After(truncateToDay(s.DateEnd))
}

// CycleDuration is the spacing between consecutive interval starts
func (s *WorkshopSchedule) CycleDuration() time.Duration {
	return time.Duration(s.CarServiceMin+s.BreakBetweenServiceMin) * time.Minute
}

// ServiceDuration is the length of one interval
func (s *WorkshopSchedule) ServiceDuration() time.Duration {
	return time.Duration(s.CarServiceMin) * time.Minute
}

// Intervals generates the candidate intervals for one calendar day.
// For today, the first start is advanced by whole service+break cycles
// until it is not in the past; an interval that has already begun is
// never offered. Generation stops before any interval whose end would
// pass the daily closing time. Capacity is not considered here.
func (s *WorkshopSchedule) Intervals(date time.Time, now time.Time) []Interval {
	dayStart, err := combineDayTime(date, s.StartAt)
	if err != nil {
		return nil
	}
	dayEnd, err := combineDayTime(date, s.EndAt)
	if err != nil {
		return nil
	}

	current := dayStart
	if sameDay(date, now) && current.Before(now) {
		cycle := s.CycleDuration()
		elapsed := now.Sub(current)
		cycles := elapsed / cycle
		if elapsed%cycle != 0 {
			cycles++
		}
		current = current.Add(cycles * cycle)
	}

	var intervals []Interval
	service := s.ServiceDuration()
	for {
		end := current.Add(service)
		if end.After(dayEnd) {
			break
		}
		intervals = append(intervals, Interval{StartAt: current, EndAt: end})
		current = current.Add(s.CycleDuration())
	}
	return intervals
}

// ArrivalWindow returns the window in which a vehicle booked for
// [startAt, endAt] may be admitted at the entry checkpoint, widened by
// the schedule's grace minutes.
func (s *WorkshopSchedule) ArrivalWindow(startAt, endAt time.Time) (time.Time, time.Time) {
	return startAt.Add(-time.Duration(s.CanEarlierComeMin) * time.Minute),
		endAt.Add(time.Duration(s.CanLateComeMin) * time.Minute)
}

func parseDayTime(v string) (time.Time, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayTime, v)
	}
	return t, nil
}

func combineDayTime(date time.Time, v string) (time.Time, error) {
	t, err := parseDayTime(v)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
