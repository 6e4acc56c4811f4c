package timetable

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound               = core.NewNotFoundError("timetable not found")
	ErrClassTimetableNotFound = core.NewNotFoundError("class timetable not found")
	ErrDuplicatePeriod        = core.NewValidationError(
		errors.New("period numbers must be unique"),
		core.FieldError{Field: "periods", Error: "period numbers must be unique"},
	)
)

type (
	Repository interface {
		CreateTimetable(ctx context.Context, tt TimeTable) (TimeTable, error)
		GetTimetable(ctx context.Context, id string) (TimeTable, error)
		QueryTimetables(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]TimeTable, error)
		UpdateTimetable(ctx context.Context, tt TimeTable) (TimeTable, error)
		DeleteTimetable(ctx context.Context, id string) error

		// UpsertClassTimetable inserts ct, or replaces the periods of the one with the same (Class, Day).
		UpsertClassTimetable(ctx context.Context, ct ClassTimetable) (ClassTimetable, error)
		// ListClassTimetables returns the days of class, in no particular order.
		ListClassTimetables(ctx context.Context, class string) ([]ClassTimetable, error)
		DeleteClassTimetable(ctx context.Context, class, day string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nt NewTimeTable, createdBy string) (TimeTable, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return TimeTable{}, err
	}

	now := core.Now()
	tt := TimeTable{
		ID:           uuid.NewString(),
		Name:         nt.Name,
		AcademicYear: nt.AcademicYear,
		Semester:     nt.Semester,
		Department:   nt.Department,
		Slots:        nt.Slots,
		CreatedBy:    createdBy,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tt.Slots == nil {
		tt.Slots = []Slot{}
	}
	return svc.repo.CreateTimetable(ctx, tt)
}

func (svc *Service) GetByID(ctx context.Context, id string) (TimeTable, error) {
	if id == "" {
		return TimeTable{}, ErrNotFound
	}
	return svc.repo.GetTimetable(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]TimeTable, error) {
	if filter != nil {
		filter.Clean()
	}
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryTimetables(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTimeTable) (TimeTable, error) {
	if err := ut.Validate(svc.validate); err != nil {
		return TimeTable{}, err
	}

	tt, err := svc.GetByID(ctx, id)
	if err != nil {
		return TimeTable{}, err
	}
	tt = ut.Merge(tt)
	if tt.Slots == nil {
		tt.Slots = []Slot{}
	}
	tt.UpdatedAt = core.Now()
	return svc.repo.UpdateTimetable(ctx, tt)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteTimetable(ctx, id)
}

// FacultySchedule lists every slot the faculty member teaches in active timetables, by weekday and time.
func (svc *Service) FacultySchedule(ctx context.Context, facultyID string) ([]ScheduleEntry, error) {
	return svc.schedule(ctx, &QueryFilter{Faculty: facultyID}, func(s Slot) bool { return s.Faculty == facultyID })
}

// ClassSchedule lists every slot of the class in active timetables, by weekday and time.
func (svc *Service) ClassSchedule(ctx context.Context, class string) ([]ScheduleEntry, error) {
	return svc.schedule(ctx, &QueryFilter{Class: class}, func(s Slot) bool { return s.Class == class })
}

func (svc *Service) schedule(ctx context.Context, filter *QueryFilter, keep func(s Slot) bool) ([]ScheduleEntry, error) {
	active := true
	filter.IsActive = &active
	tts, err := svc.repo.QueryTimetables(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying timetables")
	}

	entries := make([]ScheduleEntry, 0)
	for _, tt := range tts {
		for _, s := range tt.Slots {
			if keep(s) {
				entries = append(entries, ScheduleEntry{Slot: s, TimetableID: tt.ID, TimetableName: tt.Name})
			}
		}
	}
	sortSchedule(entries)
	return entries, nil
}

// UpsertClassTimetable sets the periods of a class on a weekday, replacing any previous ones.
func (svc *Service) UpsertClassTimetable(ctx context.Context, cd ClassDay) (ClassTimetable, error) {
	if err := cd.Validate(svc.validate); err != nil {
		return ClassTimetable{}, err
	}

	now := core.Now()
	return svc.repo.UpsertClassTimetable(ctx, ClassTimetable{
		ID:        uuid.NewString(),
		Class:     cd.Class,
		Day:       cd.Day,
		Periods:   cd.Periods,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ListForClass returns the days of class, Monday first.
func (svc *Service) ListForClass(ctx context.Context, class string) ([]ClassTimetable, error) {
	cts, err := svc.repo.ListClassTimetables(ctx, core.CleanString(class))
	if err != nil {
		return nil, err
	}
	sortClassDays(cts)
	return cts, nil
}

func (svc *Service) DeleteClassTimetable(ctx context.Context, class, day string) error {
	return svc.repo.DeleteClassTimetable(ctx, core.CleanString(class), core.CapitalizeDay(day))
}
