package timetable

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Slot is one weekly teaching session of a TimeTable.
type Slot struct {
	Day       string `json:"day" bson:"day" validate:"required,weekday"`
	StartTime string `json:"startTime" bson:"start_time" validate:"required,clock"`
	EndTime   string `json:"endTime" bson:"end_time" validate:"required,clock"`
	Subject   string `json:"subject" bson:"subject" validate:"required,notblank"`
	Faculty   string `json:"faculty,omitempty" bson:"faculty,omitempty"`
	Location  string `json:"location,omitempty" bson:"location,omitempty"`
	Class     string `json:"class,omitempty" bson:"class,omitempty"`
	Batch     string `json:"batch,omitempty" bson:"batch,omitempty"`
	Section   string `json:"section,omitempty" bson:"section,omitempty"`
}

func (s *Slot) clean() {
	s.Day = core.CapitalizeDay(s.Day)
	s.StartTime = core.CleanString(s.StartTime)
	s.EndTime = core.CleanString(s.EndTime)
	s.Subject = core.CleanString(s.Subject)
	s.Faculty = core.CleanString(s.Faculty)
	s.Location = core.CleanString(s.Location)
	s.Class = core.CleanString(s.Class)
	s.Batch = core.CleanString(s.Batch)
	s.Section = core.CleanString(s.Section)
}

// TimeTable is a department's weekly schedule for a semester.
type TimeTable struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	AcademicYear string    `json:"academicYear" bson:"academic_year"`
	Semester     string    `json:"semester,omitempty" bson:"semester,omitempty"`
	Department   string    `json:"department,omitempty" bson:"department,omitempty"`
	Slots        []Slot    `json:"slots" bson:"slots"`
	CreatedBy    string    `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	IsActive     bool      `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Clone returns a copy of tt that shares no memory with it.
func (tt TimeTable) Clone() TimeTable {
	tt.Slots = append([]Slot{}, tt.Slots...)
	return tt
}

type NewTimeTable struct {
	Name         string `json:"name" validate:"required,notblank"`
	AcademicYear string `json:"academicYear" validate:"required,notblank"`
	Semester     string `json:"semester"`
	Department   string `json:"department"`
	Slots        []Slot `json:"slots" validate:"dive"`
}

func (nt *NewTimeTable) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.AcademicYear = core.CleanString(nt.AcademicYear)
	nt.Semester = core.CleanString(nt.Semester)
	nt.Department = core.CleanString(nt.Department)
	for i := range nt.Slots {
		nt.Slots[i].clean()
	}
	return validate.Struct(nt)
}

// UpdateTimeTable holds the fields that may change. Nil fields are left untouched; Slots replaces every slot.
type UpdateTimeTable struct {
	Name         *string `json:"name" validate:"omitempty,notblank"`
	AcademicYear *string `json:"academicYear" validate:"omitempty,notblank"`
	Semester     *string `json:"semester"`
	Department   *string `json:"department"`
	Slots        *[]Slot `json:"slots" validate:"omitempty,dive"`
	IsActive     *bool   `json:"isActive"`
}

func (ut *UpdateTimeTable) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ut.Name, ut.AcademicYear, ut.Semester, ut.Department} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if ut.Slots != nil {
		for i := range *ut.Slots {
			(*ut.Slots)[i].clean()
		}
	}
	return validate.Struct(ut)
}

func (ut *UpdateTimeTable) Merge(tt TimeTable) TimeTable {
	if ut.Name != nil {
		tt.Name = *ut.Name
	}
	if ut.AcademicYear != nil {
		tt.AcademicYear = *ut.AcademicYear
	}
	if ut.Semester != nil {
		tt.Semester = *ut.Semester
	}
	if ut.Department != nil {
		tt.Department = *ut.Department
	}
	if ut.Slots != nil {
		tt.Slots = *ut.Slots
	}
	if ut.IsActive != nil {
		tt.IsActive = *ut.IsActive
	}
	return tt
}

type QueryFilter struct {
	// Search does a case-insensitive match on Name.
	Search       string `query:"search"`
	AcademicYear string `query:"academic_year"`
	Semester     string `query:"semester"`
	Department   string `query:"department"`
	IsActive     *bool  `query:"is_active"`
	// Faculty and Class match timetables having at least one such slot.
	Faculty string `query:"faculty"`
	Class   string `query:"class"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
	qf.Semester = core.CleanString(qf.Semester)
	qf.Department = core.CleanString(qf.Department)
	qf.Faculty = core.CleanString(qf.Faculty)
	qf.Class = core.CleanString(qf.Class)
}

func (qf *QueryFilter) Match(tt TimeTable) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" && !core.ContainsFold(tt.Name, qf.Search) {
		return false
	}
	if qf.AcademicYear != "" && tt.AcademicYear != qf.AcademicYear {
		return false
	}
	if qf.Semester != "" && tt.Semester != qf.Semester {
		return false
	}
	if qf.Department != "" && tt.Department != qf.Department {
		return false
	}
	if qf.IsActive != nil && tt.IsActive != *qf.IsActive {
		return false
	}
	if qf.Faculty != "" && !hasSlot(tt, func(s Slot) bool { return s.Faculty == qf.Faculty }) {
		return false
	}
	if qf.Class != "" && !hasSlot(tt, func(s Slot) bool { return s.Class == qf.Class }) {
		return false
	}
	return true
}

func hasSlot(tt TimeTable, fn func(s Slot) bool) bool {
	for _, s := range tt.Slots {
		if fn(s) {
			return true
		}
	}
	return false
}

// OrderingFields maps the public ordering names to stored field names.
var OrderingFields = map[string]string{
	"name":          "name",
	"academic_year": "academic_year",
	"semester":      "semester",
	"created_at":    "created_at",
}

var DefaultOrdering = []core.DBOrdering{{Field: "academic_year"}, {Field: "name", Ascending: true}}

// ScheduleEntry is a Slot together with the TimeTable it belongs to.
type ScheduleEntry struct {
	Slot
	TimetableID   string `json:"timetableId"`
	TimetableName string `json:"timetableName"`
}

// sortSchedule orders entries by weekday, then start time.
func sortSchedule(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := core.WeekdayIndex(entries[i].Day), core.WeekdayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}

// Period is one numbered period of a ClassTimetable day.
type Period struct {
	Period    int    `json:"period" bson:"period" validate:"gte=1"`
	Subject   string `json:"subject" bson:"subject" validate:"required,notblank"`
	Faculty   string `json:"faculty,omitempty" bson:"faculty,omitempty"`
	StartTime string `json:"startTime" bson:"start_time" validate:"required,clock"`
	EndTime   string `json:"endTime" bson:"end_time" validate:"required,clock"`
}

// ClassTimetable is the list of periods of one class on one weekday.
// There is at most one per (Class, Day).
type ClassTimetable struct {
	ID        string    `json:"id" bson:"_id"`
	Class     string    `json:"class" bson:"class"`
	Day       string    `json:"day" bson:"day"`
	Periods   []Period  `json:"periods" bson:"periods"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

func (ct ClassTimetable) Clone() ClassTimetable {
	ct.Periods = append([]Period{}, ct.Periods...)
	return ct
}

// ClassDay is what is needed to set the periods of a class on a weekday.
type ClassDay struct {
	Class   string   `json:"class" validate:"required,notblank"`
	Day     string   `json:"day" validate:"required,weekday"`
	Periods []Period `json:"periods" validate:"required,min=1,dive"`
}

func (cd *ClassDay) Validate(validate *validator.Validate) error {
	cd.Class = core.CleanString(cd.Class)
	cd.Day = core.CapitalizeDay(cd.Day)
	for i := range cd.Periods {
		cd.Periods[i].Subject = core.CleanString(cd.Periods[i].Subject)
		cd.Periods[i].Faculty = core.CleanString(cd.Periods[i].Faculty)
		cd.Periods[i].StartTime = core.CleanString(cd.Periods[i].StartTime)
		cd.Periods[i].EndTime = core.CleanString(cd.Periods[i].EndTime)
	}
	if err := validate.Struct(cd); err != nil {
		return err
	}
	sort.SliceStable(cd.Periods, func(i, j int) bool { return cd.Periods[i].Period < cd.Periods[j].Period })
	for i := 1; i < len(cd.Periods); i++ {
		if cd.Periods[i].Period == cd.Periods[i-1].Period {
			return ErrDuplicatePeriod
		}
	}
	return nil
}

func sortClassDays(cts []ClassTimetable) {
	sort.SliceStable(cts, func(i, j int) bool { return core.WeekdayIndex(cts[i].Day) < core.WeekdayIndex(cts[j].Day) })
}
