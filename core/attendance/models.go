package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

const dateLayout = "2006-01-02"

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// How attendance was taken
const (
	ViaScanner = "scanner"
	ViaManual  = "manual"
	ViaCode    = "code"
)

var (
	AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate}
	AllVias     = []string{ViaScanner, ViaManual, ViaCode}
)

// Attendance is one student's presence at one subject session.
// There is at most one record per (Student, Date, Subject).
type Attendance struct {
	ID                string    `json:"id" bson:"_id"`
	Student           string    `json:"student" bson:"student"`
	Class             string    `json:"class" bson:"class"`
	Subject           string    `json:"subject" bson:"subject"`
	Date              time.Time `json:"date" bson:"date"` // UTC midnight
	Status            string    `json:"status" bson:"status"`
	MarkedBy          string    `json:"markedBy,omitempty" bson:"marked_by,omitempty"`
	MarkedAt          time.Time `json:"markedAt" bson:"marked_at"`
	MarkedVia         string    `json:"markedVia" bson:"marked_via"`
	VerificationMedia string    `json:"verificationMedia,omitempty" bson:"verification_media,omitempty"`
	Note              string    `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updated_at"`
}

// NewAttendance is what a scanner or a student code submission sends.
type NewAttendance struct {
	StudentID         string `json:"studentId" validate:"required"`
	ClassID           string `json:"classId" validate:"required"`
	SubjectID         string `json:"subjectId" validate:"required"`
	MarkedVia         string `json:"-" validate:"required,marked_via"`
	VerificationMedia string `json:"verificationMedia" validate:"required_if=MarkedVia code"`
	Note              string `json:"note"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID)
	na.ClassID = core.CleanString(na.ClassID)
	na.SubjectID = core.CleanString(na.SubjectID)
	na.VerificationMedia = core.CleanString(na.VerificationMedia)
	na.Note = core.CleanString(na.Note)
	return validate.Struct(na)
}

// ManualRecord is one line of a faculty roll call.
type ManualRecord struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
	Note      string `json:"note"`
}

// ManualAttendance is a roll call taken by a faculty member for one class session.
// Date defaults to today.
type ManualAttendance struct {
	ClassID   string         `json:"classId" validate:"required"`
	SubjectID string         `json:"subjectId" validate:"required"`
	Date      string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Records   []ManualRecord `json:"records" validate:"required,min=1,dive"`
}

func (ma *ManualAttendance) Validate(validate *validator.Validate) error {
	ma.ClassID = core.CleanString(ma.ClassID)
	ma.SubjectID = core.CleanString(ma.SubjectID)
	ma.Date = core.CleanString(ma.Date)
	for i := range ma.Records {
		ma.Records[i].StudentID = core.CleanString(ma.Records[i].StudentID)
		ma.Records[i].Status = core.CleanString(ma.Records[i].Status, true /* lower */)
		ma.Records[i].Note = core.CleanString(ma.Records[i].Note)
	}
	return validate.Struct(ma)
}

// day returns the session day, today if Date is unset. Date must have been validated.
func (ma *ManualAttendance) day() time.Time {
	if ma.Date == "" {
		return core.StartOfDay(core.Now())
	}
	d, _ := time.Parse(dateLayout, ma.Date)
	return d.UTC()
}

// UpdateAttendance holds the only fields that may change after a record is created.
type UpdateAttendance struct {
	Status string  `json:"status" validate:"omitempty,attendance_status"`
	Note   *string `json:"note"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	ua.Status = core.CleanString(ua.Status, true /* lower */)
	if ua.Note != nil {
		note := core.CleanString(*ua.Note)
		ua.Note = &note
	}
	return validate.Struct(ua)
}

type QueryFilter struct {
	Student string `query:"student"`
	Class   string `query:"class"`
	Subject string `query:"subject"`
	Status  string `query:"status" validate:"omitempty,attendance_status"`
	From    string `query:"from" validate:"omitempty,datetime=2006-01-02"` // inclusive
	To      string `query:"to" validate:"omitempty,datetime=2006-01-02"`   // inclusive
}

func (qf *QueryFilter) Clean() {
	qf.Student = core.CleanString(qf.Student)
	qf.Class = core.CleanString(qf.Class)
	qf.Subject = core.CleanString(qf.Subject)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.From = core.CleanString(qf.From)
	qf.To = core.CleanString(qf.To)
}

// Range returns the date bounds of the filter. Unset bounds are zero.
func (qf *QueryFilter) Range() (from, to time.Time) {
	if qf == nil {
		return
	}
	if qf.From != "" {
		from, _ = time.Parse(dateLayout, qf.From)
	}
	if qf.To != "" {
		to, _ = time.Parse(dateLayout, qf.To)
	}
	return from.UTC(), to.UTC()
}

// Match reports whether a satisfies every set field of the filter.
func (qf *QueryFilter) Match(a Attendance) bool {
	if qf == nil {
		return true
	}
	if qf.Student != "" && a.Student != qf.Student {
		return false
	}
	if qf.Class != "" && a.Class != qf.Class {
		return false
	}
	if qf.Subject != "" && a.Subject != qf.Subject {
		return false
	}
	if qf.Status != "" && a.Status != qf.Status {
		return false
	}
	from, to := qf.Range()
	if !from.IsZero() && a.Date.Before(from) {
		return false
	}
	if !to.IsZero() && a.Date.After(to) {
		return false
	}
	return true
}

// OrderingFields maps the public ordering names to stored field names.
var OrderingFields = map[string]string{
	"date":       "date",
	"student":    "student",
	"class":      "class",
	"subject":    "subject",
	"status":     "status",
	"created_at": "created_at",
}

// DefaultOrdering lists the most recent sessions first.
var DefaultOrdering = []core.DBOrdering{{Field: "date"}, {Field: "created_at"}}
