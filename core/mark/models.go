package mark

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grading"
)

// Mark is a student's score at one exam of one subject.
// There is at most one Mark per (Student, Subject, Exam).
type Mark struct {
	ID         string    `json:"id" bson:"_id"`
	Student    string    `json:"student" bson:"student"`
	Subject    string    `json:"subject" bson:"subject"`
	Exam       string    `json:"exam" bson:"exam"`
	Marks      float64   `json:"marks" bson:"marks"`
	TotalMarks float64   `json:"totalMarks" bson:"total_marks"`
	Percentage float64   `json:"percentage" bson:"percentage"`
	Grade      string    `json:"grade" bson:"grade"`
	Remarks    string    `json:"remarks,omitempty" bson:"remarks,omitempty"`
	AddedBy    string    `json:"addedBy,omitempty" bson:"added_by,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at"`
}

// applyGrade recomputes the derived Percentage and Grade.
func (m *Mark) applyGrade() error {
	if m.TotalMarks <= 0 {
		return ErrInvalidTotal
	}
	m.Percentage, m.Grade = grading.Compute(m.Marks, m.TotalMarks)
	return nil
}

// NewMark contains what is needed to record a score. Recording the same
// (Student, Subject, Exam) twice replaces the first score.
type NewMark struct {
	Student    string  `json:"student" validate:"required"`
	Subject    string  `json:"subject" validate:"required,notblank"`
	Exam       string  `json:"exam" validate:"required,notblank"`
	Marks      float64 `json:"marks" validate:"gte=0"` // may exceed TotalMarks with bonus marks
	TotalMarks float64 `json:"totalMarks" validate:"gt=0"`
	Remarks    string  `json:"remarks"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.Student = core.CleanString(nm.Student)
	nm.Subject = core.CleanString(nm.Subject)
	nm.Exam = core.CleanString(nm.Exam)
	nm.Remarks = core.CleanString(nm.Remarks)
	return validate.Struct(nm)
}

// UpdateMark holds the fields of a Mark that may change. Nil fields are left untouched.
type UpdateMark struct {
	Marks      *float64 `json:"marks"`
	TotalMarks *float64 `json:"totalMarks"`
	Remarks    *string  `json:"remarks"`
}

// scores is validated once an UpdateMark is merged.
type scores struct {
	Marks      float64 `json:"marks" validate:"gte=0"`
	TotalMarks float64 `json:"totalMarks" validate:"gt=0"`
}

func (um *UpdateMark) Merge(m Mark) Mark {
	if um.Marks != nil {
		m.Marks = *um.Marks
	}
	if um.TotalMarks != nil {
		m.TotalMarks = *um.TotalMarks
	}
	if um.Remarks != nil {
		m.Remarks = core.CleanString(*um.Remarks)
	}
	return m
}

type QueryFilter struct {
	Student string `query:"student"`
	Subject string `query:"subject"`
	Exam    string `query:"exam"`
	// Search does a case-insensitive match on Subject or Exam.
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Student = core.CleanString(qf.Student)
	qf.Subject = core.CleanString(qf.Subject)
	qf.Exam = core.CleanString(qf.Exam)
	qf.Search = core.CleanString(qf.Search)
}

func (qf *QueryFilter) Match(m Mark) bool {
	if qf == nil {
		return true
	}
	if qf.Student != "" && m.Student != qf.Student {
		return false
	}
	if qf.Subject != "" && m.Subject != qf.Subject {
		return false
	}
	if qf.Exam != "" && m.Exam != qf.Exam {
		return false
	}
	if qf.Search != "" && !(core.ContainsFold(m.Subject, qf.Search) || core.ContainsFold(m.Exam, qf.Search)) {
		return false
	}
	return true
}

// OrderingFields maps the public ordering names to stored field names.
var OrderingFields = map[string]string{
	"subject":    "subject",
	"exam":       "exam",
	"marks":      "marks",
	"percentage": "percentage",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var DefaultOrdering = []core.DBOrdering{{Field: "subject", Ascending: true}, {Field: "exam", Ascending: true}}

// ReportCard sums up every Mark of a student with the same grading rule as a single Mark.
type ReportCard struct {
	Student    string  `json:"student"`
	Marks      []Mark  `json:"marks"`
	Obtained   float64 `json:"obtained"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade,omitempty"` // empty when there are no marks
}

// NewReportCard aggregates marks, which must all belong to student.
func NewReportCard(student string, marks []Mark) ReportCard {
	rc := ReportCard{Student: student, Marks: marks}
	if rc.Marks == nil {
		rc.Marks = []Mark{}
	}
	for _, m := range marks {
		rc.Obtained += m.Marks
		rc.Total += m.TotalMarks
	}
	if len(marks) > 0 {
		rc.Percentage, rc.Grade = grading.Compute(rc.Obtained, rc.Total)
	}
	return rc
}
