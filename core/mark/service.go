package mark

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("mark not found")
	ErrInvalidTotal = core.NewValidationError(
		errors.New("total marks must be greater than 0"),
		core.FieldError{Field: "totalMarks", Error: "must be greater than 0"},
	)
)

type (
	Repository interface {
		// UpsertMark inserts m, or replaces the scores of the Mark with the same
		// (Student, Subject, Exam), keeping its ID and CreatedAt. created reports which happened.
		UpsertMark(ctx context.Context, m Mark) (saved Mark, created bool, err error)
		GetMark(ctx context.Context, id string) (Mark, error)
		QueryMarks(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Mark, error)
		UpdateMark(ctx context.Context, m Mark) (Mark, error)
		DeleteMark(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Upsert records a score, replacing any previous score of the student at the same subject and exam.
func (svc *Service) Upsert(ctx context.Context, nm NewMark, addedBy string) (Mark, bool, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Mark{}, false, err
	}

	now := core.Now()
	m := Mark{
		ID:         uuid.NewString(),
		Student:    nm.Student,
		Subject:    nm.Subject,
		Exam:       nm.Exam,
		Marks:      nm.Marks,
		TotalMarks: nm.TotalMarks,
		Remarks:    nm.Remarks,
		AddedBy:    addedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.applyGrade(); err != nil {
		return Mark{}, false, err
	}
	return svc.repo.UpsertMark(ctx, m)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Mark, error) {
	if id == "" {
		return Mark{}, ErrNotFound
	}
	return svc.repo.GetMark(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Mark, error) {
	if filter != nil {
		filter.Clean()
	}
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryMarks(ctx, filter, ordering...)
}

func (svc *Service) ListByStudent(ctx context.Context, studentID string) ([]Mark, error) {
	return svc.repo.QueryMarks(ctx, &QueryFilter{Student: studentID}, DefaultOrdering...)
}

// Update changes the scores or remarks of a Mark and recomputes its grade.
func (svc *Service) Update(ctx context.Context, id string, um UpdateMark) (Mark, error) {
	m, err := svc.GetByID(ctx, id)
	if err != nil {
		return Mark{}, err
	}
	m = um.Merge(m)
	if err = svc.validate.Struct(scores{Marks: m.Marks, TotalMarks: m.TotalMarks}); err != nil {
		return Mark{}, err
	}
	if err = m.applyGrade(); err != nil {
		return Mark{}, err
	}
	m.UpdatedAt = core.Now()
	return svc.repo.UpdateMark(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteMark(ctx, id)
}

// ReportCard aggregates all the marks of a student.
func (svc *Service) ReportCard(ctx context.Context, studentID string) (ReportCard, error) {
	marks, err := svc.ListByStudent(ctx, studentID)
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "listing marks")
	}
	return NewReportCard(studentID, marks), nil
}
