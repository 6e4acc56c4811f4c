package attendance

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("attendance record not found")
	ErrAlreadyMarked = core.NewConflictError("attendance already marked for this student, subject and date", "studentId")
)

type (
	Repository interface {
		// CreateAttendance stores a. It fails with ErrAlreadyMarked when a record exists for the same (Student, Date, Subject).
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		// CreateAttendances stores every record or none of them, failing with ErrAlreadyMarked like CreateAttendance.
		CreateAttendances(ctx context.Context, records ...Attendance) ([]Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		QueryAttendance(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Attendance, error)
		UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// MarkByScanner records the student present for today's session, as read from their ID card.
func (svc *Service) MarkByScanner(ctx context.Context, na NewAttendance, markedBy string) (Attendance, error) {
	na.MarkedVia = ViaScanner
	na.VerificationMedia = ""
	return svc.mark(ctx, na, markedBy)
}

// MarkByCode records the student present for today's session from a code submission.
// The submission must carry its verification media.
func (svc *Service) MarkByCode(ctx context.Context, na NewAttendance, markedBy string) (Attendance, error) {
	na.MarkedVia = ViaCode
	return svc.mark(ctx, na, markedBy)
}

func (svc *Service) mark(ctx context.Context, na NewAttendance, markedBy string) (Attendance, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}

	now := core.Now()
	return svc.repo.CreateAttendance(ctx, Attendance{
		ID:                uuid.NewString(),
		Student:           na.StudentID,
		Class:             na.ClassID,
		Subject:           na.SubjectID,
		Date:              core.StartOfDay(now),
		Status:            StatusPresent,
		MarkedBy:          markedBy,
		MarkedAt:          now,
		MarkedVia:         na.MarkedVia,
		VerificationMedia: na.VerificationMedia,
		Note:              na.Note,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

// MarkManual records a roll call. No record is written if any student of the roll call
// was already marked for that session, or appears twice in it.
func (svc *Service) MarkManual(ctx context.Context, ma ManualAttendance, markedBy string) ([]Attendance, error) {
	if err := ma.Validate(svc.validate); err != nil {
		return nil, err
	}

	day := ma.day()
	existing, err := svc.repo.QueryAttendance(ctx, &QueryFilter{
		Subject: ma.SubjectID,
		From:    day.Format(dateLayout),
		To:      day.Format(dateLayout),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying session records")
	}
	marked := make(map[string]bool, len(existing)+len(ma.Records))
	for _, a := range existing {
		marked[a.Student] = true
	}
	for _, rec := range ma.Records {
		if marked[rec.StudentID] {
			return nil, ErrAlreadyMarked
		}
		marked[rec.StudentID] = true
	}

	now := core.Now()
	records := make([]Attendance, 0, len(ma.Records))
	for _, rec := range ma.Records {
		records = append(records, Attendance{
			ID:        uuid.NewString(),
			Student:   rec.StudentID,
			Class:     ma.ClassID,
			Subject:   ma.SubjectID,
			Date:      day,
			Status:    rec.Status,
			MarkedBy:  markedBy,
			MarkedAt:  now,
			MarkedVia: ViaManual,
			Note:      rec.Note,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	// a scanner mark may land between the check above and this write
	return svc.repo.CreateAttendances(ctx, records...)
}

// Update changes the status and/or note of a record.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateAttendance) (Attendance, error) {
	if err := ua.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}

	a, err := svc.GetByID(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	if ua.Status != "" {
		a.Status = ua.Status
	}
	if ua.Note != nil {
		a.Note = *ua.Note
	}
	a.UpdatedAt = core.Now()
	return svc.repo.UpdateAttendance(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Attendance, error) {
	if id == "" {
		return Attendance{}, ErrNotFound
	}
	return svc.repo.GetAttendance(ctx, id)
}

func (svc *Service) ListByStudent(ctx context.Context, studentID string) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, &QueryFilter{Student: studentID}, DefaultOrdering...)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Attendance, error) {
	if filter != nil {
		filter.Clean()
		if err := svc.validate.Struct(filter); err != nil {
			return nil, err
		}
	}
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryAttendance(ctx, filter, ordering...)
}

// Percentage computes the student's attendance percentage in the class.
func (svc *Service) Percentage(ctx context.Context, studentID, classID string) (float64, error) {
	records, err := svc.repo.QueryAttendance(ctx, &QueryFilter{Class: classID})
	if err != nil {
		return 0, errors.Wrap(err, "querying class records")
	}
	return Percentage(records, studentID, classID), nil
}

// Summary computes the student's attendance in every class they have a record in.
func (svc *Service) Summary(ctx context.Context, studentID string) ([]ClassSummary, error) {
	own, err := svc.repo.QueryAttendance(ctx, &QueryFilter{Student: studentID})
	if err != nil {
		return nil, errors.Wrap(err, "querying student records")
	}

	seen := make(map[string]bool)
	var records []Attendance
	for _, a := range own {
		if seen[a.Class] {
			continue
		}
		seen[a.Class] = true
		classRecords, err := svc.repo.QueryAttendance(ctx, &QueryFilter{Class: a.Class})
		if err != nil {
			return nil, errors.Wrapf(err, "querying class %s records", a.Class)
		}
		records = append(records, classRecords...)
	}
	return Summarize(records, studentID), nil
}
