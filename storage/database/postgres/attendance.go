package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
)

const attendanceSessionKey = "attendance_student_date_subject_key"

var attendanceColumns = map[string]string{
	"date":       "date",
	"student":    "student_id",
	"class":      "class_id",
	"subject":    "subject_id",
	"status":     "status",
	"created_at": "created_at",
}

type attendanceRow struct {
	ID                string    `db:"id"`
	Student           string    `db:"student_id"`
	Class             string    `db:"class_id"`
	Subject           string    `db:"subject_id"`
	Date              time.Time `db:"date"`
	Status            string    `db:"status"`
	MarkedBy          string    `db:"marked_by"`
	MarkedAt          time.Time `db:"marked_at"`
	MarkedVia         string    `db:"marked_via"`
	VerificationMedia string    `db:"verification_media"`
	Note              string    `db:"note"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row attendanceRow) attendance() attendance.Attendance {
	a := attendance.Attendance(row)
	a.Date = a.Date.UTC()
	a.MarkedAt = a.MarkedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a
}

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const insertAttendance = `INSERT INTO attendance (
	id, student_id, class_id, subject_id, date, status, marked_by, marked_at, marked_via,
	verification_media, note, created_at, updated_at
) VALUES (
	:id, :student_id, :class_id, :subject_id, :date, :status, :marked_by, :marked_at, :marked_via,
	:verification_media, :note, :created_at, :updated_at
)`

func attendanceWriteError(err error) error {
	if isUniqueViolation(err, attendanceSessionKey) {
		return attendance.ErrAlreadyMarked
	}
	return errors.Wrap(err, "inserting attendance")
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.db.db.NamedExecContext(ctx, insertAttendance, attendanceRow(a)); err != nil {
		return attendance.Attendance{}, attendanceWriteError(err)
	}
	return a, nil
}

func (repo *attendanceRepository) CreateAttendances(ctx context.Context, records ...attendance.Attendance) ([]attendance.Attendance, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	tx, err := repo.db.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range records {
		if _, err = tx.NamedExecContext(ctx, insertAttendance, attendanceRow(a)); err != nil {
			return nil, attendanceWriteError(err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing attendance")
	}
	return append([]attendance.Attendance{}, records...), nil
}

func (repo *attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var row attendanceRow
	if err := repo.db.db.GetContext(ctx, &row, "SELECT * FROM attendance WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, errors.Wrap(err, "getting attendance")
	}
	return row.attendance(), nil
}

func attendanceWhere(qf *attendance.QueryFilter) where {
	var w where
	if qf == nil {
		return w
	}
	if qf.Student != "" {
		w.add("student_id = ?", qf.Student)
	}
	if qf.Class != "" {
		w.add("class_id = ?", qf.Class)
	}
	if qf.Subject != "" {
		w.add("subject_id = ?", qf.Subject)
	}
	if qf.Status != "" {
		w.add("status = ?", qf.Status)
	}
	from, to := qf.Range()
	if !from.IsZero() {
		w.add("date >= ?", from)
	}
	if !to.IsZero() {
		w.add("date <= ?", to)
	}
	return w
}

func (repo *attendanceRepository) QueryAttendance(
	ctx context.Context,
	filter *attendance.QueryFilter,
	ordering ...core.DBOrdering,
) ([]attendance.Attendance, error) {
	w := attendanceWhere(filter)

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []attendanceRow
	if err := repo.db.db.SelectContext(ctx, &rows, w.query(repo.db.db, "SELECT * FROM attendance", attendanceColumns, ordering), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.attendance())
	}
	return records, nil
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `UPDATE attendance SET
		status = :status, note = :note, marked_by = :marked_by, verification_media = :verification_media,
		updated_at = :updated_at
	WHERE id = :id`
	if err := namedExec(ctx, repo.db.db, q, attendanceRow(a), attendance.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return attendance.Attendance{}, err
		}
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	return a, nil
}
