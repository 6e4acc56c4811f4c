package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/mark"
)

var markColumns = map[string]string{
	"subject":    "subject",
	"exam":       "exam",
	"marks":      "marks",
	"percentage": "percentage",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type markRow struct {
	ID         string    `db:"id"`
	Student    string    `db:"student_id"`
	Subject    string    `db:"subject"`
	Exam       string    `db:"exam"`
	Marks      float64   `db:"marks"`
	TotalMarks float64   `db:"total_marks"`
	Percentage float64   `db:"percentage"`
	Grade      string    `db:"grade"`
	Remarks    string    `db:"remarks"`
	AddedBy    string    `db:"added_by"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row markRow) mark() mark.Mark {
	m := mark.Mark(row)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m
}

type markRepository struct {
	db *DB
}

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db}
}

func (repo *markRepository) UpsertMark(ctx context.Context, m mark.Mark) (mark.Mark, bool, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `INSERT INTO mark (
		id, student_id, subject, exam, marks, total_marks, percentage, grade, remarks, added_by, created_at, updated_at
	) VALUES (
		:id, :student_id, :subject, :exam, :marks, :total_marks, :percentage, :grade, :remarks, :added_by, :created_at, :updated_at
	)
	ON CONFLICT (student_id, subject, exam) DO UPDATE SET
		marks = EXCLUDED.marks, total_marks = EXCLUDED.total_marks, percentage = EXCLUDED.percentage,
		grade = EXCLUDED.grade, remarks = EXCLUDED.remarks, added_by = EXCLUDED.added_by, updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row markRow
	if err := namedGet(ctx, repo.db.db, &row, q, markRow(m)); err != nil {
		return mark.Mark{}, false, errors.Wrap(err, "upserting mark")
	}
	return row.mark(), row.ID == m.ID, nil
}

func (repo *markRepository) GetMark(ctx context.Context, id string) (mark.Mark, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var row markRow
	if err := repo.db.db.GetContext(ctx, &row, "SELECT * FROM mark WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mark.Mark{}, mark.ErrNotFound
		}
		return mark.Mark{}, errors.Wrap(err, "getting mark")
	}
	return row.mark(), nil
}

func markWhere(qf *mark.QueryFilter) where {
	var w where
	if qf == nil {
		return w
	}
	if qf.Student != "" {
		w.add("student_id = ?", qf.Student)
	}
	if qf.Subject != "" {
		w.add("subject = ?", qf.Subject)
	}
	if qf.Exam != "" {
		w.add("exam = ?", qf.Exam)
	}
	if qf.Search != "" {
		pattern := contains(qf.Search)
		w.add("(subject ILIKE ? OR exam ILIKE ?)", pattern, pattern)
	}
	return w
}

func (repo *markRepository) QueryMarks(ctx context.Context, filter *mark.QueryFilter, ordering ...core.DBOrdering) ([]mark.Mark, error) {
	w := markWhere(filter)

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []markRow
	if err := repo.db.db.SelectContext(ctx, &rows, w.query(repo.db.db, "SELECT * FROM mark", markColumns, ordering), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	marks := make([]mark.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, row.mark())
	}
	return marks, nil
}

func (repo *markRepository) UpdateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `UPDATE mark SET
		marks = :marks, total_marks = :total_marks, percentage = :percentage, grade = :grade,
		remarks = :remarks, updated_at = :updated_at
	WHERE id = :id`
	if err := namedExec(ctx, repo.db.db, q, markRow(m), mark.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return mark.Mark{}, err
		}
		return mark.Mark{}, errors.Wrap(err, "updating mark")
	}
	return m, nil
}

func (repo *markRepository) DeleteMark(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, "mark", id, mark.ErrNotFound)
}
