package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/timetable"
)

var timetableColumns = map[string]string{
	"name":          "name",
	"academic_year": "academic_year",
	"semester":      "semester",
	"created_at":    "created_at",
}

type timetableRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	AcademicYear string         `db:"academic_year"`
	Semester     string         `db:"semester"`
	Department   string         `db:"department"`
	Slots        types.JSONText `db:"slots"`
	CreatedBy    string         `db:"created_by"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newTimetableRow(tt timetable.TimeTable) (timetableRow, error) {
	slots, err := jsonList(tt.Slots)
	if err != nil {
		return timetableRow{}, errors.Wrap(err, "encoding slots")
	}
	return timetableRow{
		ID:           tt.ID,
		Name:         tt.Name,
		AcademicYear: tt.AcademicYear,
		Semester:     tt.Semester,
		Department:   tt.Department,
		Slots:        slots,
		CreatedBy:    tt.CreatedBy,
		IsActive:     tt.IsActive,
		CreatedAt:    tt.CreatedAt,
		UpdatedAt:    tt.UpdatedAt,
	}, nil
}

func (row timetableRow) timetable() (timetable.TimeTable, error) {
	tt := timetable.TimeTable{
		ID:           row.ID,
		Name:         row.Name,
		AcademicYear: row.AcademicYear,
		Semester:     row.Semester,
		Department:   row.Department,
		CreatedBy:    row.CreatedBy,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if err := row.Slots.Unmarshal(&tt.Slots); err != nil {
		return timetable.TimeTable{}, errors.Wrap(err, "decoding slots")
	}
	return tt.Clone(), nil
}

type classTimetableRow struct {
	ID        string         `db:"id"`
	Class     string         `db:"class"`
	Day       string         `db:"day"`
	Periods   types.JSONText `db:"periods"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (row classTimetableRow) classTimetable() (timetable.ClassTimetable, error) {
	ct := timetable.ClassTimetable{
		ID:        row.ID,
		Class:     row.Class,
		Day:       row.Day,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := row.Periods.Unmarshal(&ct.Periods); err != nil {
		return timetable.ClassTimetable{}, errors.Wrap(err, "decoding periods")
	}
	return ct.Clone(), nil
}

// jsonList encodes a slice as a JSON array, nil included.
func jsonList[T any](items []T) (types.JSONText, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

type timetableRepository struct {
	db *DB
}

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	row, err := newTimetableRow(tt)
	if err != nil {
		return timetable.TimeTable{}, err
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `INSERT INTO timetable (
		id, name, academic_year, semester, department, slots, created_by, is_active, created_at, updated_at
	) VALUES (
		:id, :name, :academic_year, :semester, :department, :slots, :created_by, :is_active, :created_at, :updated_at
	)`
	if _, err = repo.db.db.NamedExecContext(ctx, q, row); err != nil {
		return timetable.TimeTable{}, errors.Wrap(err, "inserting timetable")
	}
	return tt, nil
}

func (repo *timetableRepository) GetTimetable(ctx context.Context, id string) (timetable.TimeTable, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var row timetableRow
	if err := repo.db.db.GetContext(ctx, &row, "SELECT * FROM timetable WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timetable.TimeTable{}, timetable.ErrNotFound
		}
		return timetable.TimeTable{}, errors.Wrap(err, "getting timetable")
	}
	return row.timetable()
}

// hasSlotWith matches timetables with a slot whose field equals val.
func hasSlotWith(field, val string) (string, string) {
	arg, _ := json.Marshal([]map[string]string{{field: val}})
	return "slots @> ?", string(arg)
}

func timetableWhere(qf *timetable.QueryFilter) where {
	var w where
	if qf == nil {
		return w
	}
	if qf.Search != "" {
		w.add("name ILIKE ?", contains(qf.Search))
	}
	if qf.AcademicYear != "" {
		w.add("academic_year = ?", qf.AcademicYear)
	}
	if qf.Semester != "" {
		w.add("semester = ?", qf.Semester)
	}
	if qf.Department != "" {
		w.add("department = ?", qf.Department)
	}
	if qf.IsActive != nil {
		w.add("is_active = ?", *qf.IsActive)
	}
	if qf.Faculty != "" {
		cond, arg := hasSlotWith("faculty", qf.Faculty)
		w.add(cond, arg)
	}
	if qf.Class != "" {
		cond, arg := hasSlotWith("class", qf.Class)
		w.add(cond, arg)
	}
	return w
}

func (repo *timetableRepository) QueryTimetables(
	ctx context.Context,
	filter *timetable.QueryFilter,
	ordering ...core.DBOrdering,
) ([]timetable.TimeTable, error) {
	w := timetableWhere(filter)

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []timetableRow
	if err := repo.db.db.SelectContext(ctx, &rows, w.query(repo.db.db, "SELECT * FROM timetable", timetableColumns, ordering), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying timetables")
	}
	tts := make([]timetable.TimeTable, 0, len(rows))
	for _, row := range rows {
		tt, err := row.timetable()
		if err != nil {
			return nil, err
		}
		tts = append(tts, tt)
	}
	return tts, nil
}

func (repo *timetableRepository) UpdateTimetable(ctx context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	row, err := newTimetableRow(tt)
	if err != nil {
		return timetable.TimeTable{}, err
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `UPDATE timetable SET
		name = :name, academic_year = :academic_year, semester = :semester, department = :department,
		slots = :slots, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	if err = namedExec(ctx, repo.db.db, q, row, timetable.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return timetable.TimeTable{}, err
		}
		return timetable.TimeTable{}, errors.Wrap(err, "updating timetable")
	}
	return tt, nil
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, "timetable", id, timetable.ErrNotFound)
}

func (repo *timetableRepository) UpsertClassTimetable(ctx context.Context, ct timetable.ClassTimetable) (timetable.ClassTimetable, error) {
	periods, err := jsonList(ct.Periods)
	if err != nil {
		return timetable.ClassTimetable{}, errors.Wrap(err, "encoding periods")
	}
	arg := classTimetableRow{
		ID:        ct.ID,
		Class:     ct.Class,
		Day:       ct.Day,
		Periods:   periods,
		CreatedAt: ct.CreatedAt,
		UpdatedAt: ct.UpdatedAt,
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `INSERT INTO class_timetable (id, class, day, periods, created_at, updated_at)
	VALUES (:id, :class, :day, :periods, :created_at, :updated_at)
	ON CONFLICT (class, day) DO UPDATE SET periods = EXCLUDED.periods, updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row classTimetableRow
	if err = namedGet(ctx, repo.db.db, &row, q, arg); err != nil {
		return timetable.ClassTimetable{}, errors.Wrap(err, "upserting class timetable")
	}
	return row.classTimetable()
}

func (repo *timetableRepository) ListClassTimetables(ctx context.Context, class string) ([]timetable.ClassTimetable, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []classTimetableRow
	if err := repo.db.db.SelectContext(ctx, &rows, "SELECT * FROM class_timetable WHERE class = $1", class); err != nil {
		return nil, errors.Wrap(err, "listing class timetables")
	}
	cts := make([]timetable.ClassTimetable, 0, len(rows))
	for _, row := range rows {
		ct, err := row.classTimetable()
		if err != nil {
			return nil, err
		}
		cts = append(cts, ct)
	}
	return cts, nil
}

func (repo *timetableRepository) DeleteClassTimetable(ctx context.Context, class, day string) error {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	res, err := repo.db.db.ExecContext(ctx, "DELETE FROM class_timetable WHERE class = $1 AND day = $2", class, day)
	if err != nil {
		return errors.Wrap(err, "deleting class timetable")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting class timetable")
	}
	if n == 0 {
		return timetable.ErrClassTimetableNotFound
	}
	return nil
}
