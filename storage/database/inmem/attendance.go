package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
)

var attendanceFields = comparer[attendance.Attendance]{
	"date":       func(a, b attendance.Attendance) int { return a.Date.Compare(b.Date) },
	"student":    func(a, b attendance.Attendance) int { return compareFold(a.Student, b.Student) },
	"class":      func(a, b attendance.Attendance) int { return compareFold(a.Class, b.Class) },
	"subject":    func(a, b attendance.Attendance) int { return compareFold(a.Subject, b.Subject) },
	"status":     func(a, b attendance.Attendance) int { return compareFold(a.Status, b.Status) },
	"created_at": func(a, b attendance.Attendance) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type attendanceRepository struct {
	db *table[attendance.Attendance]
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func sameSession(a, b attendance.Attendance) bool {
	return a.Student == b.Student && a.Subject == b.Subject && a.Date.Equal(b.Date)
}

// marked reports whether a record exists for the session of a. Callers hold the lock.
func (repo *attendanceRepository) marked(a attendance.Attendance) bool {
	for _, rec := range repo.db.t {
		if sameSession(*rec, a) {
			return true
		}
	}
	return false
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.marked(a) {
		return attendance.Attendance{}, attendance.ErrAlreadyMarked
	}
	repo.db.t[a.ID] = &a
	return a, nil
}

func (repo *attendanceRepository) CreateAttendances(_ context.Context, records ...attendance.Attendance) ([]attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i, a := range records {
		if repo.marked(a) {
			return nil, attendance.ErrAlreadyMarked
		}
		for _, prev := range records[:i] {
			if sameSession(prev, a) {
				return nil, attendance.ErrAlreadyMarked
			}
		}
	}
	created := make([]attendance.Attendance, 0, len(records))
	for _, a := range records {
		a := a
		repo.db.t[a.ID] = &a
		created = append(created, a)
	}
	return created, nil
}

func (repo *attendanceRepository) GetAttendance(_ context.Context, id string) (attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.t[id]; ok {
		return *a, nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryAttendance(
	_ context.Context,
	filter *attendance.QueryFilter,
	ordering ...core.DBOrdering,
) ([]attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.db.rows(filter.Match)
	sortRows(records, attendanceFields, func(a attendance.Attendance) string { return a.ID }, ordering)
	return records, nil
}

func (repo *attendanceRepository) UpdateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[a.ID]; !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	repo.db.t[a.ID] = &a
	return a, nil
}
