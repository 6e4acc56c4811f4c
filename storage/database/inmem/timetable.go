package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/timetable"
)

var timetableFields = comparer[timetable.TimeTable]{
	"name":          func(a, b timetable.TimeTable) int { return compareFold(a.Name, b.Name) },
	"academic_year": func(a, b timetable.TimeTable) int { return compareFold(a.AcademicYear, b.AcademicYear) },
	"semester":      func(a, b timetable.TimeTable) int { return compareFold(a.Semester, b.Semester) },
	"created_at":    func(a, b timetable.TimeTable) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type timetableRepository struct {
	tts *table[timetable.TimeTable]
	cts *table[timetable.ClassTimetable]
}

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{tts: db.timetable, cts: db.classTimetable}
}

func (repo *timetableRepository) CreateTimetable(_ context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	repo.tts.mutex.Lock()
	defer repo.tts.mutex.Unlock()

	stored := tt.Clone()
	repo.tts.t[tt.ID] = &stored
	return tt.Clone(), nil
}

func (repo *timetableRepository) GetTimetable(_ context.Context, id string) (timetable.TimeTable, error) {
	repo.tts.mutex.RLock()
	defer repo.tts.mutex.RUnlock()

	if tt, ok := repo.tts.t[id]; ok {
		return tt.Clone(), nil
	}
	return timetable.TimeTable{}, timetable.ErrNotFound
}

func (repo *timetableRepository) QueryTimetables(
	_ context.Context,
	filter *timetable.QueryFilter,
	ordering ...core.DBOrdering,
) ([]timetable.TimeTable, error) {
	repo.tts.mutex.RLock()
	defer repo.tts.mutex.RUnlock()

	tts := repo.tts.rows(filter.Match)
	for i := range tts {
		tts[i] = tts[i].Clone()
	}
	sortRows(tts, timetableFields, func(tt timetable.TimeTable) string { return tt.ID }, ordering)
	return tts, nil
}

func (repo *timetableRepository) UpdateTimetable(_ context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	repo.tts.mutex.Lock()
	defer repo.tts.mutex.Unlock()

	if _, ok := repo.tts.t[tt.ID]; !ok {
		return timetable.TimeTable{}, timetable.ErrNotFound
	}
	stored := tt.Clone()
	repo.tts.t[tt.ID] = &stored
	return tt.Clone(), nil
}

func (repo *timetableRepository) DeleteTimetable(_ context.Context, id string) error {
	repo.tts.mutex.Lock()
	defer repo.tts.mutex.Unlock()

	if _, ok := repo.tts.t[id]; !ok {
		return timetable.ErrNotFound
	}
	delete(repo.tts.t, id)
	return nil
}

func (repo *timetableRepository) UpsertClassTimetable(_ context.Context, ct timetable.ClassTimetable) (timetable.ClassTimetable, error) {
	repo.cts.mutex.Lock()
	defer repo.cts.mutex.Unlock()

	for _, existing := range repo.cts.t {
		if existing.Class == ct.Class && existing.Day == ct.Day {
			ct.ID = existing.ID
			ct.CreatedAt = existing.CreatedAt
			break
		}
	}
	stored := ct.Clone()
	repo.cts.t[ct.ID] = &stored
	return ct.Clone(), nil
}

func (repo *timetableRepository) ListClassTimetables(_ context.Context, class string) ([]timetable.ClassTimetable, error) {
	repo.cts.mutex.RLock()
	defer repo.cts.mutex.RUnlock()

	cts := repo.cts.rows(func(ct timetable.ClassTimetable) bool { return ct.Class == class })
	for i := range cts {
		cts[i] = cts[i].Clone()
	}
	return cts, nil
}

func (repo *timetableRepository) DeleteClassTimetable(_ context.Context, class, day string) error {
	repo.cts.mutex.Lock()
	defer repo.cts.mutex.Unlock()

	for id, ct := range repo.cts.t {
		if ct.Class == class && ct.Day == day {
			delete(repo.cts.t, id)
			return nil
		}
	}
	return timetable.ErrClassTimetableNotFound
}
