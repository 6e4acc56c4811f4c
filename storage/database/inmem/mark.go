package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/mark"
)

var markFields = comparer[mark.Mark]{
	"subject":    func(a, b mark.Mark) int { return compareFold(a.Subject, b.Subject) },
	"exam":       func(a, b mark.Mark) int { return compareFold(a.Exam, b.Exam) },
	"marks":      func(a, b mark.Mark) int { return compareFloat(a.Marks, b.Marks) },
	"percentage": func(a, b mark.Mark) int { return compareFloat(a.Percentage, b.Percentage) },
	"created_at": func(a, b mark.Mark) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b mark.Mark) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type markRepository struct {
	db *table[mark.Mark]
}

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db.mark}
}

func (repo *markRepository) UpsertMark(_ context.Context, m mark.Mark) (mark.Mark, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.t {
		if existing.Student == m.Student && existing.Subject == m.Subject && existing.Exam == m.Exam {
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			repo.db.t[m.ID] = &m
			return m, false, nil
		}
	}
	repo.db.t[m.ID] = &m
	return m, true, nil
}

func (repo *markRepository) GetMark(_ context.Context, id string) (mark.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.t[id]; ok {
		return *m, nil
	}
	return mark.Mark{}, mark.ErrNotFound
}

func (repo *markRepository) QueryMarks(_ context.Context, filter *mark.QueryFilter, ordering ...core.DBOrdering) ([]mark.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := repo.db.rows(filter.Match)
	sortRows(marks, markFields, func(m mark.Mark) string { return m.ID }, ordering)
	return marks, nil
}

func (repo *markRepository) UpdateMark(_ context.Context, m mark.Mark) (mark.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[m.ID]; !ok {
		return mark.Mark{}, mark.ErrNotFound
	}
	repo.db.t[m.ID] = &m
	return m, nil
}

func (repo *markRepository) DeleteMark(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[id]; !ok {
		return mark.ErrNotFound
	}
	delete(repo.db.t, id)
	return nil
}
