package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

type (
	DB struct {
		user           *table[user.User]
		attendance     *table[attendance.Attendance]
		mark           *table[mark.Mark]
		busRoute       *table[busroute.BusRoute]
		timetable      *table[timetable.TimeTable]
		classTimetable *table[timetable.ClassTimetable]
	}

	// table holds the rows of one entity by ID. Writes, including their uniqueness checks, hold the lock.
	table[T any] struct {
		t     map[string]*T
		mutex sync.RWMutex
	}
)

var _ core.Store = (*DB)(nil)

func Open() (*DB, error) {
	db := &DB{
		user:           newTable[user.User](),
		attendance:     newTable[attendance.Attendance](),
		mark:           newTable[mark.Mark](),
		busRoute:       newTable[busroute.BusRoute](),
		timetable:      newTable[timetable.TimeTable](),
		classTimetable: newTable[timetable.ClassTimetable](),
	}
	return db, nil
}

func (db *DB) Ping(context.Context) error  { return nil }
func (db *DB) Close(context.Context) error { return nil }

func newTable[T any]() *table[T] {
	return &table[T]{t: make(map[string]*T)}
}

// rows copies every row matching keep. It must be called with the lock held.
func (tbl *table[T]) rows(keep func(row T) bool) []T {
	rows := make([]T, 0, len(tbl.t))
	for _, row := range tbl.t {
		if keep == nil || keep(*row) {
			rows = append(rows, *row)
		}
	}
	return rows
}

// comparer compares the named field of two rows, like strings.Compare.
type comparer[T any] map[string]func(a, b T) int

// sortRows orders rows by each ordering in turn, then by ID so that the order is stable across calls.
// Unknown fields are ignored.
func sortRows[T any](rows []T, fields comparer[T], id func(T) string, ordering []core.DBOrdering) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return id(rows[i]) < id(rows[j])
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
