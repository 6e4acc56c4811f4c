package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
)

type attendanceRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db, coll: db.collection(attendanceColl)}
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, a); err != nil {
		if isDuplicateKey(err, idxAttendanceSession) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return a, nil
}

// CreateAttendances inserts the records in order and removes the inserted ones when one of them fails.
func (repo *attendanceRepository) CreateAttendances(ctx context.Context, records ...attendance.Attendance) ([]attendance.Attendance, error) {
	docs := make([]interface{}, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, a := range records {
		docs = append(docs, a)
		ids = append(ids, a.ID)
	}

	insertCtx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	_, err := repo.coll.InsertMany(insertCtx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return append([]attendance.Attendance{}, records...), nil
	}

	undoCtx, undoCancel := repo.db.withTimeout(context.WithoutCancel(ctx))
	defer undoCancel()
	if _, undoErr := repo.coll.DeleteMany(undoCtx, bson.M{"_id": bson.M{"$in": ids}}); undoErr != nil {
		return nil, errors.Wrapf(undoErr, "removing partial roll call after: %v", err)
	}
	if isDuplicateKey(err, idxAttendanceSession) {
		return nil, attendance.ErrAlreadyMarked
	}
	return nil, errors.Wrap(err, "inserting attendance")
}

func (repo *attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	return findOne[attendance.Attendance](ctx, repo.db, repo.coll, bson.M{"_id": id}, attendance.ErrNotFound)
}

func attendanceFilter(qf *attendance.QueryFilter) bson.M {
	doc := bson.M{}
	if qf == nil {
		return doc
	}
	for field, val := range map[string]string{
		"student": qf.Student,
		"class":   qf.Class,
		"subject": qf.Subject,
		"status":  qf.Status,
	} {
		if val != "" {
			doc[field] = val
		}
	}

	from, to := qf.Range()
	date := bson.M{}
	if !from.IsZero() {
		date["$gte"] = from
	}
	if !to.IsZero() {
		date["$lte"] = to
	}
	if len(date) > 0 {
		doc["date"] = date
	}
	return doc
}

func (repo *attendanceRepository) QueryAttendance(
	ctx context.Context,
	filter *attendance.QueryFilter,
	ordering ...core.DBOrdering,
) ([]attendance.Attendance, error) {
	return find[attendance.Attendance](ctx, repo.db, repo.coll, attendanceFilter(filter), ordering)
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := replace(ctx, repo.db, repo.coll, a.ID, a, attendance.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return attendance.Attendance{}, err
		}
		if isDuplicateKey(err, idxAttendanceSession) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	return a, nil
}
