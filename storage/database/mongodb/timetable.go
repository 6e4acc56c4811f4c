package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/timetable"
)

type timetableRepository struct {
	db  *DB
	tts *mongo.Collection
	cts *mongo.Collection
}

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{
		db:  db,
		tts: db.collection(timetablesColl),
		cts: db.collection(classTimetablesColl),
	}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.tts.InsertOne(ctx, tt); err != nil {
		return timetable.TimeTable{}, errors.Wrap(err, "inserting timetable")
	}
	return tt, nil
}

func (repo *timetableRepository) GetTimetable(ctx context.Context, id string) (timetable.TimeTable, error) {
	return findOne[timetable.TimeTable](ctx, repo.db, repo.tts, bson.M{"_id": id}, timetable.ErrNotFound)
}

func timetableFilter(qf *timetable.QueryFilter) bson.M {
	doc := bson.M{}
	if qf == nil {
		return doc
	}
	if qf.Search != "" {
		doc["name"] = search(qf.Search)
	}
	for field, val := range map[string]string{
		"academic_year": qf.AcademicYear,
		"semester":      qf.Semester,
		"department":    qf.Department,
		"slots.faculty": qf.Faculty,
		"slots.class":   qf.Class,
	} {
		if val != "" {
			doc[field] = val
		}
	}
	if qf.IsActive != nil {
		doc["is_active"] = *qf.IsActive
	}
	return doc
}

func (repo *timetableRepository) QueryTimetables(
	ctx context.Context,
	filter *timetable.QueryFilter,
	ordering ...core.DBOrdering,
) ([]timetable.TimeTable, error) {
	return find[timetable.TimeTable](ctx, repo.db, repo.tts, timetableFilter(filter), ordering)
}

func (repo *timetableRepository) UpdateTimetable(ctx context.Context, tt timetable.TimeTable) (timetable.TimeTable, error) {
	if err := replace(ctx, repo.db, repo.tts, tt.ID, tt, timetable.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return timetable.TimeTable{}, err
		}
		return timetable.TimeTable{}, errors.Wrap(err, "updating timetable")
	}
	return tt, nil
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, repo.tts, id, timetable.ErrNotFound)
}

func (repo *timetableRepository) UpsertClassTimetable(ctx context.Context, ct timetable.ClassTimetable) (timetable.ClassTimetable, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"class": ct.Class, "day": ct.Day}
	update := bson.M{
		"$set":         bson.M{"periods": ct.Periods, "updated_at": ct.UpdatedAt},
		"$setOnInsert": bson.M{"_id": ct.ID, "created_at": ct.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved timetable.ClassTimetable
	err := repo.cts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if isDuplicateKey(err, idxClassTimetableDay) {
		err = repo.cts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	}
	if err != nil {
		return timetable.ClassTimetable{}, errors.Wrap(err, "upserting class timetable")
	}
	return saved, nil
}

func (repo *timetableRepository) ListClassTimetables(ctx context.Context, class string) ([]timetable.ClassTimetable, error) {
	return find[timetable.ClassTimetable](ctx, repo.db, repo.cts, bson.M{"class": class}, nil)
}

func (repo *timetableRepository) DeleteClassTimetable(ctx context.Context, class, day string) error {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	res, err := repo.cts.DeleteOne(ctx, bson.M{"class": class, "day": day})
	if err != nil {
		return errors.Wrap(err, "deleting class timetable")
	}
	if res.DeletedCount == 0 {
		return timetable.ErrClassTimetableNotFound
	}
	return nil
}
