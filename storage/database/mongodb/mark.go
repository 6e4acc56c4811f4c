package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/mark"
)

type markRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db, coll: db.collection(marksColl)}
}

func (repo *markRepository) UpsertMark(ctx context.Context, m mark.Mark) (mark.Mark, bool, error) {
	saved, err := repo.upsert(ctx, m)
	if isDuplicateKey(err, idxMarkExam) {
		// a concurrent upsert inserted the same key first: this one now matches it
		saved, err = repo.upsert(ctx, m)
	}
	if err != nil {
		return mark.Mark{}, false, errors.Wrap(err, "upserting mark")
	}
	return saved, saved.ID == m.ID, nil
}

func (repo *markRepository) upsert(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"student": m.Student, "subject": m.Subject, "exam": m.Exam}
	update := bson.M{
		"$set": bson.M{
			"marks":       m.Marks,
			"total_marks": m.TotalMarks,
			"percentage":  m.Percentage,
			"grade":       m.Grade,
			"remarks":     m.Remarks,
			"added_by":    m.AddedBy,
			"updated_at":  m.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": m.ID, "created_at": m.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved mark.Mark
	err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	return saved, err
}

func (repo *markRepository) GetMark(ctx context.Context, id string) (mark.Mark, error) {
	return findOne[mark.Mark](ctx, repo.db, repo.coll, bson.M{"_id": id}, mark.ErrNotFound)
}

func markFilter(qf *mark.QueryFilter) bson.M {
	doc := bson.M{}
	if qf == nil {
		return doc
	}
	if qf.Student != "" {
		doc["student"] = qf.Student
	}
	if qf.Subject != "" {
		doc["subject"] = qf.Subject
	}
	if qf.Exam != "" {
		doc["exam"] = qf.Exam
	}
	if qf.Search != "" {
		re := search(qf.Search)
		doc["$or"] = bson.A{bson.M{"subject": re}, bson.M{"exam": re}}
	}
	return doc
}

func (repo *markRepository) QueryMarks(ctx context.Context, filter *mark.QueryFilter, ordering ...core.DBOrdering) ([]mark.Mark, error) {
	return find[mark.Mark](ctx, repo.db, repo.coll, markFilter(filter), ordering)
}

func (repo *markRepository) UpdateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	if err := replace(ctx, repo.db, repo.coll, m.ID, m, mark.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return mark.Mark{}, err
		}
		return mark.Mark{}, errors.Wrap(err, "updating mark")
	}
	return m, nil
}

func (repo *markRepository) DeleteMark(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, repo.coll, id, mark.ErrNotFound)
}
