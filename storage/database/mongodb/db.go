// Package mongodb stores the campus entities in MongoDB, one collection per entity.
package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campus/core"
)

// Collections
const (
	usersColl           = "users"
	attendanceColl      = "attendance"
	marksColl           = "marks"
	busRoutesColl       = "bus_routes"
	timetablesColl      = "timetables"
	classTimetablesColl = "class_timetables"
)

// Unique index names, looked up in duplicate key errors.
const (
	idxUserEmail         = "users_email_unique"
	idxUserIDCard        = "users_id_card_number_unique"
	idxAttendanceSession = "attendance_student_subject_date_unique"
	idxMarkExam          = "marks_student_subject_exam_unique"
	idxRouteNumber       = "bus_routes_route_number_unique"
	idxClassTimetableDay = "class_timetables_class_day_unique"
)

const pingMaxAttempts = 30

type DB struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

var _ core.Store = (*DB)(nil)

// Open connects to conf.Database.URI, waits for the server and ensures the indexes exist.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().ApplyURI(conf.Database.URI).SetAppName(conf.AppName)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	db := &DB{
		client:  client,
		db:      client.Database(conf.Database.Name),
		timeout: conf.Database.QueryTimeout,
	}
	if err = db.ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func (db *DB) ping(ctx context.Context) error {
	var err error
	for attempts := 1; attempts <= pingMaxAttempts; attempts++ {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return db.client.Ping(ctx, nil)
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Drop deletes the whole database. Tests use it to clean up.
func (db *DB) Drop(ctx context.Context) error {
	return db.db.Drop(ctx)
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetUnique(true)
	}
	indexes := map[string][]mongo.IndexModel{
		usersColl: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique(idxUserEmail)},
			{
				Keys: bson.D{{Key: "id_card_number", Value: 1}},
				Options: unique(idxUserIDCard).SetPartialFilterExpression(bson.M{
					"id_card_number": bson.M{"$type": "string"},
				}),
			},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "student_class", Value: 1}}},
			{Keys: bson.D{{Key: "password_reset_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		attendanceColl: {
			{
				Keys:    bson.D{{Key: "student", Value: 1}, {Key: "subject", Value: 1}, {Key: "date", Value: 1}},
				Options: unique(idxAttendanceSession),
			},
			{Keys: bson.D{{Key: "class", Value: 1}, {Key: "date", Value: -1}}},
		},
		marksColl: {
			{
				Keys:    bson.D{{Key: "student", Value: 1}, {Key: "subject", Value: 1}, {Key: "exam", Value: 1}},
				Options: unique(idxMarkExam),
			},
		},
		busRoutesColl: {
			{Keys: bson.D{{Key: "route_number", Value: 1}}, Options: unique(idxRouteNumber)},
			{Keys: bson.D{{Key: "assigned_students", Value: 1}}},
		},
		timetablesColl: {
			{Keys: bson.D{{Key: "slots.faculty", Value: 1}}},
			{Keys: bson.D{{Key: "slots.class", Value: 1}}},
		},
		classTimetablesColl: {
			{Keys: bson.D{{Key: "class", Value: 1}, {Key: "day", Value: 1}}, Options: unique(idxClassTimetableDay)},
		},
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	for coll, models := range indexes {
		if _, err := db.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return core.WithTimeout(ctx, db.timeout)
}

// isDuplicateKey reports whether err was caused by the named unique index.
func isDuplicateKey(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}

// search matches s anywhere in the field, ignoring case.
func search(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// sortDoc turns ordering into a sort document, with _id as the last key so that pages are stable.
func sortDoc(ordering []core.DBOrdering) bson.D {
	doc := make(bson.D, 0, len(ordering)+1)
	for _, ord := range ordering {
		dir := -1
		if ord.Ascending {
			dir = 1
		}
		doc = append(doc, bson.E{Key: ord.Field, Value: dir})
	}
	return append(doc, bson.E{Key: "_id", Value: 1})
}

// find decodes every document of coll matching filter.
func find[T any](ctx context.Context, db *DB, coll *mongo.Collection, filter bson.M, ordering []core.DBOrdering) ([]T, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sortDoc(ordering)))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", coll.Name())
	}
	rows := make([]T, 0)
	if err = cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", coll.Name())
	}
	return rows, nil
}

// findOne decodes the first document of coll matching filter, or returns notFound.
func findOne[T any](ctx context.Context, db *DB, coll *mongo.Collection, filter bson.M, notFound error) (T, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var row T
	if err := coll.FindOne(ctx, filter).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return row, notFound
		}
		return row, errors.Wrapf(err, "getting from %s", coll.Name())
	}
	return row, nil
}

// replace overwrites the document with the given id, or returns notFound.
func replace(ctx context.Context, db *DB, coll *mongo.Collection, id string, doc interface{}, notFound error) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func deleteByID(ctx context.Context, db *DB, coll *mongo.Collection, id string, notFound error) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", coll.Name())
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
