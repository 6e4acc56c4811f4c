package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

type userRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db, coll: db.collection(usersColl)}
}

func userWriteError(err error) error {
	switch {
	case isDuplicateKey(err, idxUserEmail):
		return user.ErrEmailExists
	case isDuplicateKey(err, idxUserIDCard):
		return user.ErrIDCardExists
	}
	return errors.Wrap(err, "writing user")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, usr); err != nil {
		return user.User{}, userWriteError(err)
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	doc := bson.M{}
	if filter.ID != "" {
		doc["_id"] = filter.ID
	}
	if filter.Email != "" {
		doc["email"] = filter.Email
	}
	if filter.ResetToken != "" {
		doc["password_reset_token"] = filter.ResetToken
	}
	if len(doc) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return findOne[user.User](ctx, repo.db, repo.coll, doc, user.ErrNotFound)
}

func userFilter(qf *user.QueryFilter) bson.M {
	doc := bson.M{}
	if qf == nil {
		return doc
	}
	if qf.Search != "" {
		re := search(qf.Search)
		doc["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}, bson.M{"roll_no": re}}
	}
	if len(qf.Roles) > 0 {
		doc["role"] = bson.M{"$in": qf.Roles}
	}
	if qf.StudentClass != "" {
		doc["student_class"] = qf.StudentClass
	}
	if qf.Batch != "" {
		doc["batch"] = qf.Batch
	}
	if qf.Department != "" {
		doc["department"] = qf.Department
	}
	if qf.IsActive != nil {
		doc["is_active"] = *qf.IsActive
	}
	return doc
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	return find[user.User](ctx, repo.db, repo.coll, userFilter(filter), ordering)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := replace(ctx, repo.db, repo.coll, usr.ID, usr, user.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return user.User{}, err
		}
		return user.User{}, userWriteError(err)
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsers(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
