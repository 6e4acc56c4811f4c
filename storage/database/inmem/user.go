package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var userFields = comparer[user.User]{
	"name":       func(a, b user.User) int { return compareFold(a.Name, b.Name) },
	"email":      func(a, b user.User) int { return compareFold(a.Email, b.Email) },
	"role":       func(a, b user.User) int { return compareFold(a.Role, b.Role) },
	"roll_no":    func(a, b user.User) int { return compareFold(a.RollNo, b.RollNo) },
	"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"last_login": func(a, b user.User) int { return a.LastLogin.Compare(b.LastLogin) },
}

type userRepository struct {
	db *table[user.User]
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// checkUniqueness must be called with the write lock held.
func (repo *userRepository) checkUniqueness(usr user.User) error {
	for _, u := range repo.db.t {
		if u.ID == usr.ID {
			continue
		}
		if u.Email == usr.Email {
			return user.ErrEmailExists
		}
		if usr.IDCardNumber != "" && u.IDCardNumber == usr.IDCardNumber {
			return user.ErrIDCardExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	if _, ok := repo.db.t[usr.ID]; ok {
		return user.User{}, core.NewConflictError("duplicate user ID")
	}
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		usr, ok := repo.db.t[filter.ID]
		if !ok || (filter.Email != "" && usr.Email != filter.Email) ||
			(filter.ResetToken != "" && usr.PasswordResetToken != filter.ResetToken) {
			return user.User{}, user.ErrNotFound
		}
		return *usr, nil
	}
	if filter.Email == "" && filter.ResetToken == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.t {
		if (filter.Email == "" || usr.Email == filter.Email) &&
			(filter.ResetToken == "" || usr.PasswordResetToken == filter.ResetToken) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.db.rows(filter.Match)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sortRows(users, userFields, func(u user.User) string { return u.ID }, ordering)
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsers(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.t, id)
	}
	return nil
}
