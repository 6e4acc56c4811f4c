package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var userColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"roll_no":    "roll_no",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID                   string         `db:"id"`
	Name                 string         `db:"name"`
	Email                string         `db:"email"`
	PasswordHash         []byte         `db:"password_hash"`
	Role                 string         `db:"role"`
	Department           string         `db:"department"`
	StudentClass         string         `db:"student_class"`
	Batch                string         `db:"batch"`
	RollNo               string         `db:"roll_no"`
	DOB                  string         `db:"dob"`
	IDCardNumber         sql.NullString `db:"id_card_number"`
	PasswordResetToken   string         `db:"password_reset_token"`
	PasswordResetExpires sql.NullTime   `db:"password_reset_expires"`
	LastLogin            sql.NullTime   `db:"last_login"`
	IsActive             bool           `db:"is_active"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:                   usr.ID,
		Name:                 usr.Name,
		Email:                usr.Email,
		PasswordHash:         usr.PasswordHash,
		Role:                 usr.Role,
		Department:           usr.Department,
		StudentClass:         usr.StudentClass,
		Batch:                usr.Batch,
		RollNo:               usr.RollNo,
		DOB:                  usr.DOB,
		IDCardNumber:         sql.NullString{String: usr.IDCardNumber, Valid: usr.IDCardNumber != ""},
		PasswordResetToken:   usr.PasswordResetToken,
		PasswordResetExpires: nullTime(usr.PasswordResetExpires),
		LastLogin:            nullTime(usr.LastLogin),
		IsActive:             usr.IsActive,
		CreatedAt:            usr.CreatedAt,
		UpdatedAt:            usr.UpdatedAt,
	}
}

func (row userRow) user() user.User {
	return user.User{
		ID:                   row.ID,
		Name:                 row.Name,
		Email:                row.Email,
		PasswordHash:         row.PasswordHash,
		Role:                 row.Role,
		Department:           row.Department,
		StudentClass:         row.StudentClass,
		Batch:                row.Batch,
		RollNo:               row.RollNo,
		DOB:                  row.DOB,
		IDCardNumber:         row.IDCardNumber.String,
		PasswordResetToken:   row.PasswordResetToken,
		PasswordResetExpires: fromNullTime(row.PasswordResetExpires),
		LastLogin:            fromNullTime(row.LastLogin),
		IsActive:             row.IsActive,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func userWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "user_email_key"):
		return user.ErrEmailExists
	case isUniqueViolation(err, "user_id_card_number_key"):
		return user.ErrIDCardExists
	}
	return errors.Wrap(err, "writing user")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `INSERT INTO "user" (
		id, name, email, password_hash, role, department, student_class, batch, roll_no, dob, id_card_number,
		password_reset_token, password_reset_expires, last_login, is_active, created_at, updated_at
	) VALUES (
		:id, :name, :email, :password_hash, :role, :department, :student_class, :batch, :roll_no, :dob, :id_card_number,
		:password_reset_token, :password_reset_expires, :last_login, :is_active, :created_at, :updated_at
	)`
	if _, err := repo.db.db.NamedExecContext(ctx, q, newUserRow(usr)); err != nil {
		return user.User{}, userWriteError(err)
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.Email != "" {
		w.add("email = ?", filter.Email)
	}
	if filter.ResetToken != "" {
		w.add("password_reset_token = ?", filter.ResetToken)
	}
	if len(w.conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var row userRow
	q := w.query(repo.db.db, `SELECT * FROM "user"`, userColumns, nil) + " LIMIT 1"
	if err := repo.db.db.GetContext(ctx, &row, q, w.args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func userWhere(qf *user.QueryFilter) where {
	var w where
	if qf == nil {
		return w
	}
	if qf.Search != "" {
		pattern := contains(qf.Search)
		w.add("(name ILIKE ? OR email ILIKE ? OR roll_no ILIKE ?)", pattern, pattern, pattern)
	}
	if len(qf.Roles) > 0 {
		w.add("role = ANY(?)", pq.StringArray(qf.Roles))
	}
	if qf.StudentClass != "" {
		w.add("student_class = ?", qf.StudentClass)
	}
	if qf.Batch != "" {
		w.add("batch = ?", qf.Batch)
	}
	if qf.Department != "" {
		w.add("department = ?", qf.Department)
	}
	if qf.IsActive != nil {
		w.add("is_active = ?", *qf.IsActive)
	}
	return w
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	w := userWhere(filter)

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []userRow
	if err := repo.db.db.SelectContext(ctx, &rows, w.query(repo.db.db, `SELECT * FROM "user"`, userColumns, ordering), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `UPDATE "user" SET
		name = :name, email = :email, password_hash = :password_hash, role = :role, department = :department,
		student_class = :student_class, batch = :batch, roll_no = :roll_no, dob = :dob, id_card_number = :id_card_number,
		password_reset_token = :password_reset_token, password_reset_expires = :password_reset_expires,
		last_login = :last_login, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	if err := namedExec(ctx, repo.db.db, q, newUserRow(usr), user.ErrNotFound); err != nil {
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

	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete")
	}
	if _, err = repo.db.db.ExecContext(ctx, repo.db.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
