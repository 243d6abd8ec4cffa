package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-usertool/internal/domain"
	"crm-usertool/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id CHAR(36) PRIMARY KEY,
	user_name TEXT NOT NULL UNIQUE,
	user_hash TEXT NOT NULL DEFAULT '',
	system_generated_password INTEGER NOT NULL DEFAULT 0,
	pwd_last_changed DATETIME NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	employee_status TEXT NOT NULL DEFAULT '',
	is_admin INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	date_entered DATETIME NOT NULL,
	date_modified DATETIME NOT NULL
);
`

const selectUserColumns = `
SELECT id, user_name, user_hash, system_generated_password, pwd_last_changed,
	first_name, last_name, title, status, employee_status, is_admin, deleted,
	date_entered, date_modified
FROM users`

// UserRepository stores CRM users in a sqlite users table.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository wraps an open sqlite handle. Call Init before use.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) CountByUserNamePrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT count(id) FROM users
WHERE deleted = 0 AND user_name LIKE ? ESCAPE '\'`,
		repository.EscapeLike(prefix)+"%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users by prefix: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountByUserName(ctx context.Context, name string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT count(id) FROM users
WHERE deleted = 0 AND user_name = ?`,
		name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users by name: %w", err)
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.DateEntered = now
	user.DateModified = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (
	id, user_name, user_hash, system_generated_password, pwd_last_changed,
	first_name, last_name, title, status, employee_status, is_admin, deleted,
	date_entered, date_modified
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.UserName,
		user.UserHash,
		user.SystemGeneratedPassword,
		nullTime(user.PasswordLastChanged),
		user.FirstName,
		user.LastName,
		user.Title,
		string(user.Status),
		string(user.EmployeeStatus),
		user.IsAdmin,
		user.Deleted,
		user.DateEntered,
		user.DateModified,
	)
	if err != nil {
		user.ID = ""
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("insert user %q: %w", user.UserName, repository.ErrUserExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hash string, systemGenerated bool) error {
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET user_hash = ?, system_generated_password = ?, pwd_last_changed = ?, date_modified = ?
WHERE id = ? AND deleted = 0`,
		hash,
		systemGenerated,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user password rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, name string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+`
WHERE user_name = ? AND deleted = 0`,
		name,
	)
	return scanUser(row)
}

// Delete removes the row with the given id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user           domain.User
		status         string
		employeeStatus string
		pwdChanged     sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.UserHash,
		&user.SystemGeneratedPassword,
		&pwdChanged,
		&user.FirstName,
		&user.LastName,
		&user.Title,
		&status,
		&employeeStatus,
		&user.IsAdmin,
		&user.Deleted,
		&user.DateEntered,
		&user.DateModified,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Status = domain.UserStatus(status)
	user.EmployeeStatus = domain.EmployeeStatus(employeeStatus)
	if pwdChanged.Valid {
		t := pwdChanged.Time
		user.PasswordLastChanged = &t
	}
	return &user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
