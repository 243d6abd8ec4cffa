package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-usertool/internal/domain"
	"crm-usertool/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository persists CRM users in PostgreSQL using GORM.
type UserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

type userRecord struct {
	ID                      string     `gorm:"primaryKey;type:char(36);column:id"`
	UserName                string     `gorm:"column:user_name;uniqueIndex;not null"`
	UserHash                string     `gorm:"column:user_hash;not null;default:''"`
	SystemGeneratedPassword bool       `gorm:"column:system_generated_password;not null;default:false"`
	PwdLastChanged          *time.Time `gorm:"column:pwd_last_changed"`
	FirstName               string     `gorm:"column:first_name"`
	LastName                string     `gorm:"column:last_name"`
	Title                   string     `gorm:"column:title"`
	Status                  string     `gorm:"column:status"`
	EmployeeStatus          string     `gorm:"column:employee_status"`
	IsAdmin                 bool       `gorm:"column:is_admin;not null;default:false"`
	Deleted                 bool       `gorm:"column:deleted;not null;default:false"`
	DateEntered             time.Time  `gorm:"column:date_entered;not null"`
	DateModified            time.Time  `gorm:"column:date_modified;not null"`
}

func (userRecord) TableName() string { return "users" }

// Init migrates the users table.
func (r *UserRepository) Init(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&userRecord{}); err != nil {
		return fmt.Errorf("migrate users table: %w", err)
	}
	return nil
}

// CountByUserNamePrefix counts live users whose name starts with prefix, ignoring case.
func (r *UserRepository) CountByUserNamePrefix(ctx context.Context, prefix string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("deleted = ? AND user_name ILIKE ? ESCAPE ?", false, repository.EscapeLike(prefix)+"%", repository.LikeEscape).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count users by prefix: %w", err)
	}
	return int(count), nil
}

// CountByUserName counts live users with exactly this name.
func (r *UserRepository) CountByUserName(ctx context.Context, name string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("deleted = ? AND user_name = ?", false, name).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count users by name: %w", err)
	}
	return int(count), nil
}

// Create inserts user, assigning its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := r.now().UTC()
	record := toRecord(user)
	record.ID = uuid.NewString()
	record.DateEntered = now
	record.DateModified = now

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert user %q: %w", user.UserName, repository.ErrUserExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = record.ID
	user.DateEntered = record.DateEntered
	user.DateModified = record.DateModified
	return nil
}

// SetPassword stores a password hash for the user with the given id.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string, systemGenerated bool) error {
	now := r.now().UTC()
	result := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{
			"user_hash":                 hash,
			"system_generated_password": systemGenerated,
			"pwd_last_changed":          now,
			"date_modified":             now,
		})
	if result.Error != nil {
		return fmt.Errorf("update user password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByUserName fetches a live user by name.
func (r *UserRepository) GetByUserName(ctx context.Context, name string) (*domain.User, error) {
	var record userRecord
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND deleted = ?", name, false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return record.toDomain(), nil
}

// Delete removes the row with the given id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:                      user.ID,
		UserName:                user.UserName,
		UserHash:                user.UserHash,
		SystemGeneratedPassword: user.SystemGeneratedPassword,
		PwdLastChanged:          user.PasswordLastChanged,
		FirstName:               user.FirstName,
		LastName:                user.LastName,
		Title:                   user.Title,
		Status:                  string(user.Status),
		EmployeeStatus:          string(user.EmployeeStatus),
		IsAdmin:                 user.IsAdmin,
		Deleted:                 user.Deleted,
		DateEntered:             user.DateEntered,
		DateModified:            user.DateModified,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:                      r.ID,
		UserName:                r.UserName,
		UserHash:                r.UserHash,
		SystemGeneratedPassword: r.SystemGeneratedPassword,
		PasswordLastChanged:     r.PwdLastChanged,
		FirstName:               r.FirstName,
		LastName:                r.LastName,
		Title:                   r.Title,
		Status:                  domain.UserStatus(r.Status),
		EmployeeStatus:          domain.EmployeeStatus(r.EmployeeStatus),
		IsAdmin:                 r.IsAdmin,
		Deleted:                 r.Deleted,
		DateEntered:             r.DateEntered,
		DateModified:            r.DateModified,
	}
}
