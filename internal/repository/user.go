package repository

import (
	"context"
	"errors"
	"strings"

	"crm-usertool/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrUserExists is returned when an insert violates the unique user_name index.
	ErrUserExists = errors.New("user already exists")
)

// LikeEscape is the escape character used by EscapeLike.
const LikeEscape = `\`

// UserRepository defines persistence operations for CRM users.
type UserRepository interface {
	Init(ctx context.Context) error
	CountByUserNamePrefix(ctx context.Context, prefix string) (int, error)
	CountByUserName(ctx context.Context, name string) (int, error)
	Create(ctx context.Context, user *domain.User) error
	SetPassword(ctx context.Context, id, hash string, systemGenerated bool) error
	GetByUserName(ctx context.Context, name string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

var likeReplacer = strings.NewReplacer(
	LikeEscape, LikeEscape+LikeEscape,
	"%", LikeEscape+"%",
	"_", LikeEscape+"_",
)

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeReplacer.Replace(s)
}
