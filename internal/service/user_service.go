package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"crm-usertool/internal/boolflag"
	"crm-usertool/internal/domain"
	"crm-usertool/internal/repository"
)

var (
	// ErrForbidden indicates the acting identity may not create administrators.
	ErrForbidden = errors.New("actor is not an administrator")
	// ErrPasswordRequired is returned for an empty password.
	ErrPasswordRequired = errors.New("password is required")
	// ErrUnknownDuplicateMode is returned for an unsupported duplicate check mode.
	ErrUnknownDuplicateMode = errors.New("unknown duplicate mode")
)

// DuplicateMode selects how existing usernames are matched before creating a user.
type DuplicateMode string

const (
	// DuplicatePrefix treats any username starting with the requested one as a duplicate.
	DuplicatePrefix DuplicateMode = "prefix"
	// DuplicateExact only treats an identical username as a duplicate.
	DuplicateExact DuplicateMode = "exact"
)

// ParseDuplicateMode validates a configured duplicate mode.
func ParseDuplicateMode(s string) (DuplicateMode, error) {
	switch mode := DuplicateMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case DuplicatePrefix, DuplicateExact:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDuplicateMode, s)
	}
}

// CreateAdminRequest carries the raw command line arguments.
type CreateAdminRequest struct {
	UserName string
	Password string
	IsAdmin  string
}

// CreateAdminResult reports the outcome of CreateAdmin. Duplicate is set when
// the user was not created because the name is taken.
type CreateAdminResult struct {
	User      *domain.User
	Duplicate bool
}

// UserService describes user provisioning operations.
type UserService interface {
	CreateAdmin(ctx context.Context, actor domain.Actor, req CreateAdminRequest) (*CreateAdminResult, error)
}

// Options tunes the user service.
type Options struct {
	DuplicateMode DuplicateMode
	BcryptCost    int
	Logger        logrus.FieldLogger
}

type userService struct {
	users      repository.UserRepository
	mode       DuplicateMode
	bcryptCost int
	log        logrus.FieldLogger
}

// NewUserService returns a UserService backed by users. Zero Options fields
// fall back to prefix matching, bcrypt.DefaultCost and a discarding logger.
func NewUserService(users repository.UserRepository, opts Options) UserService {
	if opts.DuplicateMode == "" {
		opts.DuplicateMode = DuplicatePrefix
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		opts.Logger = discard
	}
	return &userService{
		users:      users,
		mode:       opts.DuplicateMode,
		bcryptCost: opts.BcryptCost,
		log:        opts.Logger,
	}
}

func (s *userService) CreateAdmin(ctx context.Context, actor domain.Actor, req CreateAdminRequest) (*CreateAdminResult, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, actor.Name)
	}

	username := strings.TrimSpace(req.UserName)
	if username == "" {
		return nil, domain.ErrEmptyUsername
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	log := s.log.WithFields(logrus.Fields{
		"user_name": username,
		"actor":     actor.Name,
	})

	count, err := s.nameCount(ctx, username)
	if err != nil {
		return nil, err
	}
	if count > 1 {
		log.WithField("matches", count-1).Info("user already exists")
		return &CreateAdminResult{Duplicate: true}, nil
	}

	user, err := domain.NewAdministrator(username, boolflag.ParseBool(req.IsAdmin))
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			log.Info("user already exists")
			return &CreateAdminResult{Duplicate: true}, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.users.SetPassword(ctx, user.ID, string(hash), true); err != nil {
		// a row without a password would block every later attempt as a duplicate
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			log.WithField("user_id", user.ID).Errorf("remove user after failed password set: %v", delErr)
			return nil, fmt.Errorf("set password: %w", errors.Join(err, delErr))
		}
		return nil, fmt.Errorf("set password: %w", err)
	}
	user.SystemGeneratedPassword = true

	log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
		"active":   user.Active(),
	}).Info("user created")

	return &CreateAdminResult{User: sanitizeUser(user)}, nil
}

// nameCount returns the number of matching users plus one for the candidate.
func (s *userService) nameCount(ctx context.Context, username string) (int, error) {
	var (
		matches int
		err     error
	)
	switch s.mode {
	case DuplicateExact:
		matches, err = s.users.CountByUserName(ctx, username)
	default:
		matches, err = s.users.CountByUserNamePrefix(ctx, username)
	}
	if err != nil {
		return 0, fmt.Errorf("check duplicate users: %w", err)
	}
	return matches + 1, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clone := *user
	clone.UserHash = ""
	return &clone
}
