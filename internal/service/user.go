package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
)

// UserService handles registration, login and session resolution.
type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	cache    internalRedis.UserCacheInterface
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	cache internalRedis.UserCacheInterface,
	logger logrus.FieldLogger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		cache:    cache,
		logger:   logger.WithField("service", "user"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// AuthResult is a freshly issued session.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *domain.User
}

// Register creates a passenger account and signs it in.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(uuid.New().String(), email, hash, name, strings.TrimSpace(req.Phone), s.now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return s.issue(user)
}

// Login verifies credentials and signs the user in.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.WithField("user_id", user.ID).Warn("login rejected")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *UserService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// FindByEmail looks a user up by exact email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

// FindByID looks a user up by id.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Resolve turns a bearer token into the live user it was issued to.
func (s *UserService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, userID)
		if err != nil {
			s.logger.WithError(err).Warn("user cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if s.cache != nil {
		if _, err := s.cache.FillUser(ctx, user); err != nil {
			s.logger.WithError(err).Warn("user cache write failed")
		}
	}
	return user, nil
}

// ToggleRole flips the rider flag of userID and returns the stored result.
func (s *UserService) ToggleRole(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ToggleRole(s.now())
	if err := s.userRepo.UpdateRoles(ctx, user.ID, user.IsRider, user.IsPassenger, user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}

	// Resolve only fills empty entries, so a stale read cannot replace this copy.
	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("user cache refresh failed")
			if err := s.cache.InvalidateUser(ctx, user.ID); err != nil {
				s.logger.WithError(err).WithField("user_id", user.ID).Warn("user cache invalidation failed")
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"is_rider":     user.IsRider,
		"is_passenger": user.IsPassenger,
	}).Info("user role toggled")
	return user, nil
}
