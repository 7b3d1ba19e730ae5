package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"FINTRACK_BACK-END/internal/apperror"
	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/logger"
	"FINTRACK_BACK-END/internal/middleware"
	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/store"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegisterInput is a sign-up request
type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// AuthResult is a user with a freshly issued access token
type AuthResult struct {
	User  *models.User
	Token string
}

// AuthService registers and authenticates users
type AuthService struct {
	users      store.UserStore
	jwt        *config.JWTConfig
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// NewAuthService wires an AuthService
func NewAuthService(users store.UserStore, jwtCfg *config.JWTConfig, l *slog.Logger) *AuthService {
	if l == nil {
		l = slog.Default()
	}
	return &AuthService{
		users:      users,
		jwt:        jwtCfg,
		logger:     logger.WithComponent(l, logger.ComponentAuth),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates an account and signs the user in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperror.Validation("email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.Validation("invalid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    trimmedOrNil(in.FirstName),
		LastName:     trimmedOrNil(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal(fmt.Errorf("create user: %w", err))
	}

	s.logger.InfoContext(ctx, "user registered", logger.FieldUserID, u.ID)
	return s.issue(u)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, apperror.Internal(fmt.Errorf("find user: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	return s.issue(u)
}

// Profile returns the account of userID
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(fmt.Errorf("find user: %w", err))
	}
	return u, nil
}

// LoginWithGoogle signs in the account matching a verified Google email,
// creating it on first use
func (s *AuthService) LoginWithGoogle(ctx context.Context, email string, firstName, lastName *string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, apperror.Validation("google account has no usable email")
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err == nil {
		return s.issue(u)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(fmt.Errorf("find user: %w", err))
	}

	// the account can only be reached through Google until a password is set
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}
	now := s.now().UTC()
	u = &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    trimmedOrNil(firstName),
		LastName:     trimmedOrNil(lastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Internal(fmt.Errorf("create user: %w", err))
		}
		// lost a race with a concurrent first login
		if u, err = s.users.UserByEmail(ctx, email); err != nil {
			return nil, apperror.Internal(fmt.Errorf("find user: %w", err))
		}
		return s.issue(u)
	}

	s.logger.InfoContext(ctx, "user registered via google", logger.FieldUserID, u.ID)
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	token, err := middleware.GenerateToken(u.ID, u.Email, s.jwt)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("generate token: %w", err))
	}
	return &AuthResult{User: u, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
