package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/redmonkez12/go-todo-api/internal/logging"
	"github.com/redmonkez12/go-todo-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

const minPasswordLength = 6

// Service handles signup, login and token resolution
type Service struct {
	userRepo      user.Repository
	tokenService  TokenService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(
	userRepo user.Repository,
	tokenService TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:      userRepo,
		tokenService:  tokenService,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// Signup validates the credentials, stores the user with a hashed password
// and returns it together with its first auth token. Nothing is stored when
// validation fails.
func (s *Service) Signup(ctx context.Context, email, password string) (*user.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	if password == "" {
		return nil, "", ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &user.User{
		ID:           user.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
	}

	token, err := s.tokenService.CreateToken(newUser.ID, user.AccessAuth, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}
	newUser.Tokens = []user.Token{{Access: user.AccessAuth, Token: token}}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, token, nil
}

// Login checks the credentials and appends a new auth token to the user
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existingUser.PasswordHash, password) {
		s.logger.Debug("login rejected: password mismatch", "user_id", existingUser.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existingUser.ID, user.AccessAuth, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	newToken := user.Token{Access: user.AccessAuth, Token: token}
	if err := s.userRepo.PushToken(ctx, existingUser.ID, newToken); err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}
	existingUser.Tokens = append(existingUser.Tokens, newToken)

	return existingUser, token, nil
}

// Authenticate verifies token and returns the user still holding it.
// Tokens that were revoked or belong to no user yield ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.tokenService.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByToken(ctx, claims.UserID, claims.Access, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}

	return u, nil
}

// Logout revokes token for userID
func (s *Service) Logout(ctx context.Context, userID, token string) error {
	if err := s.userRepo.PullToken(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(email) > 254 {
		return "", ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}
