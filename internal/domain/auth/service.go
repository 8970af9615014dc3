package auth

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

type jwtService interface {
	GenerateToken(userID string) (string, error)
}

// Service contains registration and login logic. It issues the bearer
// tokens that identify owners to the storage core.
type Service struct {
	users Repository
	jwt   jwtService
}

func NewService(users Repository, jwt jwtService) *Service {
	return &Service{users: users, jwt: jwt}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	userID := strings.TrimSpace(req.UserID)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !isStrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}

	if exists, err := s.users.ExistsByID(ctx, userID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserExists
	}
	if exists, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           userID,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (string, *User, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(req.UserID))
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInactiveUser
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// isStrongPassword requires at least 8 characters with an upper, a lower and
// a digit.
func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
