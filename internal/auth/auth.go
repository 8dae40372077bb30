package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campfire-hq/campfire/internal/model"
	"github.com/campfire-hq/campfire/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrInvalidInput       = errors.New("invalid input")
)

type Service struct {
	store          store.Store
	secret         []byte
	tokenTTL       time.Duration
	bcryptCost     int
	minPasswordLen int
}

func NewService(store store.Store, secret string, tokenTTL time.Duration, bcryptCost, minPasswordLen int) *Service {
	return &Service{
		store:          store,
		secret:         []byte(secret),
		tokenTTL:       tokenTTL,
		bcryptCost:     bcryptCost,
		minPasswordLen: minPasswordLen,
	}
}

type Registration struct {
	Username  string
	Email     string
	Password  string
	Name      string
	Surname   string
	Birthdate string
	Gender    string
	AvatarURL string
}

// Register creates a user and returns it together with a freshly issued
// bearer token.
func (s *Service) Register(ctx context.Context, reg Registration) (model.User, string, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" {
		return model.User{}, "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(reg.Password) < s.minPasswordLen {
		return model.User{}, "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, "", err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(reg.Email),
		PasswordHash: string(hash),
		Name:         reg.Name,
		Surname:      reg.Surname,
		Birthdate:    reg.Birthdate,
		Gender:       reg.Gender,
		AvatarURL:    reg.AvatarURL,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return model.User{}, "", ErrUsernameTaken
		}
		return model.User{}, "", err
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// Login verifies the credential pair and issues a token. A missing user and
// a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate resolves a bearer token to its user. Every failure mode
// (malformed, expired, bad signature, unknown subject) collapses into
// ErrUnauthorized so callers cannot distinguish them.
func (s *Service) Authenticate(ctx context.Context, bearer string) (model.User, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(bearer, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return model.User{}, ErrUnauthorized
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrUnauthorized
		}
		return model.User{}, err
	}
	return user, nil
}
