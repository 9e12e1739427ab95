package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email already registered")
)

// AuthService мок-аутентификация витрины: вход с неизвестным email
// автоматически регистрирует пользователя, сессией служит JWT.
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
}

func NewAuthService(users repository.UserRepository, secret []byte, log *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: secret,
		ttl:    72 * time.Hour,
		log:    log,
	}
}

// SeedDemoUser заводит demo@example.com, если его ещё нет
func (s *AuthService) SeedDemoUser(ctx context.Context) error {
	if _, err := s.users.GetByEmail(ctx, "demo@example.com"); err == nil {
		return nil
	}
	_, _, err := s.Register(ctx, "Demo User", "demo@example.com", "password")
	return err
}

// Register создаёт пользователя и выдаёт токен
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u := domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	token, err := s.token(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// Login проверяет пароль известного пользователя; неизвестный email
// регистрируется на лету с именем из локальной части адреса.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", ErrInvalidInput
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			name := email
			if i := strings.IndexByte(email, '@'); i > 0 {
				name = email[:i]
			}
			return s.Register(ctx, name, email, password)
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrUnauthorized
	}
	token, err := s.token(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile меняет имя и телефон
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, phone string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return nil, ErrInvalidInput
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Name = name
	u.Phone = phone
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) token(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken валидирует JWT и возвращает id пользователя
func (s *AuthService) ParseToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrUnauthorized
	}
	return sub, nil
}
