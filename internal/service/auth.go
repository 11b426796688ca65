package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shenikar/near_miss_mapper/internal/config"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository определяет контракт для работы с бд учетных записей
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmailOrPhone(ctx context.Context, emailOrPhone string) (*models.User, error)
}

// Token - выданный токен доступа в формате ответа /auth/login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// AuthService определяет контракт для регистрации и выдачи токенов
type AuthService interface {
	Signup(ctx context.Context, emailOrPhone, password, role string) (*models.User, error)
	Login(ctx context.Context, emailOrPhone, password string) (*Token, error)
}

type authService struct {
	repo   UserRepository
	logger *logrus.Logger
	cfg    *config.Config
}

func NewAuthService(repo UserRepository, logger *logrus.Logger, cfg *config.Config) AuthService {
	return &authService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
	}
}

// Signup регистрирует учетную запись, роль вне списка admin/user понижается до user
func (s *authService) Signup(ctx context.Context, emailOrPhone, password, role string) (*models.User, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Signup",
		"login":   emailOrPhone,
	})
	log.Info("Attempting to sign up a new user")

	if role != "admin" && role != "user" {
		role = "user"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return nil, fmt.Errorf("service: could not hash password: %w", err)
	}

	user := &models.User{
		EmailOrPhone: emailOrPhone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			log.Warn("Signup rejected, user already exists")
			return nil, ErrUserExists
		}
		log.WithError(err).Error("Failed to create user in repository")
		return nil, fmt.Errorf("service: could not create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User signed up successfully")
	return user, nil
}

// Login проверяет пароль и выдает HS256 JWT с sub/role/iat/exp
func (s *authService) Login(ctx context.Context, emailOrPhone, password string) (*Token, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Login",
		"login":   emailOrPhone,
	})
	log.Info("Attempting to log in")

	user, err := s.repo.GetByEmailOrPhone(ctx, emailOrPhone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Warn("Login rejected, unknown user")
			return nil, ErrInvalidCredentials
		}
		log.WithError(err).Error("Failed to get user from repository")
		return nil, fmt.Errorf("service: could not get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn("Login rejected, wrong password")
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.AccessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		log.WithError(err).Error("Failed to sign access token")
		return nil, fmt.Errorf("service: could not sign token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in successfully")
	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		Role:        user.Role,
	}, nil
}
