package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/models"
	"ferreteria/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService registers staff accounts and issues the tokens that guard the
// management view.
type AuthService struct {
	staffRepo     repositories.StaffRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(staffRepo repositories.StaffRepository, jwtSecret string) *AuthService {
	return &AuthService{
		staffRepo:     staffRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour,
	}
}

// Register hashes the password and stores a new staff account.
func (s *AuthService) Register(ctx context.Context, staff *models.Staff) error {
	if existing, err := s.staffRepo.GetByUsername(ctx, staff.Username); err == nil && existing != nil {
		return fmt.Errorf("username '%s' already taken: %w", staff.Username, ErrAccountExists)
	}
	if existing, err := s.staffRepo.GetByEmail(ctx, staff.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered: %w", staff.Email, ErrAccountExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(staff.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	staff.Password = string(hashedPassword)

	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return fmt.Errorf("failed to register staff: %w", err)
	}
	zap.L().Info("staff account registered", zap.String("username", staff.Username))
	return nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	staff, err := s.staffRepo.GetByUsername(ctx, username)
	if err != nil || staff == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"staff_id": staff.ID,
		"username": staff.Username,
		"exp":      now.Add(s.tokenDuration).Unix(),
		"iat":      now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
