package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsim/papertrade/internal/db"
	"github.com/finsim/papertrade/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// ErrValidation marks user-correctable registration input errors so the
// request boundary can render them inline instead of as a server failure.
var ErrValidation = errors.New("validation failed")

// AuthService handles user registration and authentication
type AuthService struct {
	DB           *db.DB
	Secret       []byte
	StartingCash decimal.Decimal
}

// NewAuthService creates a new auth service
func NewAuthService(database *db.DB, secret string, startingCash decimal.Decimal) *AuthService {
	return &AuthService{DB: database, Secret: []byte(secret), StartingCash: startingCash}
}

// Register creates a new user with a hashed password and the starting
// cash balance. Confirmation must match the password.
func (s *AuthService) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	// Validate input
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", ErrValidation)
	}
	if len(username) > 50 {
		return nil, fmt.Errorf("%w: username too long (max 50 characters)", ErrValidation)
	}
	if len(password) > 100 {
		return nil, fmt.Errorf("%w: password too long (max 100 characters)", ErrValidation)
	}
	if confirmation != password {
		return nil, fmt.Errorf("%w: confirmation must match password", ErrValidation)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Create user in database
	user, err := s.DB.CreateUser(ctx, username, string(hashedPassword), s.StartingCash)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	// Get user from database
	user, err := s.DB.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", err
	}

	// Generate JWT
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(s.Secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetUserFromToken extracts user ID from JWT
func (s *AuthService) GetUserFromToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, fmt.Errorf("token missing user_id claim")
		}
		return int(userID), nil
	}
	return 0, fmt.Errorf("invalid token")
}
