package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// RoleAdmin is the only role the storefront issues tokens for
	RoleAdmin = "admin"

	defaultTokenExpiration = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService checks the admin credentials and issues access tokens
type AuthService interface {
	Login(ctx context.Context, username, password string) (*Token, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims. The subject is the admin username.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed access token and its expiry
type Token struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AdminCredentials is the single configured administrator account
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type authService struct {
	admin      AdminCredentials
	jwtSecret  string
	expiration time.Duration
}

// NewAuthService creates a new instance of AuthService. An empty password
// hash disables login entirely.
func NewAuthService(admin AdminCredentials, jwtSecret string, expiration time.Duration) AuthService {
	if expiration <= 0 {
		expiration = defaultTokenExpiration
	}
	return &authService{
		admin:      admin,
		jwtSecret:  jwtSecret,
		expiration: expiration,
	}
}

// Login compares the credentials with the configured admin account and
// returns a signed access token with the admin role
func (s *authService) Login(ctx context.Context, username, password string) (*Token, error) {
	if s.admin.PasswordHash == "" || s.jwtSecret == "" {
		return nil, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *authService) generateAccessToken(username string) (*Token, error) {
	now := time.Now()
	expirationTime := now.Add(s.expiration)
	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &Token{AccessToken: tokenString, ExpiresAt: expirationTime}, nil
}
