package services

import (
	"fmt"
	"membership-api/internal/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of a member session token
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionService issues and validates signed session tokens.
type SessionService struct {
	secretKey []byte
	duration  time.Duration
	now       func() time.Time
}

func NewSessionService(secretKey string, duration time.Duration) *SessionService {
	return &SessionService{
		secretKey: []byte(secretKey),
		duration:  duration,
		now:       time.Now,
	}
}

// TTL is how long an issued token stays valid
func (s *SessionService) TTL() time.Duration {
	return s.duration
}

func (s *SessionService) Issue(email string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", fmt.Errorf("session secret is not configured")
	}
	now := s.now()
	claims := SessionClaims{
		Email: models.NormalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   models.NormalizeEmail(email),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Validate returns the email of a valid token
func (s *SessionService) Validate(tokenString string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", fmt.Errorf("session secret is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.Email != "" {
		return claims.Email, nil
	}
	return "", fmt.Errorf("invalid token")
}
