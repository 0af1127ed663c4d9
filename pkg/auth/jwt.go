package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rentio/pkg/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrWrongTokenUse = errors.New("token used for wrong purpose")
)

// Claims is the payload carried in both access and refresh tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the JWT pair used by the cookie session.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// IssuePair creates a fresh access+refresh token pair for a user.
func (m *TokenManager) IssuePair(user *model.User) (*TokenPair, error) {
	now := time.Now()
	accessExpires := now.Add(m.accessTTL)
	refreshExpires := now.Add(m.refreshTTL)

	access, err := m.sign(user, TokenTypeAccess, now, accessExpires)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(user, TokenTypeRefresh, now, refreshExpires)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExpires,
		RefreshToken:   refresh,
		RefreshExpires: refreshExpires,
	}, nil
}

func (m *TokenManager) sign(user *model.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token and checks its signature, expiry and intended use.
func (m *TokenManager) Validate(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenUse
	}

	return claims, nil
}
