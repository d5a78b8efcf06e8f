// Package auth issues and verifies the bearer tokens that carry the caller
// and organization into the engine. Login itself lives outside stockcore.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/security"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "stockcore",
		AccessTokenTTL: 12 * time.Hour,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"uid"`
	OrgID  string   `json:"org"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
}

// Principal is a verified caller: the user and the organization they act in.
type Principal struct {
	User  *appctx.UserContext
	OrgID id.ID
}

// JWTService handles JWT operations.
type JWTService struct {
	config     JWTConfig
	authorizer *security.Authorizer
}

// NewJWTService creates a JWT service. The authorizer decides the
// privileged flag of every validated caller.
func NewJWTService(config JWTConfig, authorizer *security.Authorizer) *JWTService {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultJWTConfig("").AccessTokenTTL
	}
	return &JWTService{config: config, authorizer: authorizer}
}

// GenerateAccessToken signs a token for userID acting in orgID.
func (s *JWTService) GenerateAccessToken(userID string, orgID id.ID, email string, roles []string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	if id.IsNil(orgID) {
		return "", time.Time{}, errors.New("organization id is required")
	}

	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		OrgID:  orgID.String(),
		Email:  email,
		Roles:  roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken verifies tokenString and resolves the caller.
func (s *JWTService) ValidateToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no uid")
	}
	orgID, err := id.Parse(claims.OrgID)
	if err != nil || id.IsNil(orgID) {
		return nil, errors.New("token has no valid org")
	}

	user := &appctx.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}
	if s.authorizer != nil {
		user.Privileged = s.authorizer.IsPrivileged(user.UserID, user.Roles)
	}
	return &Principal{User: user, OrgID: orgID}, nil
}
