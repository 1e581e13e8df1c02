package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/daily-ledger/internal/cache"
	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService handles authentication operations
type AuthService struct {
	users     *UserService
	store     *repository.Store
	audit     *AuditService
	cache     cache.IdentityCache
	jwtConfig config.JWTConfig
	now       func() time.Time
}

// NewAuthService creates a new AuthService; identities may be nil
func NewAuthService(users *UserService, store *repository.Store, audit *AuditService, identities cache.IdentityCache, jwtConfig config.JWTConfig) *AuthService {
	if identities == nil {
		identities = cache.NopIdentityCache{}
	}
	return &AuthService{
		users:     users,
		store:     store,
		audit:     audit,
		cache:     identities,
		jwtConfig: jwtConfig,
		now:       time.Now,
	}
}

// SetClock replaces the time source; used by tests
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// LoginRequest represents the login request
type LoginRequest struct {
	UserID   string `json:"userid" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// JWTClaims represents the JWT claims
type JWTClaims struct {
	ID      uint   `json:"id"`
	UserID  string `json:"userid"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Login authenticates a user, records the login and returns a token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.users.Authenticate(ctx, req.UserID, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	var entry *models.AuditLog
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		entry, err = s.audit.Record(ctx, tx, &user.ID, models.ActionLogin, map[string]interface{}{
			"userid": user.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)

	return token, nil
}

// IssueToken signs a token for user
func (s *AuthService) IssueToken(user *models.User) (*TokenResponse, error) {
	now := s.now()
	ttl := s.jwtConfig.TokenTTL()

	claims := &JWTClaims{
		ID:      user.ID,
		UserID:  user.UserID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresIn:   int(ttl / time.Second),
	}, nil
}

// ValidateToken checks signature, algorithm and expiry and returns the
// claims. Every failure is reported as ErrInvalidToken.
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.ID != 0 {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// ResolveIdentity validates a token and returns the identity of its subject
// as currently stored. A token whose user no longer exists is rejected.
func (s *AuthService) ResolveIdentity(ctx context.Context, tokenString string) (*policy.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, claims.ID); ok {
		if cached.UserID != claims.UserID {
			return nil, ErrInvalidToken
		}
		return cached, nil
	}

	user, err := s.loadUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	identity := policy.Identity{
		ID:     user.ID,
		UserID: user.UserID,
		Role:   policy.RoleFor(user.IsAdmin),
	}
	s.cache.Set(ctx, identity)

	// a hard delete that committed between the read and Set has already
	// run its invalidation, so the entry just written must be dropped here
	if _, err := s.loadUser(ctx, claims); err != nil {
		s.cache.Invalidate(ctx, identity.ID)
		return nil, err
	}
	return &identity, nil
}

func (s *AuthService) loadUser(ctx context.Context, claims *JWTClaims) (*models.User, error) {
	user, err := s.users.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	// ids may be reused after a hard delete on some stores
	if user.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return user, nil
}
