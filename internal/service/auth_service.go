package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims extends JWT standard claims with app-specific fields.
// Subject carries the user ID as a hex ObjectID.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType  `json:"token_type"`
	Role      model.Role `json:"role"`
	Email     string     `json:"email"`
}

// Principal converts the claims into the authorization subject.
func (c *Claims) Principal() (policy.Subject, error) {
	id, err := bson.ObjectIDFromHex(c.RegisteredClaims.Subject)
	if err != nil {
		return policy.Subject{}, ErrTokenInvalid
	}
	return policy.Subject{ID: id, Email: c.Email, Role: c.Role}, nil
}

// AuthService handles password hashing, JWT issuance and validation, and login.
type AuthService struct {
	cfg     *config.Config
	users   UserStore
	tokens  RefreshTokenStore
	limiter LoginLimiter
	now     func() time.Time
	log     zerolog.Logger
}

// NewAuthService creates a new AuthService. limiter may be nil to disable lockout.
func NewAuthService(cfg *config.Config, users UserStore, tokens RefreshTokenStore, limiter LoginLimiter, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:     cfg,
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		now:     time.Now,
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueAccessToken signs a short-lived access token for u.
func (s *AuthService) IssueAccessToken(u *model.User, ttl time.Duration) (string, error) {
	return s.sign(u, TokenTypeAccess, ttl, s.cfg.JWTSecret)
}

// IssueRefreshToken signs a refresh token for u and records it server-side.
func (s *AuthService) IssueRefreshToken(ctx context.Context, u *model.User, ttl time.Duration) (string, error) {
	signed, err := s.sign(u, TokenTypeRefresh, ttl, s.cfg.JWTRefreshSecret)
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := &model.RefreshToken{
		Token:     signed,
		UserID:    u.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) sign(u *model.User, typ TokenType, ttl time.Duration, secret string) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
		Role:      u.Role,
		Email:     u.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates an access token, returning its claims.
// Errors are ErrTokenExpired or ErrTokenInvalid.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims, err := s.parse(tokenStr, s.cfg.JWTSecret, TokenTypeAccess)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) parse(tokenStr, secret string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want || claims.RegisteredClaims.Subject == "" || !claims.Role.Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := bson.ObjectIDFromHex(claims.RegisteredClaims.Subject); err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Authenticate resolves identifier (username or email) and checks password.
// Unknown users, wrong passwords and disabled accounts are indistinguishable.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !s.accepts(u, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// resolve looks up a username or email. An unknown identifier yields a nil user.
func (s *AuthService) resolve(ctx context.Context, identifier string) (*model.User, error) {
	u, err := s.users.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *AuthService) accepts(u *model.User, password string) bool {
	return u != nil && s.VerifyPassword(password, u.PasswordHash) && u.IsActive
}

// lockoutKey counts failures per account, so the username and email of one user share a counter.
func lockoutKey(u *model.User, identifier string) string {
	if u != nil {
		return "user:" + u.ID.Hex()
	}
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Login authenticates and issues an access and refresh token pair.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.resolve(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}
	key := lockoutKey(u, req.Identifier)

	if s.limiter != nil {
		locked, err := s.limiter.Locked(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("Login limiter unavailable")
		}
		if locked {
			return nil, ErrAccountLocked
		}
	}

	if !s.accepts(u, req.Password) {
		if s.limiter != nil {
			if lerr := s.limiter.RecordFailure(ctx, key); lerr != nil {
				s.log.Warn().Err(lerr).Msg("Failed to record login failure")
			}
		}
		return nil, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("Failed to reset login failures")
		}
	}

	access, err := s.IssueAccessToken(u, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(ctx, u, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID.Hex()).Str("role", string(u.Role)).Msg("User logged in")

	return &model.LoginResponse{
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenType:      "Bearer",
		ExpiresIn:      int64(s.cfg.AccessTokenTTL.Seconds()),
		Role:           u.Role,
		ID:             u.ID.Hex(),
		ProfilePicture: u.ProfilePicture,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token stays usable until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.RefreshResponse, error) {
	claims, err := s.parse(refreshToken, s.cfg.JWTRefreshSecret, TokenTypeRefresh)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrRefreshExpired
	}
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	rec, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec.Expired(s.now()) {
		return nil, ErrRefreshExpired
	}

	sub, err := claims.Principal()
	if err != nil || sub.ID != rec.UserID {
		return nil, ErrRefreshInvalid
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrRefreshInvalid
	}

	access, err := s.IssueAccessToken(u, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	return &model.RefreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
		Role:        u.Role,
	}, nil
}
