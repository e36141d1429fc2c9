package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	pasetotoken "github.com/Alijeyrad/clinicflow_backend/pkg/paseto"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/password"
)

const (
	maxLoginAttempts = 5
	accountLockMins  = 15
)

func redisKeySession(sessionID string) string { return "session:" + sessionID }

func redisKeyLoginFailures(email string) string { return "login:failures:" + email }

func redisKeyLoginLock(email string) string { return "login:lock:" + email }

type UserStore interface {
	Create(ctx context.Context, u *repo.User) error
	CreateProfile(ctx context.Context, p *repo.Profile) error
	GetByEmail(ctx context.Context, email string) (*repo.User, error)
	Get(ctx context.Context, id uuid.UUID) (*repo.UserWithProfile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expires
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*repo.UserWithProfile, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*repo.UserWithProfile, error)

	// Authenticate verifies an access token and that its session is live.
	Authenticate(ctx context.Context, accessToken string) (*pasetotoken.Claims, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// Config tunes the login lockout. Zero values fall back to 5 attempts
// and 15 minutes.
type Config struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

func FromCentralConfig(c config.LoginLockoutConfig) Config {
	return Config{
		MaxLoginAttempts: c.MaxAttempts,
		LockDuration:     time.Duration(c.LockMinutes) * time.Minute,
	}
}

type authService struct {
	users  UserStore
	rdb    *redis.Client
	paseto *pasetotoken.Manager
	hasher *password.Hasher

	maxAttempts int
	lockFor     time.Duration
}

func New(users UserStore, rdb *redis.Client, paseto *pasetotoken.Manager, hasher *password.Hasher, cfg Config) Service {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = maxLoginAttempts
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = accountLockMins * time.Minute
	}
	return &authService{
		users:       users,
		rdb:         rdb,
		paseto:      paseto,
		hasher:      hasher,
		maxAttempts: cfg.MaxLoginAttempts,
		lockFor:     cfg.LockDuration,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*repo.UserWithProfile, error) {
	email, err := ParseEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.CheckLength(req.Password); err != nil {
		return nil, ErrPasswordTooShort
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &repo.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Store("create user", err)
	}

	profile := &repo.Profile{UserID: u.ID, FullName: fullName}
	if err := s.users.CreateProfile(ctx, profile); err != nil {
		if derr := s.users.Delete(ctx, u.ID); derr != nil {
			slog.ErrorContext(ctx, "auth: orphaned user left behind", "user_id", u.ID, "err", derr)
			return nil, apperr.Store("create profile", errors.Join(err, derr))
		}
		return nil, apperr.Store("create profile", err)
	}

	slog.InfoContext(ctx, "auth: user registered", "user_id", u.ID)
	return &repo.UserWithProfile{User: *u, Profile: profile}, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	email := repo.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	locked, err := s.rdb.Exists(ctx, redisKeyLoginLock(email)).Result()
	if err != nil {
		return nil, apperr.Store("check login lock", err)
	}
	if locked > 0 {
		return nil, ErrAccountLocked
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.recordFailedLogin(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Store("find user", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}

	s.rdb.Del(ctx, redisKeyLoginFailures(email))
	return s.createSession(ctx, u.ID)
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.VerifyType(strings.TrimSpace(refreshToken), pasetotoken.TokenTypeRefresh)
	if err != nil || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redisKeySession(claims.SessionID.String())
	if err := s.rdb.Get(ctx, sessionKey).Err(); errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, apperr.Store("get session", err)
	}

	s.rdb.Expire(ctx, sessionKey, s.paseto.RefreshTTL())

	// The refresh token stays the same until logout.
	access, err := s.paseto.IssueAccess(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return apperr.Store("delete session", err)
	}
	if deleted == 0 {
		slog.DebugContext(ctx, "auth: logout for expired session", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Me / Authenticate
// ---------------------------------------------------------------------------

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*repo.UserWithProfile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Store("get user", err)
	}
	return u, nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*pasetotoken.Claims, error) {
	claims, err := s.paseto.VerifyType(accessToken, pasetotoken.TokenTypeAccess)
	if err != nil || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	if err := s.rdb.Get(ctx, redisKeySession(claims.SessionID.String())).Err(); errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, apperr.Store("get session", err)
	}
	return claims, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// ParseEmail validates a bare address and returns it normalized.
func ParseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	return repo.NormalizeEmail(addr.Address), nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	if err := s.rdb.Set(ctx, redisKeySession(sessionID.String()), userID.String(), s.paseto.RefreshTTL()).Err(); err != nil {
		return nil, apperr.Store("store session", err)
	}

	access, err := s.paseto.IssueAccess(userID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(userID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

// recordFailedLogin counts failures per email inside the lock window and
// locks the email once the limit is reached.
func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	window := s.lockFor
	key := redisKeyLoginFailures(email)

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.WarnContext(ctx, "auth: failed to count login failure", "err", err)
		return
	}
	if n == 1 {
		s.rdb.Expire(ctx, key, window)
	}
	if n >= int64(s.maxAttempts) {
		s.rdb.Set(ctx, redisKeyLoginLock(email), "1", window)
		s.rdb.Del(ctx, key)
		slog.WarnContext(ctx, "auth: login locked after repeated failures")
	}
}
