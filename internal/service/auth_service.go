package service

import (
	"context"
	"strings"
	"time"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/ratelimit"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

const minPasswordLength = 6

// AuthService coordinates login and credential changes.
type AuthService struct {
	users       repository.UserRepository
	limiter     ratelimit.Limiter
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	loginPerMin int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Limiter  ratelimit.Limiter
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewInMemory(time.Minute)
	}
	return &AuthService{
		users:       deps.UserRepo,
		limiter:     limiter,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		loginPerMin: cfg.RateLimit.LoginAttemptsPerMinute,
	}
}

// Login authenticates an active user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", map[string]any{"fields": []string{"email", "password"}})
	}
	if s.loginPerMin > 0 {
		if decision := s.limiter.Allow("login:"+email, s.loginPerMin); !decision.Allowed {
			return nil, apperrors.NewTooManyRequests("too many login attempts; try again later")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Me returns the caller's claims.
func (s *AuthService) Me(_ context.Context, p access.Principal) (access.Principal, error) {
	if _, err := access.Resolve(p); err != nil {
		return access.Principal{}, err
	}
	return p, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ access.Principal) error {
	return nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, p access.Principal, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return notFoundOr(err, "user", p.UserID)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", map[string]any{"fields": []string{"current_password"}})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.Update(ctx, user))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
