package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/ratelimit"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(key string, limit int) ratelimit.Decision {
	args := m.Called(key, limit)
	return args.Get(0).(ratelimit.Decision)
}

func newAuthService(env *testEnv, limiter ratelimit.Limiter) *AuthService {
	cfg := config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
		RateLimit: config.RateLimitConfig{LoginAttemptsPerMinute: 5},
	}
	return NewAuthService(cfg, AuthDependencies{UserRepo: env.users, Limiter: limiter})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	manager := env.addUser(t, "lidiane", domain.RoleRegionalManager, "Balneario_Camboriu", "Balneario_Camboriu", "Itajai")
	limiter := &mockLimiter{}
	limiter.On("Allow", "login:lidiane@example.com", 5).Return(ratelimit.Decision{Allowed: true})
	svc := newAuthService(env, limiter)

	result, err := svc.Login(context.Background(), "  LIDIANE@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, manager.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, manager.ID, claims.Subject)
	assert.Equal(t, string(domain.RoleRegionalManager), claims.Role)
	assert.Equal(t, []string{"balneario_camboriu", "itajai"}, claims.ResponsibleRegions)
	limiter.AssertExpectations(t)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inactive := env.addUser(t, "retired", domain.RoleFieldAgent, "Itajai")
	inactive.Active = false
	require.NoError(t, env.users.Update(ctx, inactive))
	env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")

	limiter := &mockLimiter{}
	limiter.On("Allow", mock.Anything, 5).Return(ratelimit.Decision{Allowed: true})
	svc := newAuthService(env, limiter)

	_, err := svc.Login(ctx, "roberto@example.com", "wrong-password")
	requireCode(t, err, "UNAUTHORIZED")
	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	requireCode(t, err, "UNAUTHORIZED")
	_, err = svc.Login(ctx, "retired@example.com", "secret123")
	requireCode(t, err, "UNAUTHORIZED")
	_, err = svc.Login(ctx, "", "")
	requireCode(t, err, "VALIDATION_FAILED")

	limiter.AssertNumberOfCalls(t, "Allow", 3)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")
	limiter := &mockLimiter{}
	limiter.On("Allow", "login:roberto@example.com", 5).Return(ratelimit.Decision{Allowed: false, Limit: 5})
	svc := newAuthService(env, limiter)

	_, err := svc.Login(context.Background(), "roberto@example.com", "secret123")
	requireCode(t, err, "RATE_LIMITED")
}

func TestLoginWithInMemoryLimiter(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")
	svc := newAuthService(env, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), "roberto@example.com", "wrong")
		requireCode(t, err, "UNAUTHORIZED")
	}
	_, err := svc.Login(context.Background(), "roberto@example.com", "secret123")
	requireCode(t, err, "RATE_LIMITED")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")
	svc := newAuthService(env, ratelimit.NewInMemory(0))

	err := svc.ChangePassword(ctx, principalOf(user), "wrong", "newsecret")
	requireCode(t, err, "VALIDATION_FAILED")
	assert.Equal(t, []string{"current_password"}, apperrors.ToDomainError(err).Details["fields"])
	err = svc.ChangePassword(ctx, principalOf(user), "secret123", "123")
	requireCode(t, err, "VALIDATION_FAILED")

	require.NoError(t, svc.ChangePassword(ctx, principalOf(user), "secret123", "newsecret"))
	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "newsecret"))

	_, err = svc.Login(ctx, "roberto@example.com", "newsecret")
	require.NoError(t, err)
}

func TestMeRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env, nil)
	user := env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")

	p, err := svc.Me(context.Background(), principalOf(user))
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)

	bogus := principalOf(user)
	bogus.Role = domain.Role("owner")
	_, err = svc.Me(context.Background(), bogus)
	requireCode(t, err, "FORBIDDEN")
}
