package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

func TestTokenRoundTripCarriesRegionClaims(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	user := &domain.User{
		ID:                 "u-1",
		Name:               "Marta",
		Email:              "marta@example.com",
		Role:               domain.RoleRegionalManager,
		HomeRegion:         "itajai",
		ResponsibleRegions: []string{"itajai", "itapema"},
	}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, string(domain.RoleRegionalManager), claims.Role)
	assert.Equal(t, []string{"itajai", "itapema"}, claims.ResponsibleRegions)
	assert.Equal(t, "itajai", claims.HomeRegion)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	token, _, err := tm.GenerateToken(&domain.User{ID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager("other", 60).ParseToken(token)
	assert.Error(t, err, "wrong secret")

	expired := NewTokenManager("secret", 60)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.ParseToken(token)
	assert.Error(t, err, "expired")

	_, err = tm.ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestPrincipalFor(t *testing.T) {
	p := PrincipalFor(&domain.User{
		ID:                 "u-2",
		Name:               "Lidiane",
		Email:              "lidiane@example.com",
		Role:               domain.RoleRegionalManager,
		HomeRegion:         "balneario_camboriu",
		ResponsibleRegions: []string{"balneario_camboriu", "itajai"},
	})
	assert.Equal(t, "u-2", p.UserID)
	assert.Equal(t, "Lidiane", p.Name)
	assert.Equal(t, domain.RoleRegionalManager, p.Role)
	assert.Equal(t, []string{"balneario_camboriu", "itajai"}, p.ResponsibleRegions)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Adim2025", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "Adim2025"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
