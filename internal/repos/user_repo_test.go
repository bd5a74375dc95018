package repos_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

// A bare domain.User with only the required fields set must be storable;
// the schema CHECK on preferred_language rejects the empty string, so the
// repo has to fall back to the defaults itself.
func TestCreateDefaultsZeroValues(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repos.NewUserRepo(db)

	u := &domain.User{
		ID:    uuid.NewString(),
		Email: "minimal@test.local",
		Name:  "Minimal",
		Hash:  "x",
		Role:  domain.RoleUser,
	}
	require.NoError(t, users.Create(u))

	fresh, err := users.ByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "en", fresh.Language)
	assert.Equal(t, domain.TierFree, fresh.Tier)

	// Explicit values still win over the defaults.
	am := &domain.User{
		ID:       uuid.NewString(),
		Email:    "amharic@test.local",
		Name:     "Amharic",
		Hash:     "x",
		Role:     domain.RoleUser,
		Tier:     domain.TierPremium,
		Language: "am",
	}
	require.NoError(t, users.Create(am))
	fresh, err = users.ByID(am.ID)
	require.NoError(t, err)
	assert.Equal(t, "am", fresh.Language)
	assert.Equal(t, domain.TierPremium, fresh.Tier)
}
