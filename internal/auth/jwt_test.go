package auth

import (
	"testing"
	"time"

	"tracker-service/internal/domain"
	"tracker-service/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := &user.User{ID: 7, Role: domain.RoleParent}

	t.Run("RoundTrip", func(t *testing.T) {
		raw, err := issuer.Issue(u)
		require.NoError(t, err)

		id, err := issuer.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity{UserID: 7, Role: domain.RoleParent}, id)
	})

	t.Run("DefaultTTL", func(t *testing.T) {
		assert.Equal(t, 15*time.Minute, NewTokenIssuer("s", 0).TTL())
	})

	t.Run("WrongSecret", func(t *testing.T) {
		raw, err := NewTokenIssuer("other-secret", time.Hour).Issue(u)
		require.NoError(t, err)

		_, err = issuer.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		raw, err := issuer.Issue(u)
		require.NoError(t, err)

		later := NewTokenIssuer("test-secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoSigningMethod", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID: 7,
			Role:   "parent",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		raw, err := issuer.Issue(&user.User{ID: 7, Role: "admin"})
		require.NoError(t, err)

		_, err = issuer.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
