package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		JWTSecret:  "test-secret-key-at-least-32-chars",
		Issuer:     "storefront-test",
		SessionTTL: time.Hour,
	})
}

func TestNewJWTService(t *testing.T) {
	t.Run("uses configured ttl", func(t *testing.T) {
		svc := newTestJWTService()
		assert.Equal(t, time.Hour, svc.SessionTTL())
		assert.Equal(t, "storefront-test", svc.issuer)
	})

	t.Run("defaults ttl to 24h", func(t *testing.T) {
		svc := NewJWTService(config.AuthConfig{JWTSecret: "s"})
		assert.Equal(t, 24*time.Hour, svc.SessionTTL())
	})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestJWTService()

	session, err := svc.Issue(identity.AdminSubject)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.AdminSubject, claims.Subject)
	assert.Equal(t, session.ID, claims.ID)
	assert.Equal(t, "storefront-test", claims.Issuer)
	assert.Equal(t, session.ExpiresAt.Unix(), claims.GetExpiresAtTime().Unix())
	assert.Greater(t, claims.GetRemainingTTL(), 59*time.Minute)
	assert.Equal(t, session.ExpiresAt.Add(-time.Hour).UnixNano(), claims.SessionStartedAt().UnixNano())
}

func TestIssue_UniqueIDs(t *testing.T) {
	svc := newTestJWTService()
	a, err := svc.Issue(identity.AdminSubject)
	require.NoError(t, err)
	b, err := svc.Issue(identity.AdminSubject)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestValidate_Failures(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{JWTSecret: "another-secret-key-of-32-characters", Issuer: "storefront-test"})
		session, err := other.Issue(identity.AdminSubject)
		require.NoError(t, err)
		_, err = svc.Validate(session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{JWTSecret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere"})
		session, err := other.Issue(identity.AdminSubject)
		require.NoError(t, err)
		_, err = svc.Validate(session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		session, err := past.Issue(identity.AdminSubject)
		require.NoError(t, err)
		_, err = svc.Validate(session.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		session, err := future.Issue(identity.AdminSubject)
		require.NoError(t, err)
		_, err = svc.Validate(session.Token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Validate(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		session, err := svc.Issue("")
		require.NoError(t, err)
		_, err = svc.Validate(session.Token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})
}

func TestClaims_SessionStartedAtFallsBackToIssuedAt(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(issued)}}
	assert.Equal(t, issued.Unix(), claims.SessionStartedAt().Unix())
	assert.True(t, (&Claims{}).SessionStartedAt().IsZero())
	assert.Zero(t, (&Claims{}).GetRemainingTTL())
}
