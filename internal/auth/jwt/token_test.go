package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret")})

	token, err := mgr.GenerateToken(42, "ada@example.com", RoleCandidate)
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, RoleCandidate, claims.Role)
	assert.Equal(t, "interview-platform", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewManager(TokenConfig{Secret: []byte("secret-a")})
	verifier := NewManager(TokenConfig{Secret: []byte("secret-b")})

	token, err := issuer.GenerateToken(42, "", RoleCandidate)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret")})

	_, err := mgr.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret"), TTL: -time.Minute})

	token, err := mgr.GenerateToken(42, "", RoleCandidate)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
