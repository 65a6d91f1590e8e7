package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)
	token, err := svc.GenerateToken(7, "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken(7, "customer")
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := New("secret", -time.Minute)
	token, err := svc.GenerateToken(7, "customer")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
