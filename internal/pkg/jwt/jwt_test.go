package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRoundTrip(t *testing.T) {
	m := NewManger("test-secret", 20*time.Minute)

	token, err := m.CreateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := m.GetIdFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestManagerRejectsWrongSecret(t *testing.T) {
	m := NewManger("test-secret", 20*time.Minute)
	other := NewManger("other-secret", 20*time.Minute)

	token, err := m.CreateToken(42)
	require.NoError(t, err)

	_, err = other.GetIdFromToken(token)

	require.Error(t, err)
	assert.IsType(t, &InvalidTokenError{}, err)
}

func TestManagerRejectsExpiredToken(t *testing.T) {
	m := NewManger("test-secret", -time.Minute)

	token, err := m.CreateToken(42)
	require.NoError(t, err)

	_, err = m.GetIdFromToken(token)

	require.Error(t, err)
	assert.IsType(t, &InvalidTokenError{}, err)
}

func TestManagerRejectsGarbage(t *testing.T) {
	m := NewManger("test-secret", 20*time.Minute)

	_, err := m.GetIdFromToken("not.a.token")

	require.Error(t, err)
}
