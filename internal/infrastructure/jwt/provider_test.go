package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACProvider_RoundTrip(t *testing.T) {
	p := NewHMACProvider([]byte("secret"), 7*24*time.Hour)
	tok, err := p.Sign("user-1")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestRSAProvider_RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewRSAProvider(key, &key.PublicKey, time.Hour)

	tok, err := p.Sign("user-2")
	require.NoError(t, err)
	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID())
}

func TestVerify_RejectsOtherSecret(t *testing.T) {
	tok, err := NewHMACProvider([]byte("a"), time.Hour).Sign("u")
	require.NoError(t, err)
	_, err = NewHMACProvider([]byte("b"), time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestVerify_RejectsExpired(t *testing.T) {
	p := NewHMACProvider([]byte("secret"), time.Hour)
	tok, err := p.Sign("u")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_RejectsAlgorithmSwitch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tok, err := NewHMACProvider([]byte("secret"), time.Hour).Sign("u")
	require.NoError(t, err)
	_, err = NewRSAProvider(key, &key.PublicKey, time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := NewHMACProvider([]byte("secret"), time.Hour).Verify("not.a.token")
	assert.Error(t, err)
}
