package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerGenerateAndParse(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("user-1", "calendar")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotContains(t, token, "/")

	subject, parsedExpiry, err := signer.Parse(token, "calendar")
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
	assert.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignerRejectsOtherScope(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Generate("user-1", "calendar")
	require.NoError(t, err)

	_, _, err = signer.Parse(token, "export")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Generate("user-1", "calendar")
	require.NoError(t, err)

	other := NewSigner("another-secret", time.Hour)
	_, _, err = other.Parse(token, "calendar")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Parse("garbage", "calendar")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerExpired(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, _, err := signer.Generate("user-1", "calendar")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, _, err = signer.Parse(token, "calendar")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSignerRequiresSecretAndSubject(t *testing.T) {
	_, _, err := NewSigner("", time.Hour).Generate("user-1", "calendar")
	assert.Error(t, err)

	_, _, err = NewSigner("secret", time.Hour).Generate("", "calendar")
	assert.Error(t, err)
}
