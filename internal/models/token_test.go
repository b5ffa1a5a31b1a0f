package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token := NewRefreshToken("u1", "secret", now, time.Hour, "127.0.0.1", "test")

	assert.NotEmpty(t, token.ID)
	assert.True(t, token.Usable(now))
	assert.False(t, token.Usable(now.Add(time.Hour)))

	token.Revoked = true
	assert.False(t, token.Usable(now))

	var missing *RefreshToken
	assert.False(t, missing.Usable(now))
}

func TestRefreshTokenHidesValue(t *testing.T) {
	token := NewRefreshToken("u1", "secret", time.Now(), time.Hour, "", "")

	raw, err := json.Marshal(token)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}
