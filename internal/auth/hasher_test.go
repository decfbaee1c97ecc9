package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insectlab/bugradar/internal/auth"
)

func TestHashPassword(t *testing.T) {
	password := "correct-horse-battery-staple"

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "expected argon2id prefix, got %s", hash)

	match, err := auth.CheckPassword(password, hash)
	require.NoError(t, err)
	assert.True(t, match, "password did not match its own hash")

	match, err = auth.CheckPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, match, "wrong password matched hash")
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plainhash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		_, err := auth.CheckPassword("pw", bad)
		assert.Error(t, err, "hash %q should be rejected", bad)
	}
}

var _ auth.TokenBlacklist = (*auth.RedisBlacklist)(nil)
