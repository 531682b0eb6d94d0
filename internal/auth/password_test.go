package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHasher() *PasswordHasher {
	return NewPasswordHasherWithParams(1, 8*1024, 1)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotContains(t, hash, "correct horse")

	ok, err := h.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltsEveryHash(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("secret-password")
	require.NoError(t, err)
	b, err := h.Hash("secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifiesBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := testHasher().Verify("old-password", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = testHasher().Verify("new-password", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_RejectsMalformedHashes(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "plaintext", hash: "hunter22"},
		{name: "md5 crypt", hash: "$1$abc$def"},
		{name: "missing parts", hash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA"},
		{name: "bad version", hash: "$argon2id$v=1$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "bad params", hash: "$argon2id$v=19$memory$c2FsdA$aGFzaA"},
		{name: "bad salt", hash: "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA"},
		{name: "truncated bcrypt", hash: "$2a$10$short"},
		{name: "zero parallelism", hash: "$argon2id$v=19$m=65536,t=3,p=0$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{name: "zero iterations", hash: "$argon2id$v=19$m=65536,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{name: "zero memory", hash: "$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{name: "oversized memory", hash: "$argon2id$v=19$m=4194304,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{name: "too many iterations", hash: "$argon2id$v=19$m=8192,t=1000000,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := testHasher().Verify("whatever", tt.hash)
			assert.ErrorIs(t, err, ErrInvalidCredentialFormat)
			assert.False(t, ok)
		})
	}
}
