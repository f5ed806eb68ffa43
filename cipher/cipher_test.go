package cipher

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *TokenCipher {
	t.Helper()
	key := strings.Repeat("a1", 32) // 64 hex chars -> 32 bytes
	c, err := NewTokenCipherFromHex(key)
	require.NoError(t, err)
	return c
}

func TestNewTokenCipher(t *testing.T) {
	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewTokenCipher([]byte("too-short"))
		assert.Error(t, err)
	})

	t.Run("rejects non-hex key", func(t *testing.T) {
		_, err := NewTokenCipherFromHex(strings.Repeat("zz", 32))
		assert.Error(t, err)
	})

	t.Run("rejects hex key of wrong length", func(t *testing.T) {
		_, err := NewTokenCipherFromHex("a1b2c3")
		assert.Error(t, err)
	})

	t.Run("accepts 64 hex chars", func(t *testing.T) {
		_, err := NewTokenCipherFromHex(strings.Repeat("0f", 32))
		assert.NoError(t, err)
	})
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	inputs := []string{
		"",
		"a",
		"some-access-token",
		"exactly-16-bytes", // block-aligned input
		"token:with:the:delimiter:character",
		strings.Repeat("long", 500),
		"unicode: héllo wörld ✓",
	}

	for _, input := range inputs {
		token, err := c.Encrypt(input)
		require.NoError(t, err)

		got, err := c.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, input, got, "round trip failed for %q", input)
	}
}

func TestTokenCipher_RandomIV(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt("same-input")
	require.NoError(t, err)
	second, err := c.Encrypt("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two encryptions of the same input should differ")

	for _, token := range []string{first, second} {
		got, err := c.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, "same-input", got)
	}
}

func TestTokenCipher_TokenFormat(t *testing.T) {
	c := newTestCipher(t)

	token, err := c.Encrypt("payload")
	require.NoError(t, err)

	parts := strings.SplitN(token, ":", 2)
	require.Len(t, parts, 2)

	iv, err := hex.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Len(t, iv, 16)

	ct, err := hex.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotEmpty(t, ct)
}

func TestTokenCipher_DecryptFailures(t *testing.T) {
	c := newTestCipher(t)

	t.Run("missing separator", func(t *testing.T) {
		_, err := c.Decrypt("deadbeef")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("malformed IV", func(t *testing.T) {
		_, err := c.Decrypt("nothex:deadbeefdeadbeefdeadbeefdeadbeef")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("ciphertext not block aligned", func(t *testing.T) {
		_, err := c.Decrypt(strings.Repeat("ab", 16) + ":abcd")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := c.Encrypt("secret")
		require.NoError(t, err)

		other, err := NewTokenCipherFromHex(strings.Repeat("b2", 32))
		require.NoError(t, err)

		// CBC padding validation almost always rejects a wrong-key decrypt; in the
		// rare case the garbage happens to carry valid padding, the output still
		// must not equal the original plaintext.
		got, err := other.Decrypt(token)
		if err != nil {
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		} else {
			assert.NotEqual(t, "secret", got)
		}
	})
}
