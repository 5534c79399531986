package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		blob, err := EncryptSecret("api-secret-value", "hunter2")
		require.NoError(t, err)

		got, err := DecryptSecret(blob, "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "api-secret-value", got)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		blob, err := EncryptSecret("api-secret-value", "hunter2")
		require.NoError(t, err)

		_, err = DecryptSecret(blob, "hunter3")
		assert.Error(t, err)
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := EncryptSecret("api-secret-value", "")
		assert.Error(t, err)
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := EncryptSecret("", "hunter2")
		assert.Error(t, err)
	})
}

func TestLoadSecret(t *testing.T) {
	t.Run("raw takes precedence", func(t *testing.T) {
		got, err := LoadSecret(SecretConfig{Raw: "plain", EncryptedPath: "/nonexistent"})
		require.NoError(t, err)
		assert.Equal(t, "plain", got)
	})

	t.Run("encrypted file", func(t *testing.T) {
		blob, err := EncryptSecret("from-file", "pw")
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "secret.json")
		require.NoError(t, os.WriteFile(path, blob, 0o600))

		got, err := LoadSecret(SecretConfig{EncryptedPath: path, Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "from-file", got)
	})

	t.Run("no source configured", func(t *testing.T) {
		_, err := LoadSecret(SecretConfig{})
		assert.Error(t, err)
	})
}
