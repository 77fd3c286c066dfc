package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSecretsAndResolveLocalKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	doc := `{"keys":{"home-updater":{"type":"local","hex":"0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv(SecretsEnvVar, path)

	secrets, err := LoadSecrets()
	require.NoError(t, err)

	key, err := secrets.PrivateKey("home-updater")
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestSecretsKMSDescriptorIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	doc := `{"keys":{"remote":{"type":"kms","id":"projects/x/keys/y"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv(SecretsEnvVar, path)

	secrets, err := LoadSecrets()
	require.NoError(t, err)

	_, err = secrets.PrivateKey("remote")
	require.ErrorIs(t, err, ErrKMSUnavailable)
}

func TestLoadSecretsRequiresEnvVar(t *testing.T) {
	t.Setenv(SecretsEnvVar, "")
	_, err := LoadSecrets()
	require.ErrorIs(t, err, ErrNoSecrets)
}

func TestLoadSecretsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	doc := "keys:\n  home-updater:\n    type: local\n    hex: \"0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv(SecretsEnvVar, path)

	secrets, err := LoadSecrets()
	require.NoError(t, err)

	key, err := secrets.PrivateKey("home-updater")
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestSecretsUnknownKeyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"keys":{}}`), 0o600))
	t.Setenv(SecretsEnvVar, path)

	secrets, err := LoadSecrets()
	require.NoError(t, err)

	_, err = secrets.PrivateKey("missing")
	require.ErrorIs(t, err, ErrNoSecrets)
}
