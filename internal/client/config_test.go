package client_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/lostfound/internal/client"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	cfg := client.Config{
		Endpoint: "http://localhost:5000",
		Email:    "owner@nowhere.lan",
		Token: liblf.Token{
			IDToken:      "id",
			RefreshToken: "refresh",
			Expiration:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	ciphertext, err := client.Seal(cfg, []byte("passphrase"))
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "owner@nowhere.lan")

	opened, err := client.Open(ciphertext, []byte("passphrase"))
	require.NoError(t, err)
	assert.Equal(t, cfg.Endpoint, opened.Endpoint)
	assert.Equal(t, cfg.Email, opened.Email)
	assert.Equal(t, cfg.Token.RefreshToken, opened.Token.RefreshToken)
	assert.True(t, cfg.Token.Expiration.Equal(opened.Token.Expiration))

	_, err = client.Open(ciphertext, []byte("wrong"))
	assert.EqualError(t, err, "could not decrypt credentials file: chacha20poly1305: message authentication failed")

	_, err = client.Open(ciphertext[:10], []byte("passphrase"))
	assert.EqualError(t, err, "credentials file is truncated")
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "lfc.yml")

	err := os.WriteFile(filename, []byte("endpoint: http://localhost:5000\nidentity:\n  api_key: key\n"), 0600)
	require.NoError(t, err)

	settings, err := client.LoadSettings(filename)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", settings.Endpoint)
	assert.Equal(t, "key", settings.APIKey)
	assert.Equal(t, liblf.IdentityEndpoint, settings.IdentityEndpoint)
	assert.Equal(t, liblf.SecureTokenEndpoint, settings.TokenEndpoint)
	assert.Equal(t, "lfc.log", settings.LogFile)
	assert.Equal(t, "info", settings.LogLevel)

	err = os.WriteFile(filename, []byte("identity:\n  api_key: key\n"), 0600)
	require.NoError(t, err)
	_, err = client.LoadSettings(filename)
	assert.EqualError(t, err, "missing endpoint in settings "+filename)

	_, err = client.LoadSettings(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
