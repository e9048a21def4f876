package services

import (
	"encoding/base64"
	"testing"

	"medimind_backend/internal/config"
	"medimind_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsServiceWithKey(t *testing.T, key string) *settingsService {
	t.Helper()
	config.AppConfig = &config.Config{SettingsEncryptionKey: key}
	svc, err := NewSettingsService(repositories.NewSettingRepository())
	require.NoError(t, err)
	return svc.(*settingsService)
}

func TestSettingsEncryptionRoundTrip(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	svc := settingsServiceWithKey(t, key)

	for _, plaintext := range []string{"sk-secret", "", "value with spaces and unicode ✓"} {
		ciphertext, err := svc.encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := svc.decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestSettingsEncryptionIsNonDeterministic(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	svc := settingsServiceWithKey(t, key)

	first, err := svc.encrypt("same input")
	require.NoError(t, err)
	second, err := svc.encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "a fresh nonce must produce distinct ciphertexts")
}

func TestSettingsDecryptRejectsTampering(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	svc := settingsServiceWithKey(t, key)

	ciphertext, err := svc.encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = svc.decrypt(tampered)
	assert.Error(t, err)
}

func TestSettingsServiceRejectsBadKeys(t *testing.T) {
	config.AppConfig = &config.Config{SettingsEncryptionKey: "not base64!!"}
	_, err := NewSettingsService(repositories.NewSettingRepository())
	assert.Error(t, err)

	config.AppConfig = &config.Config{SettingsEncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}
	_, err = NewSettingsService(repositories.NewSettingRepository())
	assert.Error(t, err)
}

func TestSettingsEncryptionRequiresKey(t *testing.T) {
	svc := settingsServiceWithKey(t, "")
	_, err := svc.encrypt("secret")
	assert.Error(t, err)
}
