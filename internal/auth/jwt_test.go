package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDeviceToken_RoundTrip(t *testing.T) {
	token, err := GenerateDeviceToken("device-42", "test-signing-key", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateDeviceToken(token, "test-signing-key")
	require.NoError(t, err)
	require.Equal(t, "device-42", claims.DeviceID)
}

func TestDeviceToken_WrongKey(t *testing.T) {
	token, err := GenerateDeviceToken("device-42", "test-signing-key", time.Hour)
	require.NoError(t, err)

	_, err = ValidateDeviceToken(token, "another-key")
	require.Error(t, err)
}

func TestDeviceToken_Expired(t *testing.T) {
	token, err := GenerateDeviceToken("device-42", "test-signing-key", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateDeviceToken(token, "test-signing-key")
	require.Error(t, err)
}

func TestCheckAppSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	require.True(t, CheckAppSecret("s3cret", string(hash)))
	require.False(t, CheckAppSecret("wrong", string(hash)))
	require.False(t, CheckAppSecret("s3cret", "not-a-hash"))
}
