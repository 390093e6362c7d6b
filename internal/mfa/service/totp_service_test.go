package service

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPService_GenerateSecret(t *testing.T) {
	svc := NewTOTPService("identity")

	secret, otpauthURL, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(otpauthURL, "otpauth://totp/"))
	assert.Contains(t, otpauthURL, "issuer=identity")

	// distinct enrollments get distinct secrets
	otherSecret, _, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, secret, otherSecret)
}

func TestTOTPService_BuildURL(t *testing.T) {
	svc := NewTOTPService("identity")

	url := svc.BuildURL("JBSWY3DPEHPK3PXP", "alice@example.com")

	assert.True(t, strings.HasPrefix(url, "otpauth://totp/identity:alice@example.com?"))
	assert.Contains(t, url, "secret=JBSWY3DPEHPK3PXP")
	assert.Contains(t, url, "issuer=identity")
	assert.Contains(t, url, "digits=6")
	assert.Contains(t, url, "period=30")
}

func TestTOTPService_Verify(t *testing.T) {
	svc := NewTOTPService("identity")

	secret, _, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)

	currentCode := func(at time.Time) string {
		code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
			Period:    30,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		return code
	}

	t.Run("CurrentCode", func(t *testing.T) {
		assert.True(t, svc.Verify(currentCode(time.Now()), secret, LoginSkew))
	})

	t.Run("PreviousStepWithinLoginSkew", func(t *testing.T) {
		assert.True(t, svc.Verify(currentCode(time.Now().Add(-30*time.Second)), secret, LoginSkew))
	})

	t.Run("TwoStepsNeedsSetupSkew", func(t *testing.T) {
		code := currentCode(time.Now().Add(-60 * time.Second))
		assert.False(t, svc.Verify(code, secret, LoginSkew))
		assert.True(t, svc.Verify(code, secret, SetupSkew))
	})

	t.Run("WrongCode", func(t *testing.T) {
		assert.False(t, svc.Verify("000000", secret, SetupSkew))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, _, err := svc.GenerateSecret("bob@example.com")
		require.NoError(t, err)
		assert.False(t, svc.Verify(currentCode(time.Now()), other, LoginSkew))
	})

	t.Run("MalformedCode", func(t *testing.T) {
		assert.False(t, svc.Verify("not-a-code", secret, LoginSkew))
	})
}
