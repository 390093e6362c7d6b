// Package service implements time-based one-time password generation and
// verification.
package service

import (
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	apperrors "github.com/allisson/identity/internal/errors"
)

// Verification windows. Enrollment tolerates two 30-second steps of clock
// drift so the very first code from a freshly scanned authenticator still
// verifies; sign-in tightens to one step.
const (
	SetupSkew = 2
	LoginSkew = 1
)

// TOTPService generates and verifies authenticator-app codes.
type TOTPService interface {
	// GenerateSecret creates a new shared secret and its otpauth URL for the
	// given account name.
	GenerateSecret(accountName string) (secret string, otpauthURL string, err error)

	// BuildURL rebuilds the otpauth URL for an already-enrolled secret.
	BuildURL(secret, accountName string) string

	// Verify checks a six-digit code against the secret, tolerating skew
	// 30-second steps of clock drift in either direction.
	Verify(code, secret string, skew uint) bool
}

// totpService implements TOTPService with SHA-1, six digits, and a 30-second
// period, matching the defaults of common authenticator apps.
type totpService struct {
	issuer string
}

// NewTOTPService creates a TOTPService issuing secrets under the given issuer
// name, which authenticator apps display as the account label.
func NewTOTPService(issuer string) TOTPService {
	return &totpService{issuer: issuer}
}

// GenerateSecret creates a new shared secret and its otpauth URL.
func (t *totpService) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate totp secret")
	}
	return key.Secret(), key.URL(), nil
}

// BuildURL rebuilds the otpauth URL for an existing secret so re-enrollment
// shows the same account in the authenticator app.
func (t *totpService) BuildURL(secret, accountName string) string {
	params := url.Values{}
	params.Set("secret", secret)
	params.Set("issuer", t.issuer)
	params.Set("algorithm", "SHA1")
	params.Set("digits", "6")
	params.Set("period", "30")

	label := url.PathEscape(fmt.Sprintf("%s:%s", t.issuer, accountName))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, params.Encode())
}

// Verify checks a six-digit code against the secret.
func (t *totpService) Verify(code, secret string, skew uint) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}
