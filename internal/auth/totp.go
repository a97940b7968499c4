package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// RecoveryCodeCount codes are generated together at MFA setup.
	RecoveryCodeCount = 8
	// RecoveryCodeLength is the length of each code in lowercase hex chars.
	RecoveryCodeLength = 10

	totpPeriod = 30
)

// TOTPManager generates and verifies time-based one-time passwords for the
// MFA step-up flow.
type TOTPManager struct {
	issuer string
}

// NewTOTPManager creates a new TOTP manager. The issuer names this platform
// in authenticator apps.
func NewTOTPManager(issuer string) *TOTPManager {
	return &TOTPManager{issuer: issuer}
}

// GenerateSecret creates a new base32-encoded TOTP secret.
func (tm *TOTPManager) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: "pending",
		SecretSize:  32,
		Period:      totpPeriod,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return key.Secret(), nil
}

// ProvisioningURI renders the otpauth:// URI an authenticator app enrolls
// from. The account label is the user's email.
func (tm *TOTPManager) ProvisioningURI(secret, accountLabel string) string {
	params := url.Values{}
	params.Set("secret", secret)
	params.Set("issuer", tm.issuer)
	params.Set("period", fmt.Sprintf("%d", totpPeriod))
	params.Set("algorithm", "SHA1")
	params.Set("digits", "6")

	uri := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + tm.issuer + ":" + accountLabel,
		RawQuery: params.Encode(),
	}
	return uri.String()
}

// QRCodeDataURL encodes a provisioning URI as a PNG data URL for setup UIs.
func (tm *TOTPManager) QRCodeDataURL(provisioningURI string) (string, error) {
	qr, err := qrcode.New(provisioningURI, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(200)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Verify checks a 6-digit code against a secret, allowing ±1 time step for
// clock drift.
func (tm *TOTPManager) Verify(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// GenerateRecoveryCodes produces the single-use recovery code set handed to
// the user at MFA setup: mutually unique lowercase-hex strings.
func (tm *TOTPManager) GenerateRecoveryCodes() ([]string, error) {
	codes := make([]string, 0, RecoveryCodeCount)
	seen := make(map[string]bool, RecoveryCodeCount)

	for len(codes) < RecoveryCodeCount {
		buf := make([]byte, RecoveryCodeLength/2)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}

		code := hex.EncodeToString(buf)
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	return codes, nil
}
