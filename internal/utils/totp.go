package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	totpPeriod = 30 * time.Second
	totpDigits = 6
)

// GenerateTOTPSecret returns a 20-byte secret encoded as unpadded base32
// (RFC 3548), the form authenticator apps expect.
func GenerateTOTPSecret() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// TOTPProvisioningURI builds the otpauth:// URI encoded into the setup QR code
func TOTPProvisioningURI(issuer, accountName, secret string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", totpDigits))
	q.Set("period", fmt.Sprintf("%d", int(totpPeriod.Seconds())))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// VerifyTOTP checks a 6-digit code against the secret at time t, accepting
// codes from the adjacent time steps to tolerate clock skew (RFC 6238).
func VerifyTOTP(secret, code string, t time.Time, windowSteps int) bool {
	code = strings.TrimSpace(code)
	if len(code) != totpDigits {
		return false
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return false
	}

	counter := t.Unix() / int64(totpPeriod.Seconds())
	for c := counter - int64(windowSteps); c <= counter+int64(windowSteps); c++ {
		if subtle.ConstantTimeCompare([]byte(hotp(raw, c)), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// GenerateTOTPCode returns the code for the current time step; used by tests
// and by documentation tooling, never by the verification path directly.
func GenerateTOTPCode(secret string, t time.Time) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", fmt.Errorf("invalid totp secret: %w", err)
	}
	return hotp(raw, t.Unix()/int64(totpPeriod.Seconds())), nil
}

// hotp implements RFC 4226 with HMAC-SHA1 truncation
func hotp(secret []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secret)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	return fmt.Sprintf("%06d", bin%1000000)
}
