package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// FingerprintToken returns the SHA-256 of a token, base64url encoded (43
// chars). Bearer secrets are stored by fingerprint so a database leak does not
// leak usable tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
