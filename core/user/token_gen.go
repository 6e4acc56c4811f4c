package user

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	salt    = []byte("campus.core.user.token_gen")
	nowFunc = core.Now // mockable

	tokenLen = 32
)

// makeResetToken issues a random password reset token and the digest under which it is stored.
// Only the digest is persisted, the token itself is mailed to the user.
func makeResetToken(secretKey string) (token, digest string, err error) {
	buf := make([]byte, tokenLen)
	if _, err = rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "reading random bytes")
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	digest, err = tokenDigest(token, secretKey)
	return token, digest, err
}

// tokenDigest signs token with the app secret key.
func tokenDigest(token, secretKey string) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, salt...), secretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write([]byte(token)); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
