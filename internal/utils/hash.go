package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
)

var ErrInvalidCodeLength = errors.New("code length must be between 4 and 12")

func GenerateRandomToken(size int) (string, error) {
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateNumericCode returns a uniformly random decimal code of exactly
// length digits, zero padded.
func GenerateNumericCode(length int) (string, error) {
	if length < 4 || length > 12 {
		return "", ErrInvalidCodeLength
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	code := n.String()
	if len(code) < length {
		code = strings.Repeat("0", length-len(code)) + code
	}
	return code, nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// HashCode binds a short code to its owner and purpose so equal codes issued
// to different users never share a hash.
func HashCode(owner string, purpose string, code string) string {
	return HashToken(owner + ":" + purpose + ":" + strings.TrimSpace(code))
}

func EqualHashes(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
