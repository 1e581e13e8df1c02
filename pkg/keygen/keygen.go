package keygen

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	alphaNumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// symbols avoids characters that need quoting in a shell
	symbols = "-_.@%+="
)

// MinPasswordLength is the shortest password GeneratePassword produces
const MinPasswordLength = 12

var ErrTooShort = errors.New("generated password must be at least 12 characters")

// GeneratePassword returns a random password of the given length drawn from
// letters, digits and a few shell-safe symbols.
// Used when an administrator is bootstrapped without an explicit password.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", ErrTooShort
	}
	return randomString(length, alphaNumeric+symbols)
}

// GenerateSecret returns a random alphanumeric string suitable as an HMAC
// signing secret
func GenerateSecret(length int) (string, error) {
	if length < 32 {
		length = 32
	}
	return randomString(length, alphaNumeric)
}

// randomString generates a random string of given length from the given charset
func randomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}
