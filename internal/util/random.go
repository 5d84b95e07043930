package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID in the format "{prefix}{hex}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified
// length. Not for cryptographic use.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateOTP generates a numeric one-time password of the given length.
func GenerateOTP(length int) string {
	if length <= 0 {
		return ""
	}

	const digits = "0123456789"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(digits[rand.IntN(10)])
	}

	return builder.String()
}

// GenerateVerifyToken generates a registration verification token with "v_"
// prefix.
func GenerateVerifyToken() string {
	return GenerateRandomID("v_", 32)
}
