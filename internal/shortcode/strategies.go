package shortcode

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base62Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// secureRandomCode draws each character independently from the base62
// alphabet using crypto/rand. Two bytes feed each character; a single byte
// mod 62 would skew the draw toward the start of the alphabet.
func secureRandomCode(length int) (string, error) {
	buf := make([]byte, 2*length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		v := binary.BigEndian.Uint16(buf[2*i:])
		sb.WriteByte(base62Alphabet[int(v)%len(base62Alphabet)])
	}
	return sb.String(), nil
}

// hashCode derives a code from a fresh UUID: SHA-256, base64url, truncated.
func hashCode(length int) string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	encoded := base64.RawURLEncoding.EncodeToString(sum[:])
	if len(encoded) > length {
		encoded = encoded[:length]
	}
	return encoded
}

// timestampCode combines the current time in base36 with a short random
// suffix and keeps the trailing characters, which carry the most entropy.
func timestampCode(length int) (string, error) {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)

	suffix, err := secureRandomCode(4)
	if err != nil {
		return "", err
	}

	code := ts + suffix
	if len(code) > length {
		code = code[len(code)-length:]
	}
	return code, nil
}
