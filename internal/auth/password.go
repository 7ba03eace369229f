package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 600000
	// legacyIterations applies to pbkdf2 digests written without an explicit
	// iteration count.
	legacyIterations = 260000
	saltLength       = 16
	saltChars        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	pbkdf2Method     = "pbkdf2:sha256"
)

// Hasher produces and checks salted PBKDF2-SHA256 password digests of the form
// "pbkdf2:sha256:<iterations>$<salt>$<hex>".
type Hasher struct {
	iterations int
}

func NewHasher(iterations int) *Hasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash returns a new digest for plaintext. Every call uses a fresh salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := genSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := pbkdf2.Key([]byte(plaintext), []byte(salt), h.iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Method, h.iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether plaintext matches digest. Malformed or unsupported
// digests never match.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}

	method, salt, want, ok := splitDigest(digest)
	if !ok {
		return false
	}
	iterations, ok := parseMethod(method)
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(want)
	if err != nil || len(expected) != sha256.Size {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, sha256.Size, sha256.New)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// NeedsRehash reports whether digest was produced with other parameters than
// this Hasher's: bcrypt, legacy or different pbkdf2 iteration counts.
func (h *Hasher) NeedsRehash(digest string) bool {
	if isBcrypt(digest) {
		return true
	}
	method, _, _, ok := splitDigest(digest)
	if !ok {
		return true
	}
	iterations, ok := parseMethod(method)
	return !ok || method == pbkdf2Method || iterations != h.iterations
}

func splitDigest(digest string) (method, salt, sum string, ok bool) {
	parts := strings.Split(digest, "$")
	if len(parts) != 3 || parts[1] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// parseMethod accepts "pbkdf2:sha256" and "pbkdf2:sha256:<iterations>".
func parseMethod(method string) (int, bool) {
	if method == pbkdf2Method {
		return legacyIterations, true
	}
	rest, found := strings.CutPrefix(method, pbkdf2Method+":")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

func genSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(saltChars[idx.Int64()])
	}
	return sb.String(), nil
}
