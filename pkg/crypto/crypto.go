package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenBytes is the number of random bytes in generated opaque tokens.
// 32 bytes yields 256 bits of entropy.
const DefaultTokenBytes = 32

// Hasher wraps bcrypt password hashing with a configurable work factor.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher. Costs outside the bcrypt range fall back to the
// library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a bcrypt hash of the supplied password. The salt is generated
// internally, so hashing the same password twice yields different outputs.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares the hashed password with the plaintext candidate. Any
// failure, including a malformed hash, reads as false.
func (h *Hasher) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
// Lengths of zero or below use DefaultTokenBytes.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		length = DefaultTokenBytes
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// ConstantTimeEquals reports whether two tokens match without leaking the
// position of a mismatch. Inputs of different lengths compare as unequal.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
