package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Fixed for the process lifetime; chosen to keep
// interactive verification under 200ms while resisting offline attack.
const (
	hashTime    uint32 = 1
	hashMemKiB  uint32 = 64 * 1024
	hashPar     uint8  = 4
	hashKeyLen  uint32 = 32
	hashSaltLen        = 16
)

// Hasher produces salted one-way digests in PHC string format and
// verifies plaintexts against them in constant time. It has no lookup
// capability: two calls to Hash with the same plaintext yield
// different digests.
type Hasher struct{}

// NewHasher creates a Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash derives an argon2id digest with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, hashTime, hashMemKiB, hashPar, hashKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemKiB, hashTime, hashPar,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest with the parameters and salt embedded
// in encoded and compares in constant time. A malformed digest is a
// verification failure, never an error.
func (h *Hasher) Verify(plaintext, encoded string) bool {
	memKiB, time, par, salt, key, ok := parseDigest(encoded)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), salt, time, memKiB, par, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1
}

func parseDigest(encoded string) (memKiB, time uint32, par uint8, salt, key []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}

	for _, kv := range strings.Split(parts[3], ",") {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			return 0, 0, 0, nil, nil, false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, 0, nil, nil, false
		}
		switch k {
		case "m":
			memKiB = uint32(n)
		case "t":
			time = uint32(n)
		case "p":
			if n == 0 || n > 255 {
				return 0, 0, 0, nil, nil, false
			}
			par = uint8(n)
		default:
			return 0, 0, 0, nil, nil, false
		}
	}
	if memKiB == 0 || time == 0 || par == 0 {
		return 0, 0, 0, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, false
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, false
	}

	return memKiB, time, par, salt, key, true
}
