package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32
	// upper bound accepted from a stored digest, keeps a corrupted row from
	// allocating unbounded memory during verification
	argon2MaxMemoryKiB = 1 << 22
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches digest. Malformed digests,
	// foreign algorithms and wrong passwords all yield false.
	Verify(digest, password string) bool
}

// Argon2Params is the argon2id work factor.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultArgon2Params follows the OWASP baseline for argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// Argon2idHasher encodes digests in the PHC string format:
// $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates a hasher; zero fields fall back to the defaults.
func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	def := DefaultArgon2Params()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = def.Threads
	}
	return &Argon2idHasher{params: params}
}

// Hash produces a salted argon2id digest of password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key with the digest's own parameters and compares in constant time.
func (h *Argon2idHasher) Verify(digest, password string) bool {
	parsed, err := parseArgon2Digest(digest)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.threads, uint32(len(parsed.key)))
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1
}

// NeedsRehash reports whether digest was produced with different parameters.
func (h *Argon2idHasher) NeedsRehash(digest string) bool {
	parsed, err := parseArgon2Digest(digest)
	if err != nil {
		return true
	}
	return parsed.time != h.params.Time || parsed.memory != h.params.MemoryKiB || parsed.threads != h.params.Threads
}

type argon2Digest struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2Digest(encoded string) (*argon2Digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid digest format")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, err
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, err
	}
	if time == 0 || memory == 0 || memory > argon2MaxMemoryKiB || threads == 0 || threads > 255 {
		return nil, errors.New("argon2 parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, err
	}
	if len(key) == 0 || len(key) > 1024 {
		return nil, errors.New("invalid key length")
	}

	return &argon2Digest{
		time:    time,
		memory:  memory,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
