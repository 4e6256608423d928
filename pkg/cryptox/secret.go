package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrSecretMismatch is returned when a plaintext secret does not match its hash.
var ErrSecretMismatch = errors.New("cryptox: secret does not match")

// ErrHashFormat is returned for anything that is not a PHC argon2id string.
var ErrHashFormat = errors.New("cryptox: invalid argon2id hash")

// Argon2Params are the Argon2id cost parameters encoded into every hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follows the OWASP minimum for Argon2id (19 MiB, t=2, p=1).
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// SecretHasher hashes and verifies client secrets. The pepper is appended to
// every secret before hashing and is never part of the encoded output, so
// hashes are only portable between processes sharing the same pepper file.
type SecretHasher struct {
	Pepper []byte
	Params Argon2Params
}

// NewSecretHasher returns a hasher with the default parameters.
func NewSecretHasher(pepper []byte) *SecretHasher {
	return &SecretHasher{Pepper: pepper, Params: DefaultArgon2Params}
}

// Hash returns a PHC-format Argon2id string: $argon2id$v=19$m=,t=,p=$salt$hash
func (h *SecretHasher) Hash(secret string) (string, error) {
	p := h.params()

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	sum := argon2.IDKey(h.peppered(secret), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify compares secret against an encoded hash in constant time. The cost
// parameters are taken from the hash, not from h.Params, so old hashes keep
// verifying after the defaults move.
func (h *SecretHasher) Verify(secret, encoded string) error {
	parts := strings.Split(encoded, "$")
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return ErrHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fmt.Errorf("%w: unsupported version %q", ErrHashFormat, parts[2])
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrHashFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrHashFormat, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return fmt.Errorf("%w: digest", ErrHashFormat)
	}

	got := argon2.IDKey(h.peppered(secret), salt, iters, mem, par, uint32(len(want))) // #nosec G115 - digest length is tiny

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrSecretMismatch
	}
	return nil
}

// IsHash reports whether s looks like something Hash produced. Used to refuse
// plaintext secrets in the client registry.
func IsHash(s string) bool {
	return strings.HasPrefix(s, "$argon2id$") && strings.Count(s, "$") == 5
}

func (h *SecretHasher) params() Argon2Params {
	if h.Params == (Argon2Params{}) {
		return DefaultArgon2Params
	}
	return h.Params
}

func (h *SecretHasher) peppered(secret string) []byte {
	out := make([]byte, 0, len(secret)+len(h.Pepper))
	out = append(out, secret...)
	return append(out, h.Pepper...)
}

// GenerateSecret returns size random bytes encoded as base64url without
// padding, suitable as a client secret.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
