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

// Argon2id parameters for newly created hashes. Verification reads the
// parameters back out of the encoded hash, so these can be raised later.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrMalformedHash    = errors.New("cryptox: malformed argon2id hash")
)

// Hasher hashes and verifies secrets (user passwords, client secrets) with
// Argon2id. The pepper is appended to every secret before hashing and is
// never stored next to the hashes.
type Hasher struct {
	pepper string

	// dummy is a valid hash of a random value, used to burn the same amount
	// of work when there is nothing to compare against.
	dummy string
}

// NewHasher returns a Hasher using the given pepper.
func NewHasher(pepper string) (*Hasher, error) {
	h := &Hasher{pepper: pepper}

	seed, err := GenerateToken(TokenSize128)
	if err != nil {
		return nil, err
	}
	if h.dummy, err = h.Hash(seed); err != nil {
		return nil, err
	}
	return h, nil
}

// Hash returns a PHC-format Argon2id hash of secret with a fresh salt.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	sum := argon2.IDKey([]byte(secret+h.pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify compares secret against an encoded hash in constant time. It
// returns ErrPasswordMismatch when they differ.
func (h *Hasher) Verify(secret, encoded string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return ErrMalformedHash
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: hash: %v", ErrMalformedHash, err)
	}

	got := argon2.IDKey([]byte(secret+h.pepper), salt, iters, mem, par, uint32(len(want))) // #nosec G115

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// VerifyDummy runs a full verification against a throwaway hash and always
// returns ErrPasswordMismatch. Callers use it when the account being
// checked does not exist so both paths cost the same.
func (h *Hasher) VerifyDummy(secret string) error {
	_ = h.Verify(secret, h.dummy)
	return ErrPasswordMismatch
}
