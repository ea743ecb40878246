package bloom

import (
	"crypto/sha1" //nolint:gosec // used for index derivation, not for security
	"crypto/sha256"
	"crypto/sha512"
	"strings"

	"github.com/pkg/errors"
)

type Digest uint8

const (
	// DigestAuto picks the shortest digest able to host all index chunks.
	DigestAuto Digest = iota
	SHA1
	SHA256
	SHA512
)

var autoDigests = [...]Digest{SHA1, SHA256, SHA512}

func (d Digest) String() string {
	switch d {
	case DigestAuto:
		return "auto"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	}
	return "unknown"
}

func ParseDigest(name string) (Digest, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return DigestAuto, nil
	case "sha1", "sha-1":
		return SHA1, nil
	case "sha256", "sha-256":
		return SHA256, nil
	case "sha512", "sha-512":
		return SHA512, nil
	}
	return DigestAuto, errors.Wrapf(ErrInvalidParameters, "unknown digest %q", name)
}

// Size returns the digest length in bytes.
func (d Digest) Size() int {
	switch d {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	}
	return 0
}

func (d Digest) sum(data []byte) []byte {
	switch d {
	case SHA1:
		s := sha1.Sum(data) //nolint:gosec
		return s[:]
	case SHA256:
		s := sha256.Sum256(data)
		return s[:]
	case SHA512:
		s := sha512.Sum512(data)
		return s[:]
	}
	return nil
}

// resolve returns the concrete digest for hashFanout chunks of chunkBytes each.
func (d Digest) resolve(hashFanout uint64, chunkBytes int) (Digest, error) {
	if hashFanout > uint64(sha512.Size) {
		return d, errors.Wrapf(ErrInvalidParameters, "hash fanout %d exceeds any digest size", hashFanout)
	}
	need := int(hashFanout) * chunkBytes
	if d != DigestAuto {
		if d.Size() == 0 {
			return d, errors.Wrapf(ErrInvalidParameters, "unknown digest %d", uint8(d))
		}
		if need > d.Size() {
			return d, errors.Wrapf(
				ErrInvalidParameters,
				"%s digest has %d bytes, %d hashes of %d bytes need %d",
				d, d.Size(), hashFanout, chunkBytes, need,
			)
		}
		return d, nil
	}
	for _, candidate := range autoDigests {
		if need <= candidate.Size() {
			return candidate, nil
		}
	}
	return d, errors.Wrapf(ErrInvalidParameters, "%d hashes of %d bytes don't fit any digest", hashFanout, chunkBytes)
}
