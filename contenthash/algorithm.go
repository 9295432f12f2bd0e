package contenthash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
	"golang.org/x/crypto/sha3"
)

// Algorithm identifies the digest function used for both the per-block
// digests and the digest of their concatenation.
type Algorithm uint8

// Supported algorithms. SHA256 is the zero value and the production default.
const (
	SHA256 Algorithm = iota
	SHA1
	SHA224
	SHA384
	SHA512
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
	MD5
	RIPEMD160
	BLAKE2b512
	BLAKE2s256

	numAlgorithms
)

type algorithmInfo struct {
	name string
	size int
	weak bool
	new  func() hash.Hash
}

var algorithms = [numAlgorithms]algorithmInfo{
	SHA256:     {name: "sha256", size: sha256.Size, new: sha256.New},
	SHA1:       {name: "sha1", size: sha1.Size, weak: true, new: sha1.New},
	SHA224:     {name: "sha224", size: sha256.Size224, new: sha256.New224},
	SHA384:     {name: "sha384", size: sha512.Size384, new: sha512.New384},
	SHA512:     {name: "sha512", size: sha512.Size, new: sha512.New},
	SHA3_224:   {name: "sha3-224", size: 28, new: sha3.New224},
	SHA3_256:   {name: "sha3-256", size: 32, new: sha3.New256},
	SHA3_384:   {name: "sha3-384", size: 48, new: sha3.New384},
	SHA3_512:   {name: "sha3-512", size: 64, new: sha3.New512},
	MD5:        {name: "md5", size: md5.Size, weak: true, new: md5.New},
	RIPEMD160:  {name: "ripemd160", size: ripemd160.Size, new: ripemd160.New},
	BLAKE2b512: {name: "blake2b-512", size: blake2b.Size, new: newBLAKE2b512},
	BLAKE2s256: {name: "blake2s-256", size: blake2s.Size, new: newBLAKE2s256},
}

func newBLAKE2b512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// Only returned for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

func newBLAKE2s256() hash.Hash {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// Algorithms returns every supported algorithm in declaration order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, numAlgorithms)
	for a := Algorithm(0); a < numAlgorithms; a++ {
		out = append(out, a)
	}
	return out
}

// ParseAlgorithm resolves a name such as "sha256", "SHA-256", "sha3_256" or
// "blake2b-512". Case and '-'/'_' separators are ignored.
func ParseAlgorithm(name string) (Algorithm, error) {
	want := foldName(name)
	if want != "" {
		for a := Algorithm(0); a < numAlgorithms; a++ {
			if foldName(algorithms[a].name) == want {
				return a, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func foldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool { return a < numAlgorithms }

// String returns the canonical lowercase name.
func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
	return algorithms[a].name
}

// Size returns the native digest size in bytes.
func (a Algorithm) Size() int { return a.info().size }

// Weak reports whether the algorithm is kept only for compatibility
// (MD5 and SHA-1).
func (a Algorithm) Weak() bool { return a.info().weak }

// New returns a fresh hash.Hash for a.
func (a Algorithm) New() hash.Hash { return a.info().new() }

// Digest returns the digest of p.
func (a Algorithm) Digest(p []byte) []byte {
	h := a.New()
	h.Write(p)
	return h.Sum(nil)
}

// info panics on an invalid Algorithm. Callers validate names with
// ParseAlgorithm before reaching the hashing code.
func (a Algorithm) info() *algorithmInfo {
	if !a.Valid() {
		panic(fmt.Sprintf("contenthash: invalid algorithm %d", uint8(a)))
	}
	return &algorithms[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
