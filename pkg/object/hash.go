package object

import (
	_ "crypto/sha256" // registers the hash go-digest uses
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// ZeroHash is the id of the virtual root commit.
const ZeroHash Hash = "0000000000000000000000000000000000000000000000000000000000000000"

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// Hex returns the hash as a plain string.
func (h Hash) Hex() string { return string(h) }

// Short returns the first n hex digits of h.
func (h Hash) Short(n int) string {
	if n >= len(h) {
		return string(h)
	}
	return string(h[:n])
}

// Valid reports whether h is a full-length lowercase hex id.
func (h Hash) Valid() bool {
	return digest.SHA256.Validate(string(h)) == nil
}

// Digest returns h in the "sha256:<hex>" form used by OCI registries.
func (h Hash) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, string(h))
}

// envelope is the header prefixed to every stored object.
func envelope(t ObjectType, size int) []byte {
	return fmt.Appendf(nil, "%s %d\x00", t, size)
}

// HashBytes returns the SHA-256 of data.
func HashBytes(data []byte) Hash {
	return Hash(digest.SHA256.FromBytes(data).Encoded())
}

// HashObject returns the id of an object: the SHA-256 of its uncompressed
// envelope and content.
func HashObject(t ObjectType, data []byte) Hash {
	d := digest.SHA256.Digester()
	h := d.Hash()
	h.Write(envelope(t, len(data)))
	h.Write(data)
	return Hash(d.Digest().Encoded())
}
