// Package signing creates and verifies SSH signatures on commits.
package signing

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
)

const signaturePrefix = "sshsig-v1"

// ErrInvalidSignature is returned for a signature header that cannot be
// decoded.
var ErrInvalidSignature = errors.New("invalid commit signature")

// Status is the outcome of verifying a signature.
type Status string

const (
	// StatusGood means the signature verifies with a trusted key.
	StatusGood Status = "good"
	// StatusUnknown means the signature verifies but the key is not trusted.
	StatusUnknown Status = "unknown"
	// StatusBad means the signature does not match the commit.
	StatusBad Status = "bad"
)

// Verification describes a verified commit signature.
type Verification struct {
	Status Status
	// Key is the SHA256 fingerprint of the signing key.
	Key string
	// Display is the name configured for a trusted key.
	Display string
}

// NewSSHSigner returns a commit signer using the given private key.
func NewSSHSigner(privateKey []byte) (repo.CommitSigner, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	pubB64 := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())

	return func(payload []byte) (string, error) {
		sig, err := signer.Sign(rand.Reader, payload)
		if err != nil {
			return "", err
		}
		sigB64 := base64.StdEncoding.EncodeToString(sig.Blob)
		return fmt.Sprintf("%s:%s:%s:%s", signaturePrefix, sig.Format, pubB64, sigB64), nil
	}, nil
}

// LoadSSHSigner reads a private key from path. An empty path picks the
// first default key in ~/.ssh.
func LoadSSHSigner(path string) (repo.CommitSigner, string, error) {
	resolved, err := resolveKeyPath(path)
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key %q: %w", resolved, err)
	}
	signer, err := NewSSHSigner(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", resolved, err)
	}
	return signer, resolved, nil
}

// Verifier checks commit signatures against a set of trusted keys.
type Verifier struct {
	trusted map[string]string
}

// NewVerifier returns a verifier trusting the given fingerprint to name
// table.
func NewVerifier(trusted map[string]string) *Verifier {
	return &Verifier{trusted: trusted}
}

// VerifyCommit checks the signature header of c. It reports false when the
// commit is not signed.
func (v *Verifier) VerifyCommit(c *object.CommitObj) (Verification, bool, error) {
	if c == nil || c.Signature == "" {
		return Verification{}, false, nil
	}
	res, err := v.Verify(object.CommitSigningPayload(c), c.Signature)
	if err != nil {
		return Verification{}, true, err
	}
	return res, true, nil
}

// Verify checks an encoded signature over payload.
func (v *Verifier) Verify(payload []byte, encoded string) (Verification, error) {
	parts := strings.SplitN(encoded, ":", 4)
	if len(parts) != 4 || parts[0] != signaturePrefix {
		return Verification{}, ErrInvalidSignature
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Verification{}, fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return Verification{}, fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return Verification{}, fmt.Errorf("%w: signature: %v", ErrInvalidSignature, err)
	}

	res := Verification{Key: ssh.FingerprintSHA256(pub)}
	if err := pub.Verify(payload, &ssh.Signature{Format: parts[1], Blob: blob}); err != nil {
		res.Status = StatusBad
		return res, nil
	}
	if name, ok := v.trusted[res.Key]; ok {
		res.Status = StatusGood
		res.Display = name
		return res, nil
	}
	res.Status = StatusUnknown
	return res, nil
}

func resolveKeyPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		return expandUserPath(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		candidate := filepath.Join(home, ".ssh", name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
