package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestHashBytesDeterminism(t *testing.T) {
	data := []byte("hello world")
	h1 := HashBytes(data)
	h2 := HashBytes(data)
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("Hash length: got %d, want 64", len(h1))
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	if HashObject(TypeBlob, data) == HashBytes(data) {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}
	if HashObject(TypeBlob, data) == HashObject(TypeTree, data) {
		t.Error("Different types should produce different hashes")
	}
}

func TestHashValidAndShort(t *testing.T) {
	h := HashBytes([]byte("x"))
	tests := []struct {
		in   Hash
		want bool
	}{
		{h, true},
		{ZeroHash, true},
		{h[:12], false},
		{Hash(strings.ToUpper(string(h))), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := h.Short(8); got != string(h[:8]) {
		t.Errorf("Short(8) = %q", got)
	}
	if got := Hash("abc").Short(8); got != "abc" {
		t.Errorf("Short on short hash = %q", got)
	}
	if got := h.Digest().String(); got != "sha256:"+string(h) {
		t.Errorf("Digest = %q", got)
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreObjectsAreCompressed(t *testing.T) {
	s := tempStore(t)
	data := bytes.Repeat([]byte("compressible line\n"), 200)
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(s.root, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) >= len(data) {
		t.Errorf("on-disk size %d, want less than %d", len(raw), len(data))
	}
	if bytes.HasPrefix(raw, []byte("blob ")) {
		t.Error("object stored uncompressed")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, _, err := s.Read(ZeroHash)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing: got %v, want ErrNotFound", err)
	}
	if s.Has(ZeroHash) {
		t.Error("Has returned true for missing object")
	}
}

func TestStoreDuplicateWrite(t *testing.T) {
	s := tempStore(t)
	h1, err := s.Write(TypeBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Same content produced different hashes: %q vs %q", h1, h2)
	}
}

func TestStoreWriteReadCommit(t *testing.T) {
	s := tempStore(t)
	when := time.Unix(1700000000, 0).In(time.FixedZone("", 2*3600))
	orig := &CommitObj{
		TreeHash: HashBytes([]byte("tree")),
		Parents:  []Hash{HashBytes([]byte("p1")), HashBytes([]byte("p2"))},
		ChangeID: ChangeID("0123456789abcdef0123456789abcdef"),
		Author:   Signature{Name: "Test User", Email: "test.user@example.com", When: when},
		Committer: Signature{
			Name: "Other", Email: "other@example.com", When: when.Add(time.Hour),
		},
		Message: "desc\ndetails\n",
	}
	h, err := s.WriteCommit(orig)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	got, err := s.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if diff := cmp.Diff(orig.Parents, got.Parents); diff != "" {
		t.Errorf("Parents mismatch (-want +got):\n%s", diff)
	}
	if got.Message != orig.Message || got.ChangeID != orig.ChangeID {
		t.Errorf("commit round-trip mismatch: %+v", got)
	}
	if got.Author.Name != "Test User" || got.Author.Email != "test.user@example.com" {
		t.Errorf("author: got %+v", got.Author)
	}
	if !got.Author.When.Equal(when) {
		t.Errorf("author time: got %v, want %v", got.Author.When, when)
	}
	if _, off := got.Author.When.Zone(); off != 2*3600 {
		t.Errorf("author tz offset: got %d, want 7200", off)
	}
}

func TestStoreReadBlobTypeMismatch(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteTree(&TreeObj{})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := s.ReadBlob(h); err == nil {
		t.Fatal("ReadBlob of a tree should fail")
	}
}

func TestStoreWriteReadConflict(t *testing.T) {
	s := tempStore(t)
	orig := &ConflictObj{
		Removes: []ConflictTerm{{Hash: HashBytes([]byte("base"))}},
		Adds: []ConflictTerm{
			{Hash: HashBytes([]byte("left")), Executable: true},
			{},
		},
	}
	h, err := s.WriteConflict(orig)
	if err != nil {
		t.Fatalf("WriteConflict: %v", err)
	}
	got, err := s.ReadConflict(h)
	if err != nil {
		t.Fatalf("ReadConflict: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("conflict mismatch (-want +got):\n%s", diff)
	}
}
