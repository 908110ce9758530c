package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name for
// deterministic output. Each entry is one line:
//
//	mode hash name
//
// The name goes last so that it may contain spaces.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		mode := e.Mode
		if mode == "" {
			mode = TreeModeFile
		}
		fmt.Fprintf(&buf, "%s %s %s\n", mode, e.Hash, e.Name)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return tr, nil
	}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		switch parts[0] {
		case TreeModeDir, TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeConflict:
		default:
			return nil, fmt.Errorf("unmarshal tree: unknown mode %q", parts[0])
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: parts[0],
			Hash: Hash(parts[1]),
			Name: parts[2],
		})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// ConflictObj
// ---------------------------------------------------------------------------

// MarshalConflict serializes a ConflictObj as one line per term, adds and
// removes interleaved starting with the first add:
//
//	+ hash x
//	- hash -
//
// where an absent file is written as "-" and the trailing flag marks the
// executable bit.
func MarshalConflict(c *ConflictObj) []byte {
	var buf bytes.Buffer
	for i, add := range c.Adds {
		writeConflictTerm(&buf, '+', add)
		if i < len(c.Removes) {
			writeConflictTerm(&buf, '-', c.Removes[i])
		}
	}
	return buf.Bytes()
}

func writeConflictTerm(buf *bytes.Buffer, sign byte, term ConflictTerm) {
	exec := "-"
	if term.Executable {
		exec = "x"
	}
	fmt.Fprintf(buf, "%c %s %s\n", sign, hashOrDash(term.Hash), exec)
}

// UnmarshalConflict parses a ConflictObj from its serialized form.
func UnmarshalConflict(data []byte) (*ConflictObj, error) {
	c := &ConflictObj{}
	text := strings.TrimRight(string(data), "\n")
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal conflict: malformed term %q", line)
		}
		term := ConflictTerm{Hash: dashOrHash(parts[1]), Executable: parts[2] == "x"}
		switch parts[0] {
		case "+":
			c.Adds = append(c.Adds, term)
		case "-":
			c.Removes = append(c.Removes, term)
		default:
			return nil, fmt.Errorf("unmarshal conflict: bad sign %q", parts[0])
		}
	}
	if len(c.Adds) != len(c.Removes)+1 {
		return nil, fmt.Errorf("unmarshal conflict: %d adds and %d removes", len(c.Adds), len(c.Removes))
	}
	return c, nil
}

func hashOrDash(h Hash) string {
	if h == "" {
		return "-"
	}
	return string(h)
}

func dashOrHash(s string) Hash {
	if s == "-" {
		return Hash("")
	}
	return Hash(s)
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H       (zero or more)
//	change-id C
//	author NAME <EMAIL> UNIX TZ
//	committer NAME <EMAIL> UNIX TZ
//	signature S    (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "change-id %s\n", string(c.ChangeID))
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// CommitSigningPayload returns the bytes a commit signature covers: the
// serialized commit with its signature header left out.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "change-id":
			c.ChangeID = ChangeID(val)
		case "author", "committer":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: %s: %w", key, err)
			}
			if key == "author" {
				c.Author = sig
			} else {
				c.Committer = sig
			}
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	return c, nil
}

func formatSignature(s Signature) string {
	when := s.When
	if when.IsZero() {
		when = time.Unix(0, 0).UTC()
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, when.Unix(), when.Format("-0700"))
}

func parseSignature(val string) (Signature, error) {
	open := strings.LastIndexByte(val, '<')
	closing := strings.LastIndexByte(val, '>')
	if open < 0 || closing < open {
		return Signature{}, fmt.Errorf("malformed signature %q", val)
	}
	sig := Signature{
		Name:  strings.TrimSuffix(val[:open], " "),
		Email: val[open+1 : closing],
	}
	fields := strings.Fields(val[closing+1:])
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("malformed signature time %q", val)
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}
	offset, err := time.Parse("-0700", fields[1])
	if err != nil {
		return Signature{}, fmt.Errorf("bad timezone %q: %w", fields[1], err)
	}
	sig.When = time.Unix(secs, 0).In(offset.Location())
	return sig, nil
}
