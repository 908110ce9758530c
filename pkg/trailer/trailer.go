// Package trailer parses "Key: value" trailers from commit descriptions.
package trailer

import "strings"

// Trailer is one key/value pair from the trailer block of a description.
type Trailer struct {
	Key   string
	Value string
}

// String formats the trailer the way it appears in a description.
func (t Trailer) String() string { return t.Key + ": " + t.Value }

// Parse returns the trailers in the last paragraph of description. The
// paragraph counts as a trailer block only if every line is a trailer or
// an indented continuation of the previous one. A description with a
// single paragraph has no trailers.
func Parse(description string) []Trailer {
	paragraphs := splitParagraphs(description)
	if len(paragraphs) < 2 {
		return nil
	}
	var out []Trailer
	for _, line := range paragraphs[len(paragraphs)-1] {
		if line[0] == ' ' || line[0] == '\t' {
			if len(out) == 0 {
				return nil
			}
			last := &out[len(out)-1]
			last.Value += " " + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || !validKey(key) {
			return nil
		}
		out = append(out, Trailer{Key: key, Value: strings.TrimSpace(value)})
	}
	return out
}

func splitParagraphs(s string) [][]string {
	var (
		out [][]string
		cur []string
	)
	for line := range strings.SplitSeq(strings.TrimRight(s, "\n"), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if cur != nil {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if cur != nil {
		out = append(out, cur)
	}
	return out
}

func validKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
