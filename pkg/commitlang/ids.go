package commitlang

import (
	"strings"

	"github.com/odvcencio/verso/pkg/idprefix"
	"github.com/odvcencio/verso/pkg/object"
)

// CommitOrChangeID is either a commit id or a change id.
type CommitOrChangeID struct {
	commit   object.Hash
	change   object.ChangeID
	isChange bool
}

func CommitID(id object.Hash) CommitOrChangeID { return CommitOrChangeID{commit: id} }

func ChangeID(id object.ChangeID) CommitOrChangeID {
	return CommitOrChangeID{change: id, isChange: true}
}

// Hex renders commit ids in hex and change ids in reverse hex.
func (id CommitOrChangeID) Hex() string {
	if id.isChange {
		return id.change.ReverseHex()
	}
	return id.commit.Hex()
}

// NormalHex renders either id in hex.
func (id CommitOrChangeID) NormalHex() string {
	if id.isChange {
		return id.change.Hex()
	}
	return id.commit.Hex()
}

// Short returns at most n leading digits of Hex.
func (id CommitOrChangeID) Short(n int) string {
	hex := id.Hex()
	if n < len(hex) {
		return hex[:n]
	}
	return hex
}

// Shortest splits Hex into the unique prefix and enough of the rest to
// make at least minLen digits.
func (id CommitOrChangeID) Shortest(idx *idprefix.Index, minLen int) (ShortestIDPrefix, error) {
	var (
		n   int
		err error
	)
	if id.isChange {
		n, err = idx.ShortestChangePrefixLen(id.change)
	} else {
		n, err = idx.ShortestCommitPrefixLen(id.commit)
	}
	if err != nil {
		return ShortestIDPrefix{}, err
	}
	hex := id.Hex()
	n = min(n, len(hex))
	total := min(max(n, minLen), len(hex))
	return ShortestIDPrefix{Prefix: hex[:n], Rest: hex[n:total]}, nil
}

// ShortestIDPrefix is an id split into its unique prefix and the digits
// shown after it.
type ShortestIDPrefix struct {
	Prefix string
	Rest   string
}

func (p ShortestIDPrefix) Upper() ShortestIDPrefix {
	return ShortestIDPrefix{Prefix: strings.ToUpper(p.Prefix), Rest: strings.ToUpper(p.Rest)}
}

func (p ShortestIDPrefix) Lower() ShortestIDPrefix {
	return ShortestIDPrefix{Prefix: strings.ToLower(p.Prefix), Rest: strings.ToLower(p.Rest)}
}
