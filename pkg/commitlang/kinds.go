package commitlang

import (
	"io"

	"github.com/odvcencio/verso/pkg/diff"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/templater"
	"github.com/odvcencio/verso/pkg/trailer"
)

// Kinds of the commit template language.
var (
	CommitKind         = &templater.Kind[*repo.Commit]{Name: "Commit"}
	OptionalCommitKind = templater.OptionKind(CommitKind)
	CommitListKind     = templater.ListKind(CommitKind, " ")

	CommitRefKind         = &templater.Kind[*CommitRef]{Name: "CommitRef", Render: renderCommitRef}
	OptionalCommitRefKind = templater.OptionKind(CommitRefKind)
	CommitRefListKind     = templater.ListKind(CommitRefKind, " ")

	RepoPathKind = &templater.Kind[repo.RepoPath]{
		Name: "RepoPath",
		Render: func(tf *templater.TemplateFormatter, p repo.RepoPath) error {
			_, err := io.WriteString(tf, string(p))
			return err
		},
	}
	OptionalRepoPathKind = templater.OptionKind(RepoPathKind)

	CommitOrChangeIDKind = &templater.Kind[CommitOrChangeID]{
		Name: "CommitOrChangeId",
		Render: func(tf *templater.TemplateFormatter, id CommitOrChangeID) error {
			_, err := io.WriteString(tf, id.Hex())
			return err
		},
	}

	ShortestIDPrefixKind = &templater.Kind[ShortestIDPrefix]{
		Name: "ShortestIdPrefix",
		Render: func(tf *templater.TemplateFormatter, p ShortestIDPrefix) error {
			if err := tf.WriteLabeled("prefix", p.Prefix); err != nil {
				return err
			}
			return tf.WriteLabeled("rest", p.Rest)
		},
	}

	TreeDiffKind          = &templater.Kind[*diff.TreeDiff]{Name: "TreeDiff"}
	TreeDiffEntryKind     = &templater.Kind[diff.Entry]{Name: "TreeDiffEntry"}
	TreeDiffEntryListKind = templater.ListKind(TreeDiffEntryKind, " ")
	TreeEntryKind         = &templater.Kind[TreeEntry]{Name: "TreeEntry"}

	DiffStatsKind = &templater.Kind[DiffStats]{
		Name: "DiffStats",
		Render: func(tf *templater.TemplateFormatter, s DiffStats) error {
			return s.Stats.Render(tf, s.Width)
		},
	}

	CryptographicSignatureKind         = &templater.Kind[*CryptographicSignature]{Name: "CryptographicSignature"}
	OptionalCryptographicSignatureKind = templater.OptionKind(CryptographicSignatureKind)

	AnnotationLineKind = &templater.Kind[AnnotationLine]{Name: "AnnotationLine"}

	TrailerKind = &templater.Kind[trailer.Trailer]{
		Name: "Trailer",
		Render: func(tf *templater.TemplateFormatter, t trailer.Trailer) error {
			_, err := io.WriteString(tf, t.String())
			return err
		},
	}
	TrailerListKind = templater.ListKind(TrailerKind, "\n")
)

func renderCommitRef(tf *templater.TemplateFormatter, r *CommitRef) error {
	if err := tf.WriteLabeled("name", r.name); err != nil {
		return err
	}
	if r.isRemote {
		if _, err := io.WriteString(tf, "@"); err != nil {
			return err
		}
		if err := tf.WriteLabeled("remote", r.remote); err != nil {
			return err
		}
	}
	// The conflict marker takes precedence over the unsynced marker.
	switch {
	case r.HasConflict():
		return tf.WriteLabeled("conflict", "??")
	case r.IsLocal() && !r.synced:
		_, err := io.WriteString(tf, "*")
		return err
	}
	return nil
}
