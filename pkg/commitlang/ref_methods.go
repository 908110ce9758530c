package commitlang

import (
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
	"github.com/odvcencio/verso/pkg/templater"
)

// OptionalStringKind is the kind of the remote name of a ref.
var OptionalStringKind = templater.OptionKind(templater.StringKind)

func (l *Language) commitRefMethods() templater.MethodTable {
	return templater.MethodTable{
		"name": keyword(CommitRefKind, templater.StringKind, (*CommitRef).Name),
		"remote": keyword(CommitRefKind, OptionalStringKind, func(r *CommitRef) templater.Option[string] {
			return option(r.Remote(), r.IsRemote())
		}),
		"present":  keyword(CommitRefKind, templater.BooleanKind, (*CommitRef).IsPresent),
		"conflict": keyword(CommitRefKind, templater.BooleanKind, (*CommitRef).HasConflict),
		"normal_target": tryKeyword(CommitRefKind, OptionalCommitKind, func(r *CommitRef) (templater.Option[*repo.Commit], error) {
			id, ok := r.Target().AsNormal()
			if !ok {
				return templater.None[*repo.Commit](), nil
			}
			c, err := l.repo.Commit(id)
			if err != nil {
				return templater.Option[*repo.Commit]{}, err
			}
			return templater.Some(c), nil
		}),
		"removed_targets": tryKeyword(CommitRefKind, CommitListKind, func(r *CommitRef) ([]*repo.Commit, error) {
			return l.commitsOf(r.Target().RemovedIDs())
		}),
		"added_targets": tryKeyword(CommitRefKind, CommitListKind, func(r *CommitRef) ([]*repo.Commit, error) {
			return l.commitsOf(r.Target().AddedIDs())
		}),
		"tracked":          keyword(CommitRefKind, templater.BooleanKind, (*CommitRef).IsTracked),
		"tracking_present": keyword(CommitRefKind, templater.BooleanKind, (*CommitRef).IsTrackingPresent),
		"tracking_ahead_count": l.trackingCount(func(r *CommitRef, idx *repo.Index) (revset.SizeHint, error) {
			return r.TrackingAheadCount(idx)
		}),
		"tracking_behind_count": l.trackingCount(func(r *CommitRef, idx *repo.Index) (revset.SizeHint, error) {
			return r.TrackingBehindCount(idx)
		}),
		"synced": keyword(CommitRefKind, templater.BooleanKind, (*CommitRef).IsSynced),
	}
}

func (l *Language) trackingCount(count func(*CommitRef, *repo.Index) (revset.SizeHint, error)) templater.MethodBuilder {
	return tryKeyword(CommitRefKind, templater.SizeHintKind, func(r *CommitRef) (templater.SizeHint, error) {
		idx, err := l.repo.Index()
		if err != nil {
			l.logger.Warn("failed to load index for tracking counts", "ref", r.Name(), "err", err)
			return templater.SizeHint{}, err
		}
		h, err := count(r, idx)
		if err != nil {
			return templater.SizeHint{}, err
		}
		return sizeHint(h), nil
	})
}

func sizeHint(h revset.SizeHint) templater.SizeHint {
	out := templater.SizeHint{Lower: int64(h.Lower)}
	if h.Upper != nil {
		out.Upper = templater.Some(int64(*h.Upper))
	}
	return out
}
