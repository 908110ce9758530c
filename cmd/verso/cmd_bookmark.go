package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/verso/pkg/commitlang"
	"github.com/odvcencio/verso/pkg/repo"
)

func newBookmarkCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Inspect bookmarks",
	}
	cmd.AddCommand(newBookmarkListCmd(opts))
	return cmd
}

func newBookmarkListCmd(opts *globalOptions) *cobra.Command {
	var allRemotes bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List bookmarks and their targets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}
			r, err := env.lang.BuildCommitRefTemplate(refTemplate())
			if err != nil {
				return err
			}
			view, err := env.repo.View()
			if err != nil {
				return err
			}
			return renderAll(env, r, listedRefs(view, allRemotes))
		},
	}

	cmd.Flags().BoolVarP(&allRemotes, "all-remotes", "a", false, "also show untracked remote bookmarks")

	return cmd
}

// listedRefs returns each local bookmark followed by its tracked remotes
// that differ from it. Untracked remotes are included when all is set.
func listedRefs(view *repo.View, all bool) []*commitlang.CommitRef {
	var refs []*commitlang.CommitRef
	for _, b := range view.Bookmarks() {
		if b.Local.IsPresent() {
			refs = append(refs, commitlang.LocalRef(b.Name, b.Local, b.Remotes))
		}
		for _, rb := range b.Remotes {
			ref := commitlang.RemoteRef(b.Name, rb.Remote, rb.Ref, b.Local)
			switch {
			case ref.IsTracked() && ref.IsSynced():
				continue
			case !ref.IsTracked() && !all:
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}
