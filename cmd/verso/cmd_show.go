package main

import (
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show commit description and changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}
			r, err := env.lang.BuildCommitTemplate(showTemplate())
			if err != nil {
				return err
			}
			c, err := env.resolveSingle(revision)
			if err != nil {
				return err
			}
			return renderAll(env, r, []*repo.Commit{c})
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "@", "the revision to show")

	return cmd
}
