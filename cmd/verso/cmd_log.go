package main

import (
	"github.com/spf13/cobra"
)

func newLogCmd(opts *globalOptions) *cobra.Command {
	var revisions string
	var templateName string
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commits in a revset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}
			node, err := commitTemplate(templateName)
			if err != nil {
				return err
			}
			r, err := env.lang.BuildCommitTemplate(node)
			if err != nil {
				return err
			}
			commits, err := env.evaluate(revisions)
			if err != nil {
				return err
			}
			if limit > 0 && len(commits) > limit {
				commits = commits[:limit]
			}
			return renderAll(env, r, commits)
		},
	}

	cmd.Flags().StringVarP(&revisions, "revisions", "r", "::visible_heads()", "revset of commits to show")
	cmd.Flags().StringVarP(&templateName, "template", "T", "builtin_log_compact", "builtin template to render each commit with")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show")
	cmd.Flags().Bool("no-graph", false, "accepted for compatibility; output is never drawn as a graph")

	return cmd
}
