package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/verso/pkg/commitlang"
)

func newFileCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect files in a revision",
	}
	cmd.AddCommand(newFileAnnotateCmd(opts))
	return cmd
}

func newFileAnnotateCmd(opts *globalOptions) *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "annotate <path>",
		Short: "Show the commit that last changed each line of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}
			r, err := env.lang.BuildAnnotationTemplate(annotateTemplate())
			if err != nil {
				return err
			}
			c, err := env.resolveSingle(revision)
			if err != nil {
				return err
			}
			path, err := env.paths.ParseFilePath(args[0])
			if err != nil {
				return err
			}
			annotated, err := env.repo.Annotate(c.ID(), path)
			if err != nil {
				return err
			}
			lines, err := commitlang.AnnotationLines(env.repo, annotated)
			if err != nil {
				return err
			}
			return renderAll(env, r, lines)
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "@", "the revision to annotate")

	return cmd
}
