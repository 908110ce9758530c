package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "verso",
		Short:         "Render commits, bookmarks and annotations through templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.repoPath, "repository", "R", ".", "path to the repository")
	root.PersistentFlags().StringVar(&opts.color, "color", "", "when to colorize output (always, never, auto)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.workspace, "workspace", defaultWorkspace, "workspace whose working copy @ refers to")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newBookmarkCmd(opts))
	root.AddCommand(newFileCmd(opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "verso %s\n", version)
		},
	}
}
