package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/odvcencio/verso/internal/logging"
	"github.com/odvcencio/verso/pkg/commitlang"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
	"github.com/odvcencio/verso/pkg/settings"
	"github.com/odvcencio/verso/pkg/templater"
)

const defaultWorkspace = "default"

type globalOptions struct {
	repoPath  string
	color     string
	logLevel  string
	workspace string
}

// commandEnv is what every template command needs: the repository, its
// settings and a commit language bound to them.
type commandEnv struct {
	repo     *repo.Repo
	settings *settings.Settings
	paths    repo.PathConverter
	lang     *commitlang.Language
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
	color    string
}

func loadEnv(cmd *cobra.Command, opts *globalOptions) (*commandEnv, error) {
	level := logging.LevelFromEnv(slog.LevelWarn)
	if opts.logLevel != "" {
		var err error
		if level, err = logging.ParseLevel(opts.logLevel); err != nil {
			return nil, err
		}
	}
	logger := logging.New(logging.WithOutput(cmd.ErrOrStderr()), logging.WithLevel(level))

	r, err := repo.Open(opts.repoPath)
	if err != nil {
		return nil, err
	}
	s, err := settings.Load(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	paths, err := pathConverter(r)
	if err != nil {
		return nil, err
	}
	cfg, err := commitlang.ConfigFromSettings(r, s, opts.workspace, paths)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	cfg.Logger = logger
	lang, err := commitlang.NewLanguage(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened repository", "root", r.RootDir, "workspace", opts.workspace)
	return &commandEnv{
		repo:     r,
		settings: s,
		paths:    paths,
		lang:     lang,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		color:    opts.color,
	}, nil
}

// pathConverter resolves paths against the working directory, or against
// the repository root when the working directory lies outside it.
func pathConverter(r *repo.Repo) (repo.PathConverter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return repo.PathConverter{}, err
	}
	rel, err := filepath.Rel(r.RootDir, cwd)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		cwd = r.RootDir
	}
	return repo.PathConverter{Cwd: cwd, Root: r.RootDir}, nil
}

// formatter returns a color formatter when color is enabled for the
// output stream, and a plain one otherwise.
func (e *commandEnv) formatter() (templater.Formatter, error) {
	mode := settings.ColorMode(e.color)
	if e.color == "" {
		var err error
		if mode, err = e.settings.ColorMode(); err != nil {
			return nil, err
		}
	}
	switch mode {
	case settings.ColorAlways:
	case settings.ColorNever:
		return templater.NewPlainFormatter(e.out), nil
	case settings.ColorAuto:
		if !isTerminal(e.out) {
			return templater.NewPlainFormatter(e.out), nil
		}
	default:
		return nil, fmt.Errorf("invalid color mode %q (want always, never or auto)", mode)
	}
	colors, err := e.settings.Colors()
	if err != nil {
		return nil, err
	}
	return templater.NewColorFormatter(e.out, colors)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportWarnings prints the diagnostics collected while building templates.
func (e *commandEnv) reportWarnings() {
	for _, w := range e.lang.Diagnostics().Warnings() {
		fmt.Fprintf(e.errOut, "Warning: %v\n", w)
	}
}

// evaluate resolves a revset to commits, newest first.
func (e *commandEnv) evaluate(text string) ([]*repo.Commit, error) {
	pctx := e.lang.RevsetContext()
	expr, err := revset.Parse(text, pctx)
	if err != nil {
		return nil, fmt.Errorf("parse revset %q: %w", text, err)
	}
	set, err := revset.Evaluate(expr, e.repo, pctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate revset %q: %w", text, err)
	}
	commits := make([]*repo.Commit, 0, set.Len())
	for id := range set.Iter() {
		c, err := e.repo.Commit(id)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// resolveSingle resolves a revset that must name exactly one commit.
func (e *commandEnv) resolveSingle(text string) (*repo.Commit, error) {
	commits, err := e.evaluate(text)
	if err != nil {
		return nil, err
	}
	switch len(commits) {
	case 0:
		return nil, fmt.Errorf("revset %q didn't resolve to any revisions", text)
	case 1:
		return commits[0], nil
	}
	return nil, fmt.Errorf("revset %q resolved to more than one revision", text)
}

// renderAll renders every record with r. Evaluation errors are shown
// inline, so only write failures stop the loop.
func renderAll[T any](e *commandEnv, r *templater.Renderer[T], records []T) error {
	f, err := e.formatter()
	if err != nil {
		return err
	}
	e.reportWarnings()
	for _, rec := range records {
		if err := r.Format(f, rec); err != nil {
			return err
		}
	}
	return nil
}
