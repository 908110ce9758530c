// Package commitlang is the template language for commits, refs, diffs and
// annotations.
package commitlang

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/odvcencio/verso/internal/lazy"
	"github.com/odvcencio/verso/internal/logging"
	"github.com/odvcencio/verso/pkg/idprefix"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
	"github.com/odvcencio/verso/pkg/settings"
	"github.com/odvcencio/verso/pkg/signing"
	"github.com/odvcencio/verso/pkg/templater"
)

// ImmutableRevset is the revset of commits that templates report as
// immutable.
const ImmutableRevset = "::immutable_heads()"

// Config is everything a Language reads from its surroundings.
type Config struct {
	Repo      *repo.Repo
	Settings  *settings.Settings
	Workspace string
	Paths     repo.PathConverter
	Revsets   *revset.ParseContext
	// IDPrefixes disambiguates shortest ids. Nil means the whole repository.
	IDPrefixes *idprefix.Context
	// Immutable is the revset behind the immutable keyword.
	Immutable     revset.Expression
	ConflictStyle settings.ConflictMarkerStyle
	Verifier      *signing.Verifier
	Logger        *slog.Logger
}

// ConfigFromSettings derives a Config from user settings: revset aliases,
// the user email, the short-prefixes revset, the conflict marker style and
// the trusted signing keys.
func ConfigFromSettings(r *repo.Repo, s *settings.Settings, workspace string, paths repo.PathConverter) (Config, error) {
	aliases, err := s.RevsetAliases()
	if err != nil {
		return Config{}, err
	}
	email, err := s.UserEmail()
	if err != nil {
		return Config{}, err
	}
	pctx, err := revset.NewParseContext(aliases, email, workspace, paths)
	if err != nil {
		return Config{}, err
	}
	immutable, err := revset.Parse(ImmutableRevset, pctx)
	if err != nil {
		return Config{}, fmt.Errorf("parse immutable_heads(): %w", err)
	}
	var disambiguation revset.Expression
	text, err := s.ShortPrefixesRevset()
	if err != nil {
		return Config{}, err
	}
	if text != "" {
		if disambiguation, err = revset.Parse(text, pctx); err != nil {
			return Config{}, fmt.Errorf("parse revsets.short-prefixes: %w", err)
		}
	}
	style, err := s.ConflictMarkerStyle()
	if err != nil {
		return Config{}, err
	}
	trusted, err := s.TrustedKeys()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Repo:          r,
		Settings:      s,
		Workspace:     workspace,
		Paths:         paths,
		Revsets:       pctx,
		IDPrefixes:    idprefix.NewContext(disambiguation, pctx),
		Immutable:     immutable,
		ConflictStyle: style,
		Verifier:      signing.NewVerifier(trusted),
	}, nil
}

// Language binds commit templates. Derived data such as the ref indexes
// is computed on first use and shared by every template built from the
// same Language.
type Language struct {
	repo          *repo.Repo
	settings      *settings.Settings
	workspace     string
	paths         repo.PathConverter
	revsets       *revset.ParseContext
	idPrefixes    *idprefix.Context
	immutable     revset.Expression
	conflictStyle settings.ConflictMarkerStyle
	verifier      *signing.Verifier
	logger        *slog.Logger

	builder   *templater.Builder
	cache     keywordCache
	extCaches map[reflect.Type]*extensionCache
}

type keywordCache struct {
	bookmarks   lazy.Cell[*CommitRefsIndex]
	tags        lazy.Cell[*CommitRefsIndex]
	gitRefs     lazy.Cell[*CommitRefsIndex]
	isImmutable lazy.Cell[func(object.Hash) bool]
	idIndex     lazy.Cell[idIndexResult]
}

type idIndexResult struct {
	index *idprefix.Index
	err   error
}

// Extension adds methods and caches to a Language.
type Extension interface {
	// Table returns the functions and methods the extension defines.
	Table(l *Language) (*templater.Table, error)
	// Caches returns the caches the extension's methods read through
	// CacheExtension.
	Caches() []Cache
}

// Cache is a lazily built value owned by a Language.
type Cache struct {
	typ   reflect.Type
	build func(l *Language) (any, error)
}

// NewCache returns a cache of type T built by build on first access.
func NewCache[T any](build func(l *Language) (T, error)) Cache {
	return Cache{
		typ:   reflect.TypeFor[T](),
		build: func(l *Language) (any, error) { return build(l) },
	}
}

type extensionCache struct {
	build func(l *Language) (any, error)
	value lazy.Cell[any]
}

// CacheExtension returns the cache of type T, building it on first use.
func CacheExtension[T any](l *Language) (T, error) {
	var zero T
	c, ok := l.extCaches[reflect.TypeFor[T]()]
	if !ok {
		return zero, fmt.Errorf("no cache of type %v registered", reflect.TypeFor[T]())
	}
	v, err := c.value.GetOrTryInit(func() (any, error) { return c.build(l) })
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// NewLanguage returns a language for cfg. Extensions that redefine a
// method, a function or a cache type fail with
// templater.ErrConflictingDefinition.
func NewLanguage(cfg Config, extensions ...Extension) (*Language, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("commitlang: no repository")
	}
	l := &Language{
		repo:          cfg.Repo,
		settings:      cfg.Settings,
		workspace:     cfg.Workspace,
		paths:         cfg.Paths,
		revsets:       cfg.Revsets,
		idPrefixes:    cfg.IDPrefixes,
		immutable:     cfg.Immutable,
		conflictStyle: cfg.ConflictStyle,
		verifier:      cfg.Verifier,
		logger:        cfg.Logger,
		extCaches:     map[reflect.Type]*extensionCache{},
	}
	if l.settings == nil {
		l.settings = settings.Empty()
	}
	if l.revsets == nil {
		pctx, err := revset.NewParseContext(nil, "", cfg.Workspace, cfg.Paths)
		if err != nil {
			return nil, err
		}
		l.revsets = pctx
	}
	if l.idPrefixes == nil {
		l.idPrefixes = idprefix.NewContext(nil, l.revsets)
	}
	if l.conflictStyle == "" {
		l.conflictStyle = settings.ConflictMarkerDiff
	}
	if l.verifier == nil {
		l.verifier = signing.NewVerifier(nil)
	}
	if l.logger == nil {
		l.logger = logging.Discard()
	}

	tables := []*templater.Table{l.builtinTable()}
	for _, ext := range extensions {
		t, err := ext.Table(l)
		if err != nil {
			return nil, err
		}
		if t != nil {
			tables = append(tables, t)
		}
		for _, c := range ext.Caches() {
			if _, ok := l.extCaches[c.typ]; ok {
				return nil, fmt.Errorf("cache %v: %w", c.typ, templater.ErrConflictingDefinition)
			}
			l.extCaches[c.typ] = &extensionCache{build: c.build}
		}
	}
	b, err := templater.NewBuilder(tables...)
	if err != nil {
		return nil, err
	}
	l.builder = b
	return l, nil
}

func (l *Language) Repo() *repo.Repo                    { return l.repo }
func (l *Language) Settings() *settings.Settings        { return l.settings }
func (l *Language) Workspace() string                   { return l.workspace }
func (l *Language) Paths() repo.PathConverter           { return l.paths }
func (l *Language) RevsetContext() *revset.ParseContext { return l.revsets }
func (l *Language) Logger() *slog.Logger                { return l.logger }

// Builder returns the builder binding templates in this language.
func (l *Language) Builder() *templater.Builder { return l.builder }

// Diagnostics returns the warnings recorded while building templates.
func (l *Language) Diagnostics() *templater.Diagnostics { return l.builder.Diagnostics() }

// BuildCommitTemplate binds node with commit keywords.
func (l *Language) BuildCommitTemplate(node templater.ExpressionNode) (*templater.Renderer[*repo.Commit], error) {
	return templater.BuildRenderer(l.builder, CommitKind, node)
}

// BuildCommitRefTemplate binds node with ref keywords.
func (l *Language) BuildCommitRefTemplate(node templater.ExpressionNode) (*templater.Renderer[*CommitRef], error) {
	return templater.BuildRenderer(l.builder, CommitRefKind, node)
}

// BuildAnnotationTemplate binds node with annotation line keywords.
func (l *Language) BuildAnnotationTemplate(node templater.ExpressionNode) (*templater.Renderer[AnnotationLine], error) {
	return templater.BuildRenderer(l.builder, AnnotationLineKind, node)
}

// BookmarksIndex returns the index of local and remote bookmarks.
func (l *Language) BookmarksIndex() (*CommitRefsIndex, error) {
	return l.cache.bookmarks.GetOrTryInit(func() (*CommitRefsIndex, error) {
		view, err := l.repo.View()
		if err != nil {
			return nil, err
		}
		return BuildBookmarksIndex(view), nil
	})
}

// TagsIndex returns the index of tags.
func (l *Language) TagsIndex() (*CommitRefsIndex, error) {
	return l.cache.tags.GetOrTryInit(func() (*CommitRefsIndex, error) {
		view, err := l.repo.View()
		if err != nil {
			return nil, err
		}
		return BuildNamedRefsIndex(view.Tags()), nil
	})
}

// GitRefsIndex returns the index of git refs.
func (l *Language) GitRefsIndex() (*CommitRefsIndex, error) {
	return l.cache.gitRefs.GetOrTryInit(func() (*CommitRefsIndex, error) {
		view, err := l.repo.View()
		if err != nil {
			return nil, err
		}
		return BuildNamedRefsIndex(view.GitRefs()), nil
	})
}

// IsImmutableFn returns the membership test of the immutable revset. The
// revset is evaluated once.
func (l *Language) IsImmutableFn() (func(object.Hash) bool, error) {
	return l.cache.isImmutable.GetOrTryInit(func() (func(object.Hash) bool, error) {
		set, err := revset.Evaluate(l.immutable, l.repo, l.revsets)
		if err != nil {
			return nil, err
		}
		return set.ContainingFn(), nil
	})
}

// IDPrefixIndex returns the shortest-prefix index. When the
// disambiguation revset cannot be evaluated it returns an index over the
// whole repository together with the evaluation error.
func (l *Language) IDPrefixIndex() (*idprefix.Index, error) {
	res := l.cache.idIndex.GetOrInit(func() idIndexResult {
		idx, err := l.idPrefixes.Populate(l.repo)
		if err != nil {
			l.logger.Warn("failed to load short-prefixes index", "err", err)
			return idIndexResult{index: idprefix.EmptyIndex(l.repo), err: err}
		}
		return idIndexResult{index: idx}
	})
	return res.index, res.err
}

// evaluateRevset parses and evaluates a revset literal found at span.
func (l *Language) evaluateRevset(text string, span templater.Span) (*revset.Revset, error) {
	expr, err := revset.Parse(text, l.revsets)
	if err != nil {
		return nil, templater.ExpressionError(span, err, "In revset expression")
	}
	set, err := revset.Evaluate(expr, l.repo, l.revsets)
	if err != nil {
		return nil, templater.ExpressionError(span, err, "Failed to evaluate revset")
	}
	return set, nil
}
