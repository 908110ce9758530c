package diff

import "github.com/odvcencio/verso/pkg/settings"

const defaultContext = 3

// ColorWordsOptions configures the color-words renderer.
type ColorWordsOptions struct {
	Context int
	// MaxInlineAlternation bounds how many changed word runs a line pair
	// may contain and still be shown inline. Zero disables inline output;
	// a negative value removes the bound.
	MaxInlineAlternation int
}

// GitOptions configures the git renderer.
type GitOptions struct {
	Context int
}

// Options holds every renderer's settings.
type Options struct {
	ColorWords    ColorWordsOptions
	Git           GitOptions
	ConflictStyle settings.ConflictMarkerStyle
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ColorWords:    ColorWordsOptions{Context: defaultContext, MaxInlineAlternation: 3},
		Git:           GitOptions{Context: defaultContext},
		ConflictStyle: settings.ConflictMarkerDiff,
	}
}

// OptionsFromSettings reads diff.* and ui.conflict-marker-style.
func OptionsFromSettings(s *settings.Settings) (Options, error) {
	opts := DefaultOptions()
	var err error
	if opts.ColorWords.Context, err = s.Int("diff.color-words.context", defaultContext); err != nil {
		return Options{}, err
	}
	if opts.ColorWords.MaxInlineAlternation, err = s.SignedInt("diff.color-words.max-inline-alternation", 3); err != nil {
		return Options{}, err
	}
	if opts.Git.Context, err = s.Int("diff.git.context", defaultContext); err != nil {
		return Options{}, err
	}
	if opts.ConflictStyle, err = s.ConflictMarkerStyle(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
