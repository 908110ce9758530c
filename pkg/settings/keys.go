package settings

import "fmt"

// ConflictMarkerStyle selects how conflicted file contents are rendered.
type ConflictMarkerStyle string

const (
	ConflictMarkerDiff     ConflictMarkerStyle = "diff"
	ConflictMarkerSnapshot ConflictMarkerStyle = "snapshot"
	ConflictMarkerGit      ConflictMarkerStyle = "git"
)

// ColorMode is the value of ui.color.
type ColorMode string

const (
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
	ColorAuto   ColorMode = "auto"
)

// Default revset aliases. User aliases with the same name replace these.
var defaultRevsetAliases = map[string]string{
	"trunk()":           `latest(remote_bookmarks(exact:"main", exact:"origin") | remote_bookmarks(exact:"master", exact:"origin") | remote_bookmarks(exact:"trunk", exact:"origin") | root())`,
	"immutable_heads()": `trunk() | tags() | untracked_remote_bookmarks()`,
}

func (s *Settings) UserName() (string, error)  { return s.String("user.name", "") }
func (s *Settings) UserEmail() (string, error) { return s.String("user.email", "") }

// ColorMode returns ui.color, defaulting to auto.
func (s *Settings) ColorMode() (ColorMode, error) {
	v, err := s.String("ui.color", string(ColorAuto))
	if err != nil {
		return "", err
	}
	switch m := ColorMode(v); m {
	case ColorAlways, ColorNever, ColorAuto:
		return m, nil
	}
	return "", fmt.Errorf("config ui.color: invalid value %q", v)
}

// ConflictMarkerStyle returns ui.conflict-marker-style, defaulting to diff.
func (s *Settings) ConflictMarkerStyle() (ConflictMarkerStyle, error) {
	v, err := s.String("ui.conflict-marker-style", string(ConflictMarkerDiff))
	if err != nil {
		return "", err
	}
	switch style := ConflictMarkerStyle(v); style {
	case ConflictMarkerDiff, ConflictMarkerSnapshot, ConflictMarkerGit:
		return style, nil
	}
	return "", fmt.Errorf("config ui.conflict-marker-style: invalid value %q", v)
}

// RevsetAliases returns the built-in aliases overlaid with revset-aliases.
func (s *Settings) RevsetAliases() (map[string]string, error) {
	user, err := s.StringTable("revset-aliases")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(defaultRevsetAliases)+len(user))
	for k, v := range defaultRevsetAliases {
		out[k] = v
	}
	for k, v := range user {
		out[k] = v
	}
	return out, nil
}

// ShortPrefixesRevset returns revsets.short-prefixes; empty means ids are
// disambiguated against the whole repository.
func (s *Settings) ShortPrefixesRevset() (string, error) {
	return s.String("revsets.short-prefixes", "")
}

// Colors returns the label to color table.
func (s *Settings) Colors() (map[string]string, error) { return s.StringTable("colors") }

// TrustedKeys maps SSH key fingerprints to display names.
func (s *Settings) TrustedKeys() (map[string]string, error) {
	return s.StringTable("signing.trusted-keys")
}
