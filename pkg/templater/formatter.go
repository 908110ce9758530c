package templater

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Formatter receives rendered text. Labels nest and tell a color-aware
// formatter how to style the text written while they are pushed. A label
// may hold several space-separated names.
type Formatter interface {
	io.Writer
	PushLabel(label string)
	PopLabel()
}

// PlainFormatter writes text and ignores labels.
type PlainFormatter struct {
	w io.Writer
}

func NewPlainFormatter(w io.Writer) *PlainFormatter { return &PlainFormatter{w: w} }

func (f *PlainFormatter) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *PlainFormatter) PushLabel(string)            {}
func (f *PlainFormatter) PopLabel()                   {}

var defaultColors = map[string]string{
	"error":          "red",
	"prefix":         "bold magenta",
	"rest":           "bright black",
	"name":           "magenta",
	"remote":         "magenta",
	"conflict":       "red",
	"file_header":    "bold",
	"hunk_header":    "cyan",
	"removed":        "red",
	"added":          "green",
	"removed token":  "bold red",
	"added token":    "bold green",
	"modified":       "cyan",
	"renamed":        "cyan",
	"copied":         "green",
	"stat-summary":   "default",
	"line_number":    "bright black",
	"timestamp":      "cyan",
	"email":          "yellow",
	"description":    "default",
	"working_copies": "green",
}

type colorRule struct {
	labels []string
	code   string
}

// ColorFormatter styles text with ANSI escapes according to label rules.
// A rule "a b" matches when a and b are both pushed, b inside a. Among
// matching rules the one whose innermost label is deepest wins, then the
// one naming more labels.
type ColorFormatter struct {
	w      io.Writer
	rules  []colorRule
	labels []string
	groups []int
}

// NewColorFormatter returns a formatter using the default colors overlaid
// with colors. It fails on an unknown color name.
func NewColorFormatter(w io.Writer, colors map[string]string) (*ColorFormatter, error) {
	table := maps.Clone(defaultColors)
	maps.Copy(table, colors)
	f := &ColorFormatter{w: w}
	for _, key := range slices.Sorted(maps.Keys(table)) {
		code, err := ansiCode(table[key])
		if err != nil {
			return nil, fmt.Errorf("color for %q: %w", key, err)
		}
		f.rules = append(f.rules, colorRule{labels: strings.Fields(key), code: code})
	}
	return f, nil
}

func (f *ColorFormatter) PushLabel(label string) {
	names := strings.Fields(label)
	f.labels = append(f.labels, names...)
	f.groups = append(f.groups, len(names))
}

func (f *ColorFormatter) PopLabel() {
	if len(f.groups) == 0 {
		return
	}
	n := f.groups[len(f.groups)-1]
	f.groups = f.groups[:len(f.groups)-1]
	f.labels = f.labels[:len(f.labels)-n]
}

func (f *ColorFormatter) Write(p []byte) (int, error) {
	code := f.currentCode()
	if code == "" {
		return f.w.Write(p)
	}
	var b strings.Builder
	lines := strings.Split(string(p), "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line != "" {
			b.WriteString("\x1b[" + code + "m" + line + "\x1b[0m")
		}
	}
	if _, err := io.WriteString(f.w, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *ColorFormatter) currentCode() string {
	bestDepth, bestLen := -1, 0
	code := ""
	for _, rule := range f.rules {
		depth := matchDepth(f.labels, rule.labels)
		if depth < 0 {
			continue
		}
		if depth > bestDepth || (depth == bestDepth && len(rule.labels) > bestLen) {
			bestDepth, bestLen, code = depth, len(rule.labels), rule.code
		}
	}
	return code
}

// matchDepth returns the stack index matched by the last rule label, or -1
// when the rule labels are not a subsequence of the stack.
func matchDepth(stack, rule []string) int {
	if len(rule) == 0 {
		return -1
	}
	j, last := 0, -1
	for i, label := range stack {
		if j < len(rule) && label == rule[j] {
			j++
			last = i
		}
	}
	if j < len(rule) {
		return -1
	}
	return last
}

var colorNames = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

func ansiCode(spec string) (string, error) {
	var codes []string
	words := strings.Fields(spec)
	for i := 0; i < len(words); i++ {
		switch w := words[i]; w {
		case "default":
			continue
		case "bold":
			codes = append(codes, "1")
		case "underline":
			codes = append(codes, "4")
		case "bright":
			if i+1 >= len(words) {
				return "", fmt.Errorf("invalid color %q", spec)
			}
			i++
			n, ok := colorIndex(words[i])
			if !ok {
				return "", fmt.Errorf("invalid color %q", spec)
			}
			codes = append(codes, strconv.Itoa(90+n))
		default:
			n, ok := colorIndex(w)
			if !ok {
				return "", fmt.Errorf("invalid color %q", spec)
			}
			codes = append(codes, strconv.Itoa(30+n))
		}
	}
	return strings.Join(codes, ";"), nil
}

func colorIndex(name string) (int, bool) {
	for i, n := range colorNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

type recordOp struct {
	push  string
	pop   bool
	write []byte
}

// Recorder buffers formatter operations so they can be inspected and
// replayed.
type Recorder struct {
	ops []recordOp
}

func (r *Recorder) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.ops = append(r.ops, recordOp{write: append([]byte(nil), p...)})
	return len(p), nil
}

func (r *Recorder) PushLabel(label string) { r.ops = append(r.ops, recordOp{push: label}) }
func (r *Recorder) PopLabel()              { r.ops = append(r.ops, recordOp{pop: true}) }

// IsEmpty reports whether no text was written.
func (r *Recorder) IsEmpty() bool {
	for _, op := range r.ops {
		if len(op.write) > 0 {
			return false
		}
	}
	return true
}

// Replay sends the recorded operations to f.
func (r *Recorder) Replay(f Formatter) error {
	for _, op := range r.ops {
		switch {
		case op.write != nil:
			if _, err := f.Write(op.write); err != nil {
				return err
			}
		case op.pop:
			f.PopLabel()
		default:
			f.PushLabel(op.push)
		}
	}
	return nil
}

// TemplateFormatter is the formatter templates render into. It decides
// what happens to property errors met while rendering.
type TemplateFormatter struct {
	Formatter
	handleError func(tf *TemplateFormatter, err error) error
}

// NewTemplateFormatter returns a formatter rendering property errors
// inline as <Error: message>.
func NewTemplateFormatter(f Formatter) *TemplateFormatter {
	return &TemplateFormatter{Formatter: f, handleError: formatErrorInline}
}

// newPropagatingFormatter returns a formatter that fails on the first
// property error.
func newPropagatingFormatter(f Formatter) *TemplateFormatter {
	return &TemplateFormatter{Formatter: f, handleError: func(_ *TemplateFormatter, err error) error { return err }}
}

// HandleError deals with a property error. Write errors from the
// underlying formatter are returned as is.
func (tf *TemplateFormatter) HandleError(err error) error {
	return tf.handleError(tf, err)
}

// Sub returns a formatter writing to f with the same error policy.
func (tf *TemplateFormatter) Sub(f Formatter) *TemplateFormatter {
	return &TemplateFormatter{Formatter: f, handleError: tf.handleError}
}

// WriteLabeled writes text under label.
func (tf *TemplateFormatter) WriteLabeled(label, text string) error {
	tf.PushLabel(label)
	defer tf.PopLabel()
	_, err := io.WriteString(tf, text)
	return err
}

func formatErrorInline(tf *TemplateFormatter, err error) error {
	return tf.WriteLabeled("error", "<Error: "+err.Error()+">")
}
