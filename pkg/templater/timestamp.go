package templater

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lestrrat-go/strftime"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// now is the reference time for ago() and relative date patterns.
var now = time.Now

// TimestampFormat is a compiled strftime-style pattern.
type TimestampFormat struct {
	f *strftime.Strftime
}

var defaultTimestampFormat = mustTimestampFormat("%Y-%m-%d %H:%M:%S.%3f %:z")

func mustTimestampFormat(pattern string) *TimestampFormat {
	f, err := ParseTimestampFormat(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// Conversions longer than one byte are rewritten onto single-byte
// specifications before compiling. "%%" is listed first so an escaped
// percent is never read as the start of a conversion.
var multiByteConversions = strings.NewReplacer(
	"%%", "%%",
	"%:z", "%:",
	"%.3f", ".%3",
	"%.6f", ".%6",
	"%.9f", ".%9",
	"%3f", "%3",
	"%6f", "%6",
	"%9f", "%9",
)

func fraction(digits int) strftime.Appender {
	return strftime.AppendFunc(func(b []byte, t time.Time) []byte {
		return append(b, fmt.Sprintf("%09d", t.Nanosecond())[:digits]...)
	})
}

var timestampSpecs = []strftime.Option{
	strftime.WithSpecification(':', strftime.StdlibFormat("-07:00")),
	strftime.WithSpecification('3', fraction(3)),
	strftime.WithSpecification('6', fraction(6)),
	strftime.WithSpecification('9', fraction(9)),
	strftime.WithSpecification('f', fraction(9)),
	strftime.WithSpecification('P', strftime.StdlibFormat("pm")),
	strftime.WithSpecification('c', strftime.StdlibFormat("Mon Jan  2 15:04:05 2006")),
	strftime.WithUnixSeconds('s'),
}

// ParseTimestampFormat compiles pattern. Unknown conversions are errors.
func ParseTimestampFormat(pattern string) (*TimestampFormat, error) {
	f, err := strftime.New(multiByteConversions.Replace(pattern), timestampSpecs...)
	if err != nil {
		return nil, err
	}
	return &TimestampFormat{f: f}, nil
}

// Format renders t.
func (f *TimestampFormat) Format(t time.Time) string {
	return f.f.FormatString(t)
}

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

type agoUnit struct {
	name string
	size time.Duration
	next time.Duration
}

var agoUnits = []agoUnit{
	{"second", time.Second, time.Minute},
	{"minute", time.Minute, time.Hour},
	{"hour", time.Hour, day},
	{"day", day, week},
	{"week", week, month},
	{"month", month, year},
	{"year", year, math.MaxInt64},
}

// agoMagnitudes builds a humanize table where phrase places the quantity,
// for example "%s ago" or "in %s".
func agoMagnitudes(phrase string) []humanize.RelTimeMagnitude {
	mags := []humanize.RelTimeMagnitude{{D: time.Second, Format: "now", DivBy: time.Second}}
	for _, u := range agoUnits {
		mags = append(mags,
			humanize.RelTimeMagnitude{D: 2 * u.size, Format: fmt.Sprintf(phrase, "1 "+u.name), DivBy: u.size},
			humanize.RelTimeMagnitude{D: u.next, Format: fmt.Sprintf(phrase, "%d "+u.name+"s"), DivBy: u.size},
		)
	}
	return mags
}

var (
	pastMagnitudes   = agoMagnitudes("%s ago")
	futureMagnitudes = agoMagnitudes("in %s")
)

// FormatAgo renders the distance from t to the current time in the
// largest whole unit, such as "3 hours ago" or "in 2 days".
func FormatAgo(t time.Time) string {
	ref := now()
	if t.After(ref) {
		return humanize.CustomRelTime(t, ref, "", "", futureMagnitudes)
	}
	return humanize.CustomRelTime(t, ref, "", "", pastMagnitudes)
}

var relativeDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// maxRelativeDate bounds "N units ago" so the offset fits in a Duration.
const maxRelativeDate = 250 * year

var absoluteDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDatePattern resolves a date pattern to an instant. It accepts
// RFC 3339 and date-only layouts (read in loc), "now", "today",
// "yesterday" and English relative forms such as "2 days ago".
func ParseDatePattern(pattern string, loc *time.Location) (time.Time, error) {
	text := strings.TrimSpace(pattern)
	for _, layout := range absoluteDateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	p := strings.ToLower(text)
	ref := now().In(loc)
	switch p {
	case "now":
		return ref, nil
	case "today":
		y, m, d := ref.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case "yesterday":
		y, m, d := ref.Date()
		return time.Date(y, m, d-1, 0, 0, 0, 0, loc), nil
	}
	if err := checkRelativeRange(p); err != nil {
		return time.Time{}, err
	}
	res, err := relativeDates.Parse(p, ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", pattern, err)
	}
	if res == nil || strings.TrimSpace(res.Text) != p {
		return time.Time{}, fmt.Errorf("unrecognized date %q", pattern)
	}
	return res.Time, nil
}

// checkRelativeRange rejects "N units ago" offsets beyond maxRelativeDate.
func checkRelativeRange(p string) error {
	fields := strings.Fields(p)
	if len(fields) < 2 {
		return nil
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil
	}
	unit := strings.TrimSuffix(fields[1], "s")
	if unit == "min" {
		unit = "minute"
	}
	for _, u := range agoUnits {
		if u.name == unit && n > int64(maxRelativeDate/u.size) {
			return fmt.Errorf("date %q is out of range", p)
		}
	}
	return nil
}
