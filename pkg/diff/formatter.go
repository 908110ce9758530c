package diff

import (
	"fmt"
	"io"
)

// Formatter receives rendered text. Labels nest and tell a color-aware
// formatter how to style the text written while they are pushed.
type Formatter interface {
	io.Writer
	PushLabel(label string)
	PopLabel()
}

func writeLabeled(f Formatter, label, text string) error {
	f.PushLabel(label)
	defer f.PopLabel()
	_, err := io.WriteString(f, text)
	return err
}

func printfLabeled(f Formatter, label, format string, args ...any) error {
	return writeLabeled(f, label, fmt.Sprintf(format, args...))
}
