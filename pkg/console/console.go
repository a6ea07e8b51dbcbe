// Package console prints progress on a terminal line rewritten in place.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Number of characters of the progress bar
const barWidth = 10

// ProgressLog reports the progress of a batch of steps on a single line.
type ProgressLog struct {
	output        io.Writer
	showBar       bool
	showPercent   bool
	total         int
	current       int
	maxCharacters int
}

// Option customizes a ProgressLog.
type Option func(*ProgressLog)

func NewProgressLog(total int, options ...Option) *ProgressLog {
	result := &ProgressLog{
		output:        os.Stdout,
		showBar:       true,
		total:         total,
		maxCharacters: 80,
	}
	for _, option := range options {
		option(result)
	}
	return result
}

func ToWriter(w io.Writer) Option {
	return func(l *ProgressLog) {
		l.output = w
	}
}

func HideBar() Option {
	return func(l *ProgressLog) {
		l.showBar = false
	}
}

func ShowPercent() Option {
	return func(l *ProgressLog) {
		l.showPercent = true
	}
}

func LineLength(characters int) Option {
	return func(l *ProgressLog) {
		l.maxCharacters = characters
	}
}

// Start prints the initial line before the first step.
func (l *ProgressLog) Start(message string) {
	l.current = 0
	l.print(message)
}

// Step marks one more step as completed.
func (l *ProgressLog) Step(message string) {
	if l.current < l.total {
		l.current++
	}
	l.print(message)
}

func (l *ProgressLog) percent() int {
	if l.total <= 0 {
		return 100
	}
	return l.current * 100 / l.total
}

func (l *ProgressLog) print(message string) {
	var sb strings.Builder
	percent := l.percent()

	if l.showBar {
		filled := percent * barWidth / 100
		sb.WriteString(strings.Repeat("#", filled))
		sb.WriteString(strings.Repeat(" ", barWidth-filled))
		sb.WriteRune(' ')
	}
	if l.showPercent {
		fmt.Fprintf(&sb, "(%3d%%) ", percent)
	} else {
		fmt.Fprintf(&sb, "(%d/%d) ", l.current, l.total)
	}
	sb.WriteString(message)

	fmt.Fprint(l.output, l.pad(sb.String()), "\r")
}

// Done rewrites the line with a final message and moves to the next line.
// An empty message only erases the line.
func (l *ProgressLog) Done(message string) {
	fmt.Fprint(l.output, l.pad(message))
	if message == "" {
		fmt.Fprint(l.output, "\r")
	} else {
		fmt.Fprint(l.output, "\n")
	}
}

// pad truncates or completes the line to erase the previous one.
func (l *ProgressLog) pad(line string) string {
	length := utf8.RuneCountInString(line)
	if length > l.maxCharacters {
		return string([]rune(line)[:l.maxCharacters])
	}
	return line + strings.Repeat(" ", l.maxCharacters-length)
}
