package entry

import (
	"strings"
	"unicode/utf8"
)

// Aligner lays out label/value pairs as a column-aligned text block.
//
//	Size:      1.5 KB
//	File Size: 2 KB
type Aligner struct {
	labels []string
	values []string
}

// Add appends one line.
func (a *Aligner) Add(label, value string) {
	a.labels = append(a.labels, label)
	a.values = append(a.values, value)
}

// String pads every label to the longest label plus one space and drops
// trailing whitespace from the result.
func (a *Aligner) String() string {
	width := 0
	for _, l := range a.labels {
		width = max(width, utf8.RuneCountInString(l))
	}

	var b strings.Builder
	for i, l := range a.labels {
		b.WriteString(l)
		b.WriteString(strings.Repeat(" ", width+1-utf8.RuneCountInString(l)))
		b.WriteString(a.values[i])
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}
