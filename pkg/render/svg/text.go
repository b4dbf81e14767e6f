package svg

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Label metrics for the default 0.8em sans-serif label font.
const (
	fontSize      = 12.8
	charWidth     = 0.55 * fontSize
	lineHeight    = 1.2 * fontSize
	minLabelBox   = 12
	minLabelScale = 0.5
	fallbackScale = 0.7
)

// label is a fitted node label in the node's local coordinates.
type label struct {
	Text  string
	X, Y  float64
	Scale float64
}

func measure(s string) (w, h float64) {
	return float64(utf8.RuneCountInString(s)) * charWidth, lineHeight
}

// lastSegment returns the part after the last "/" or "\".
func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		return s[i+1:]
	}
	return s
}

// fit scales title to a w×h node. Inner nodes keep the label inside the
// header strip and never grow it; leaves grow it by the square root of the
// spare room. Titles that would shrink below 0.7 fall back to their last
// path segment.
func fit(title string, w, h, header float64, inner bool) label {
	text, scale := fitScale(title, w, h, header, inner, true)
	if scale == 0 {
		return label{}
	}
	l := label{Text: text, Scale: scale, X: w / 2 / scale}
	if inner {
		l.Y = math.Min(header, h) / 2 / scale
	} else {
		l.Y = h / 2 / scale
	}
	return l
}

func fitScale(title string, w, h, header float64, inner, fallback bool) (string, float64) {
	if title == "" {
		return "", 0
	}
	tw, th := measure(title)
	var scale float64
	if inner {
		scale = math.Min(1, math.Min(w*0.9/tw, math.Min(h, header)/th))
	} else {
		scale = math.Min(w*0.9/tw, h*0.9/th)
		if scale > 1 {
			scale = math.Sqrt(scale)
		}
	}
	if scale < fallbackScale && fallback {
		return fitScale(lastSegment(title), w, h, header, inner, false)
	}
	return title, scale
}

// showLabel reports whether a fitted label is legible in a w×h node.
func showLabel(l label, w, h float64) bool {
	return w > minLabelBox && h > minLabelBox && l.Scale > minLabelScale
}
