package entry

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count in binary units with at most two
// decimals: 0 B, 512 B, 1.5 KB, 3.27 MB. Sizes of a terabyte and more are
// still expressed in GB.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}
	const k = 1024.0
	v := float64(n)
	i := int(math.Floor(math.Log(v) / math.Log(k)))
	i = min(max(i, 0), len(byteUnits)-1)
	scaled := math.Round(v/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(scaled, 'f', -1, 64) + " " + byteUnits[i]
}

// Title upper-cases the first letter of s.
func Title(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// pathSafe keeps a name usable as one "#"-delimited path segment.
func pathSafe(name string) string {
	return strings.ReplaceAll(name, "#", "%23")
}

// baseName returns the last "/"-separated element of a file path.
func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

func hexRange(from, to uint64) string {
	return hex(from) + " - " + hex(to)
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}
