package focus

import (
	"strings"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/ident"
)

// Delimiter separates path segments.
const Delimiter = "#"

// PathOf renders a root-to-target chain as a navigation path:
// "#" followed by the URL-safe names joined with "#".
func PathOf(chain []entry.Entry) string {
	if len(chain) == 0 {
		return ""
	}
	names := make([]string, len(chain))
	for i, e := range chain {
		names[i] = e.URLSafeName()
	}
	return Delimiter + strings.Join(names, Delimiter)
}

// Segments splits a navigation path into URL-safe names.
func Segments(path string) []string {
	return strings.Split(strings.TrimPrefix(path, Delimiter), Delimiter)
}

// Resolve finds the entry a navigation path points at. The first segment
// must name the root; each following segment is matched exactly against the
// URL-safe names of the current entry's children, and the first child that
// matches wins. Any mismatch yields false.
func Resolve(root entry.Entry, path string) (ident.ID, bool) {
	if !strings.HasPrefix(path, Delimiter) {
		return 0, false
	}
	parts := Segments(path)
	if parts[0] != root.URLSafeName() {
		return 0, false
	}
	cur := root
	for _, part := range parts[1:] {
		next := child(cur, part)
		if next == nil {
			return 0, false
		}
		cur = next
	}
	return cur.ID(), true
}

func child(e entry.Entry, urlName string) entry.Entry {
	for _, c := range e.Children() {
		if c.URLSafeName() == urlName {
			return c
		}
	}
	return nil
}
