package term

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/report"
)

func sampleScene(t *testing.T, cols, rows int) *render.Scene {
	t.Helper()
	r := &report.Result{
		Name: "bin",
		Size: 100,
		Packages: map[string]*report.Package{
			"main": {Name: "main", Type: report.PackageMain, Size: 100, Files: []*report.File{
				{FilePath: "main.go", Size: 60},
				{FilePath: "util.go", Size: 40},
			}},
		},
	}
	tree, err := entry.Build(r)
	if err != nil {
		t.Fatal(err)
	}
	c := focus.NewController(tree, nil)
	return render.NewScene(c, Options(cols, rows))
}

func TestRenderGrid(t *testing.T) {
	s := sampleScene(t, 60, 20)
	out := New(lipgloss.NewRenderer(io.Discard)).Render(s, 0)

	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("rows = %d, want 20", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 60 {
			t.Errorf("row %d width = %d, want 60", i, n)
		}
	}
	if !strings.HasPrefix(lines[0], "bin") {
		t.Errorf("header row = %q, want root label", lines[0])
	}
	for _, want := range []string{"main.go", "util.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing label %q", want)
		}
	}
}

func TestRenderTruncatesLabels(t *testing.T) {
	s := sampleScene(t, 8, 12)
	out := New(lipgloss.NewRenderer(io.Discard)).Render(s, 0)
	for i, l := range strings.Split(out, "\n") {
		if n := len([]rune(l)); n != 8 {
			t.Errorf("row %d width = %d, want 8", i, n)
		}
	}
}

func TestHit(t *testing.T) {
	s := sampleScene(t, 60, 20)
	if n := Hit(s, 0, 0); n == nil || n.ID() != s.Root.ID() {
		t.Errorf("Hit(0,0) = %v, want root", n)
	}
	n := Hit(s, 30, 15)
	if n == nil || n.HasChildren() {
		t.Fatalf("Hit(30,15) = %v, want a leaf", n)
	}
	if Hit(s, 100, 100) != nil {
		t.Error("Hit outside the frame found a node")
	}
}
