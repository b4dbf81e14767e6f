package treemap

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/report"
)

func buildTree(t *testing.T, r *report.Result) *entry.Tree {
	t.Helper()
	tree, err := entry.Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tree
}

func files(sizes ...uint64) []*report.File {
	out := make([]*report.File, len(sizes))
	for i, s := range sizes {
		out[i] = &report.File{FilePath: fmt.Sprintf("f%d.go", i), Size: s}
	}
	return out
}

// sampleTree is bin → Main Packages Size → main → four files.
func sampleTree(t *testing.T) *entry.Tree {
	main := &report.Package{
		Name:        "main",
		Type:        report.PackageMain,
		Size:        1000,
		SubPackages: map[string]*report.Package{},
		Files:       files(400, 100, 300, 200),
	}
	return buildTree(t, &report.Result{Name: "bin", Size: 1000, Packages: map[string]*report.Package{"main": main}})
}

func rawOptions(w, h float64) Options {
	return Options{Width: w, Height: h, Ratio: Phi}
}

func TestNewHierarchy(t *testing.T) {
	h := NewHierarchy(sampleTree(t).Root)

	if h.Value != 1000 || h.Depth != 0 || h.Height != 3 {
		t.Errorf("root value/depth/height = %v/%d/%d, want 1000/0/3", h.Value, h.Depth, h.Height)
	}
	pkg := h.Children[0].Children[0]
	var got []float64
	for _, c := range pkg.Children {
		got = append(got, c.Value)
		if c.Depth != 3 || c.Height != 0 || c.Parent != pkg {
			t.Errorf("leaf depth/height/parent = %d/%d/%v", c.Depth, c.Height, c.Parent == pkg)
		}
	}
	if want := []float64{100, 200, 300, 400}; !reflect.DeepEqual(got, want) {
		t.Errorf("sorted leaf values = %v, want %v", got, want)
	}
	if len(h.Descendants()) != 7 {
		t.Errorf("Descendants() = %d nodes, want 7", len(h.Descendants()))
	}
	if anc := pkg.Children[0].Ancestors(); len(anc) != 4 || anc[3] != h {
		t.Errorf("Ancestors() = %d nodes", len(anc))
	}
}

func TestNewHierarchyInnerValueIgnoresOwnSize(t *testing.T) {
	// Surplus raises the package size to its children; the weight is
	// still the sum of leaves.
	p := &report.Package{Name: "p", Type: report.PackageStd, Size: 1, SubPackages: map[string]*report.Package{}, Files: files(5, 6)}
	h := NewHierarchy(buildTree(t, &report.Result{Name: "bin", Size: 11, Packages: map[string]*report.Package{"p": p}}).Root)
	if h.Value != 11 {
		t.Errorf("Value = %v, want 11", h.Value)
	}
}

func TestLayoutSingleChildFraming(t *testing.T) {
	p := &report.Package{Name: "p", Type: report.PackageStd, Size: 7, SubPackages: map[string]*report.Package{}, Files: files(7)}
	tree := buildTree(t, &report.Result{Name: "bin", Size: 7, Packages: map[string]*report.Package{"p": p}})

	root := Layout(NewHierarchy(tree.Root), DefaultOptions(100, 100))
	if root.X0 != 0 || root.Y0 != 0 || root.X1 != 100 || root.Y1 != 100 {
		t.Errorf("root = (%v,%v,%v,%v), want (0,0,100,100)", root.X0, root.Y0, root.X1, root.Y1)
	}
	c := root.Children[0]
	if c.X0 != 0 || c.Y0 != 20 || c.X1 != 100 || c.Y1 != 100 {
		t.Errorf("child = (%v,%v,%v,%v), want (0,20,100,100)", c.X0, c.Y0, c.X1, c.Y1)
	}
	g := c.Children[0]
	if g.Y0 != 40 {
		t.Errorf("grandchild y0 = %v, want 40", g.Y0)
	}
}

func TestLayoutTwoEqualLeaves(t *testing.T) {
	p := &report.Package{Name: "p", Type: report.PackageStd, Size: 2, SubPackages: map[string]*report.Package{}, Files: files(1, 1)}
	tree := buildTree(t, &report.Result{Name: "bin", Size: 2, Packages: map[string]*report.Package{"p": p}})
	pkg := NewHierarchy(tree.Root).Children[0].Children[0]

	// Lay out the package alone.
	pkg.Parent = nil
	root := Layout(pkg, rawOptions(100, 100))

	a, b := root.Children[0], root.Children[1]
	if a.X0 != 0 || a.X1 != 100 || a.Y0 != 0 || a.Y1 != 50 {
		t.Errorf("first = (%v,%v,%v,%v), want (0,0,100,50)", a.X0, a.Y0, a.X1, a.Y1)
	}
	if b.Y0 != 50 || b.Y1 != 100 {
		t.Errorf("second y = %v..%v, want 50..100", b.Y0, b.Y1)
	}
}

func TestLayoutIdempotentAndPure(t *testing.T) {
	h := NewHierarchy(sampleTree(t).Root)
	opts := DefaultOptions(800, 600)

	first := ExportLayout(Layout(h, opts))
	second := ExportLayout(Layout(h, opts))
	if !reflect.DeepEqual(first, second) {
		t.Error("Layout() not idempotent")
	}
	if h.X1 != 0 || h.Children[0].Y1 != 0 {
		t.Error("Layout() modified its input")
	}
}

func TestLayoutAreasProportional(t *testing.T) {
	h := NewHierarchy(sampleTree(t).Root)
	root := Layout(h, rawOptions(800, 600))

	var total float64
	for _, n := range root.Descendants() {
		if n.HasChildren() {
			continue
		}
		total += n.Area()
		want := n.Value / root.Value * 800 * 600
		if math.Abs(n.Area()-want) > 1e-6 {
			t.Errorf("%s area = %v, want %v", n.Entry.Name(), n.Area(), want)
		}
	}
	if math.Abs(total-800*600) > 1e-6 {
		t.Errorf("leaf area total = %v, want %v", total, 800*600)
	}
}

func TestLayoutResizePreservesProportions(t *testing.T) {
	h := NewHierarchy(sampleTree(t).Root)
	opts := func(w, h float64) Options {
		o := rawOptions(w, h)
		o.Round = true
		return o
	}
	small := Layout(h, opts(800, 600))
	large := Layout(h, opts(1600, 900))

	share := func(root *Node) map[string]float64 {
		out := make(map[string]float64)
		for _, n := range root.Descendants() {
			if !n.HasChildren() {
				out[n.Entry.Name()] = n.Area() / root.Area()
			}
		}
		return out
	}
	a, b := share(small), share(large)
	for name, s := range a {
		if math.Abs(s-b[name]) > 0.01 {
			t.Errorf("%s share %v at 800x600, %v at 1600x900", name, s, b[name])
		}
	}
}

func TestLayoutCoordinatesRounded(t *testing.T) {
	root := Layout(NewHierarchy(sampleTree(t).Root), DefaultOptions(333, 217))
	for _, n := range root.Descendants() {
		for _, v := range []float64{n.X0, n.Y0, n.X1, n.Y1} {
			if v != math.Trunc(v) {
				t.Fatalf("%s has fractional coordinate %v", n.Entry.Name(), v)
			}
		}
	}
}

func TestLayoutZeroWeights(t *testing.T) {
	p := &report.Package{Name: "p", Type: report.PackageStd, Size: 0, SubPackages: map[string]*report.Package{}, Files: files(0, 0)}
	tree := buildTree(t, &report.Result{Name: "bin", Size: 0, Packages: map[string]*report.Package{"p": p}})

	root := Layout(NewHierarchy(tree.Root), DefaultOptions(200, 100))
	for _, n := range root.Descendants() {
		for _, v := range []float64{n.X0, n.Y0, n.X1, n.Y1} {
			if math.IsNaN(v) {
				t.Fatalf("%s has NaN coordinate", n.Entry.Name())
			}
		}
		if n != root && Visible(n) {
			t.Errorf("%s visible with zero weight", n.Entry.Name())
		}
	}
}

func TestLayersAndHitTest(t *testing.T) {
	root := Layout(NewHierarchy(sampleTree(t).Root), DefaultOptions(800, 600))

	layers := Layers(root)
	var heights []int
	for _, l := range layers {
		heights = append(heights, l.Height)
	}
	if want := []int{3, 2, 1, 0}; !reflect.DeepEqual(heights, want) {
		t.Errorf("layer heights = %v, want %v", heights, want)
	}
	if len(layers[3].Nodes) != 4 {
		t.Errorf("leaf layer = %d nodes, want 4", len(layers[3].Nodes))
	}

	leaf := layers[3].Nodes[0]
	x, y := (leaf.X0+leaf.X1)/2, (leaf.Y0+leaf.Y1)/2
	if got := At(root, x, y); got != leaf {
		t.Errorf("At(%v,%v) = %v, want %s", x, y, got, leaf.Entry.Name())
	}
	if got := At(root, 5, 5); got != root {
		t.Errorf("At(header) = %v, want root", got)
	}
	if got := At(root, -1, -1); got != nil {
		t.Errorf("At(outside) = %v, want nil", got)
	}
}

func TestVisible(t *testing.T) {
	tests := []struct {
		x0, y0, x1, y1 float64
		want           bool
	}{
		{0, 0, 2, 2, true},
		{0, 0, 1, 10, false},
		{0, 0, 10, 1.5, false},
		{5, 5, 5, 5, false},
	}
	for _, tt := range tests {
		n := &Node{X0: tt.x0, Y0: tt.y0, X1: tt.x1, Y1: tt.y1}
		if got := Visible(n); got != tt.want {
			t.Errorf("Visible(%v,%v,%v,%v) = %v, want %v", tt.x0, tt.y0, tt.x1, tt.y1, got, tt.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions(800, 600).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	bad := []Options{
		DefaultOptions(0, 600),
		DefaultOptions(800, -1),
		{Width: 1, Height: 1, PaddingTop: -1},
		{Width: 1, Height: 1, Ratio: 0.5},
		DefaultOptions(math.Inf(1), 600),
		DefaultOptions(800, math.Inf(-1)),
		DefaultOptions(math.NaN(), 600),
		{Width: 1, Height: 1, PaddingInner: math.Inf(1)},
		{Width: 1, Height: 1, Ratio: math.Inf(1)},
	}
	for _, o := range bad {
		if err := o.Validate(); err == nil {
			t.Errorf("Validate(%+v) error = nil", o)
		}
	}
}

func TestMarshalLayout(t *testing.T) {
	root := Layout(NewHierarchy(sampleTree(t).Root), DefaultOptions(400, 300))
	exp := ExportLayout(root)
	if exp.Width != 400 || exp.Height != 300 || len(exp.Nodes) != 7 {
		t.Errorf("ExportLayout() = %vx%v, %d nodes", exp.Width, exp.Height, len(exp.Nodes))
	}
	if exp.Nodes[0].ID != exp.Root || exp.Nodes[0].Parent != "" {
		t.Errorf("first node = %+v, want root", exp.Nodes[0])
	}
	if _, err := MarshalLayout(root); err != nil {
		t.Errorf("MarshalLayout() error = %v", err)
	}
}
