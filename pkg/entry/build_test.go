package entry

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/report"
)

func pkg(name string, typ report.PackageType, size uint64) *report.Package {
	return &report.Package{
		Name:        name,
		Type:        typ,
		Size:        size,
		SubPackages: map[string]*report.Package{},
	}
}

func section(name string, fileSize, known uint64) *report.Section {
	return &report.Section{Name: name, Size: fileSize, FileSize: fileSize, KnownSize: known}
}

func childNames(e Entry) []string {
	var out []string
	for _, c := range e.Children() {
		out = append(out, c.Name())
	}
	return out
}

func findChild(t *testing.T, e Entry, name string) Entry {
	t.Helper()
	for _, c := range e.Children() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("%q has no child %q (children: %v)", e.Name(), name, childNames(e))
	return nil
}

func assertClosure(t *testing.T, root Entry) {
	t.Helper()
	Walk(root, func(e Entry, _ int) bool {
		if IsLeaf(e) {
			return true
		}
		if got, _ := sumSizes(e.Children()); got != e.Size() {
			t.Errorf("%s %q: size %d, children sum %d", e.Kind(), e.Name(), e.Size(), got)
		}
		return true
	})
}

func TestBuildPackageFillers(t *testing.T) {
	main := pkg("main", report.PackageMain, 600)
	main.Files = []*report.File{{FilePath: "/src/app/main.go", Size: 400}}
	r := &report.Result{
		Name:     "bin",
		Size:     1000,
		Packages: map[string]*report.Package{"main": main},
	}

	tree, err := Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	assertClosure(t, tree.Root)

	if got := childNames(tree.Root); fmt.Sprint(got) != "[Main Packages Size Unknown]" {
		t.Fatalf("root children = %v", got)
	}
	container := findChild(t, tree.Root, "Main Packages Size")
	if container.Kind() != KindContainer || container.Size() != 600 {
		t.Errorf("container = %s/%d, want container/600", container.Kind(), container.Size())
	}
	if container.URLSafeName() != "main-packages" {
		t.Errorf("URLSafeName() = %q, want main-packages", container.URLSafeName())
	}

	p := findChild(t, container, "main")
	disasm := findChild(t, p, "main Disasm")
	if disasm.Kind() != KindDisasm || disasm.Size() != 200 {
		t.Errorf("disasm = %s/%d, want disasm/200", disasm.Kind(), disasm.Size())
	}
	if f := findChild(t, p, "main.go"); f.Size() != 400 {
		t.Errorf("file size = %d, want 400", f.Size())
	}

	unknown := findChild(t, tree.Root, "Unknown")
	if unknown.Kind() != KindUnknown || unknown.Size() != 400 {
		t.Errorf("unknown = %s/%d, want unknown/400", unknown.Kind(), unknown.Size())
	}
	if len(tree.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", tree.Warnings)
	}
}

func TestBuildDebugSection(t *testing.T) {
	r := &report.Result{
		Name:     "bin",
		Size:     400,
		Packages: map[string]*report.Package{},
		Sections: []*report.Section{section(".debug_info", 500, 100)},
	}

	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	if got := childNames(tree.Root); fmt.Sprint(got) != "[Debug Sections Size]" {
		t.Fatalf("root children = %v", got)
	}
	debug := tree.Root.Children()[0]
	if debug.URLSafeName() != "debug-sections" {
		t.Errorf("URLSafeName() = %q, want debug-sections", debug.URLSafeName())
	}
	s := debug.Children()[0]
	if s.Kind() != KindSection || s.Size() != 400 {
		t.Errorf("section = %s/%d, want section/400", s.Kind(), s.Size())
	}
}

func TestBuildExactSizesAddNoFiller(t *testing.T) {
	p := pkg("fmt", report.PackageStd, 30)
	p.Files = []*report.File{{FilePath: "fmt/print.go", Size: 10}}
	p.Symbols = []*report.FileSymbol{{Name: "fmt.ppFree", Size: 20}}
	r := &report.Result{
		Name:     "bin",
		Size:     40,
		Packages: map[string]*report.Package{"fmt": p},
		Sections: []*report.Section{section(".text", 50, 40)},
	}

	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	assertClosure(t, tree.Root)
	Walk(tree.Root, func(e Entry, _ int) bool {
		if e.Kind() == KindDisasm || e.Kind() == KindUnknown {
			t.Errorf("unexpected filler %s %q", e.Kind(), e.Name())
		}
		return true
	})
}

func TestBuildSurplusIsClampedAndReported(t *testing.T) {
	p := pkg("big", report.PackageVendor, 10)
	p.Files = []*report.File{{FilePath: "a.go", Size: 8}, {FilePath: "b.go", Size: 7}}
	r := &report.Result{Name: "bin", Size: 5, Packages: map[string]*report.Package{"big": p}}

	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	assertClosure(t, tree.Root)

	if len(tree.Warnings) != 2 {
		t.Fatalf("Warnings = %v, want 2", tree.Warnings)
	}
	w := tree.Warnings[0]
	if w.Kind != KindPackage || w.Declared != 10 || w.Children != 15 {
		t.Errorf("Warnings[0] = %+v", w)
	}
	if tree.Warnings[1].Kind != KindResult {
		t.Errorf("Warnings[1].Kind = %v, want %v", tree.Warnings[1].Kind, KindResult)
	}
	if tree.Root.Size() != 15 {
		t.Errorf("root size = %d, want 15", tree.Root.Size())
	}
	built := tree.Root.Children()[0].Children()[0].(*Package)
	if built.Declared != 10 || built.Size() != 15 {
		t.Errorf("package declared/size = %d/%d, want 10/15", built.Declared, built.Size())
	}
}

func TestBuildOverflowingSumIsSurplus(t *testing.T) {
	p := pkg("p", report.PackageVendor, 10)
	p.Files = []*report.File{{FilePath: "a.go", Size: 1 << 63}, {FilePath: "b.go", Size: 1 << 63}}
	r := &report.Result{Name: "bin", Size: 10, Packages: map[string]*report.Package{"p": p}}

	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	assertClosure(t, tree.Root)

	built := tree.Root.Children()[0].Children()[0].(*Package)
	if built.Size() != math.MaxUint64 {
		t.Errorf("package size = %d, want %d", built.Size(), uint64(math.MaxUint64))
	}
	if got := childNames(built); len(got) != 2 {
		t.Errorf("package children = %v, want the two files and no filler", got)
	}
	if len(tree.Warnings) == 0 || tree.Warnings[0].Kind != KindPackage {
		t.Errorf("Warnings = %v, want a package surplus first", tree.Warnings)
	}
}

func TestSumSizes(t *testing.T) {
	leaf := func(n uint64) Entry { return &File{node: node{size: n}} }
	tests := []struct {
		name     string
		sizes    []uint64
		want     uint64
		overflow bool
	}{
		{"empty", nil, 0, false},
		{"plain", []uint64{3, 4}, 7, false},
		{"max", []uint64{math.MaxUint64 - 1, 1}, math.MaxUint64, false},
		{"wraps", []uint64{1 << 63, 1 << 63}, math.MaxUint64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var es []Entry
			for _, n := range tt.sizes {
				es = append(es, leaf(n))
			}
			got, overflow := sumSizes(es)
			if got != tt.want || overflow != tt.overflow {
				t.Errorf("sumSizes() = %d, %v, want %d, %v", got, overflow, tt.want, tt.overflow)
			}
		})
	}
}

func TestBuildNames(t *testing.T) {
	net := pkg("net", report.PackageStd, 100)
	net.Symbols = []*report.FileSymbol{{Name: "net.errTimeout", Size: 5}, {Name: "other.sym", Size: 5}}
	net.SubPackages["net/http"] = pkg("net/http", report.PackageStd, 50)
	net.SubPackages["net/http"].SubPackages["net/http/internal"] = pkg("net/http/internal", report.PackageStd, 20)
	net.Files = []*report.File{{FilePath: "/go/src/net/dial.go", Size: 10}, {FilePath: "noslash.go", Size: 1}}

	r := &report.Result{Name: "bin", Size: 100, Packages: map[string]*report.Package{"net": net}}
	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}

	n := findChild(t, findChild(t, tree.Root, "Std Packages Size"), "net")
	want := "[dial.go noslash.go http errTimeout other.sym net Disasm]"
	if got := fmt.Sprint(childNames(n)); got != want {
		t.Errorf("children = %s, want %s", got, want)
	}
	http := findChild(t, n, "http")
	findChild(t, http, "internal")
}

func TestBuildContainerOrder(t *testing.T) {
	r := &report.Result{
		Name: "bin",
		Size: 1,
		Packages: map[string]*report.Package{
			"z": pkg("z", report.PackageUnknown, 1),
			"c": pkg("c", report.PackageCGO, 1),
			"v": pkg("v", report.PackageVendor, 1),
			"m": pkg("m", report.PackageMain, 1),
			"s": pkg("s", report.PackageStd, 1),
			"g": pkg("g", report.PackageGenerated, 1),
		},
		Sections: []*report.Section{section(".zdebug_line", 2, 0), section(".text", 2, 0)},
	}
	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	want := "[Unknown Sections Size Debug Sections Size Main Packages Size Std Packages Size " +
		"Vendor Packages Size Generated Packages Size Cgo Packages Size Unknown Packages Size]"
	if got := fmt.Sprint(childNames(tree.Root)); got != want {
		t.Errorf("children = %s, want %s", got, want)
	}
}

func TestBuildSectionUnderflow(t *testing.T) {
	r := &report.Result{
		Name:     "bin",
		Packages: map[string]*report.Package{},
		Sections: []*report.Section{section(".bss", 0, 100)},
	}
	tree, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	s := tree.Root.Children()[0].Children()[0]
	if s.Size() != 0 {
		t.Errorf("section size = %d, want 0", s.Size())
	}
}

func TestBuildClassificationFailure(t *testing.T) {
	p := pkg("broken", report.PackageMain, 10)
	p.Files = []*report.File{nil}
	r := &report.Result{Name: "bin", Size: 10, Packages: map[string]*report.Package{"broken": p}}

	_, err := Build(r)
	if !errors.Is(err, errors.ErrCodeClassification) {
		t.Errorf("Build() error = %v, want %v", err, errors.ErrCodeClassification)
	}

	if _, err := FromRecord(nil); !errors.Is(err, errors.ErrCodeClassification) {
		t.Errorf("FromRecord(nil) error = %v, want %v", err, errors.ErrCodeClassification)
	}
}

func TestFromRecordLeaf(t *testing.T) {
	tree, err := FromRecord(&report.File{FilePath: "x/y.go", Size: 3})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Root.Kind() != KindFile || tree.Root.Name() != "y.go" || tree.Len() != 1 {
		t.Errorf("root = %s %q (len %d)", tree.Root.Kind(), tree.Root.Name(), tree.Len())
	}
}

func TestBuildIDs(t *testing.T) {
	a := ident.NewAllocator(100)
	tree, err := Build(randomResult(rand.New(rand.NewSource(1))), WithAllocator(a))
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[ident.ID]bool)
	Walk(tree.Root, func(e Entry, _ int) bool {
		if e.ID() <= 100 {
			t.Errorf("id %d not above allocator base", e.ID())
		}
		if seen[e.ID()] {
			t.Errorf("duplicate id %d", e.ID())
		}
		seen[e.ID()] = true
		for _, c := range e.Children() {
			if c.ID() <= e.ID() {
				t.Errorf("child id %d not above parent id %d", c.ID(), e.ID())
			}
		}
		return true
	})
	if tree.Len() != len(seen) {
		t.Errorf("Len() = %d, want %d", tree.Len(), len(seen))
	}

	again, err := Build(tree.Root.(*Result).Data, WithAllocator(a))
	if err != nil {
		t.Fatal(err)
	}
	Walk(again.Root, func(e Entry, _ int) bool {
		if seen[e.ID()] {
			t.Errorf("rebuilt tree reused id %d", e.ID())
		}
		return true
	})
}

func TestBuildClosureRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		r := randomResult(rng)
		tree, err := Build(r)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		assertClosure(t, tree.Root)
		assertFillerExact(t, tree.Root)
	}
}

// assertFillerExact checks that every filler leaf equals the gap between
// its parent's declared size and the other children.
func assertFillerExact(t *testing.T, root Entry) {
	t.Helper()
	Walk(root, func(e Entry, _ int) bool {
		var declared uint64
		switch v := e.(type) {
		case *Package:
			declared = v.Declared
		case *Result:
			declared = v.Declared
		default:
			return true
		}
		var others, filler uint64
		fillers := 0
		for _, c := range e.Children() {
			if c.Kind() == KindDisasm || c.Kind() == KindUnknown {
				filler += c.Size()
				fillers++
			} else {
				others += c.Size()
			}
		}
		switch {
		case declared > others:
			if fillers != 1 || filler != declared-others {
				t.Errorf("%q: filler %d (%d nodes), want %d", e.Name(), filler, fillers, declared-others)
			}
		default:
			if fillers != 0 {
				t.Errorf("%q: unexpected filler with leftover <= 0", e.Name())
			}
		}
		return true
	})
}

func randomResult(rng *rand.Rand) *report.Result {
	r := &report.Result{Name: "bin", Packages: map[string]*report.Package{}}
	types := report.PackageTypes
	var total uint64
	for i := 0; i < 1+rng.Intn(5); i++ {
		p := randomPackage(rng, fmt.Sprintf("pkg%d", i), types[rng.Intn(len(types))], 2)
		r.Packages[p.Name] = p
		total += p.Size
	}
	for i := 0; i < rng.Intn(4); i++ {
		name := ".text"
		if rng.Intn(2) == 0 {
			name = ".debug_line"
		}
		fs := uint64(rng.Intn(1000))
		s := section(fmt.Sprintf("%s%d", name, i), fs, uint64(rng.Intn(1000)))
		r.Sections = append(r.Sections, s)
		total += fs
	}
	r.Size = total/2 + uint64(rng.Intn(int(total+1)))
	return r
}

func randomPackage(rng *rand.Rand, name string, typ report.PackageType, depth int) *report.Package {
	p := pkg(name, typ, 0)
	var sum uint64
	for i := 0; i < rng.Intn(4); i++ {
		f := &report.File{FilePath: fmt.Sprintf("src/%s/f%d.go", name, i), Size: uint64(rng.Intn(500))}
		p.Files = append(p.Files, f)
		sum += f.Size
	}
	for i := 0; i < rng.Intn(4); i++ {
		s := &report.FileSymbol{Name: fmt.Sprintf("%s.sym%d", name, i), Size: uint64(rng.Intn(100))}
		p.Symbols = append(p.Symbols, s)
		sum += s.Size
	}
	if depth > 0 {
		for i := 0; i < rng.Intn(3); i++ {
			sub := randomPackage(rng, fmt.Sprintf("%s/sub%d", name, i), typ, depth-1)
			p.SubPackages[sub.Name] = sub
			sum += sub.Size
		}
	}
	// Declared size lands below, at, or above the children's sum.
	switch rng.Intn(3) {
	case 0:
		p.Size = sum
	case 1:
		p.Size = sum + uint64(rng.Intn(300))
	default:
		p.Size = sum / 2
	}
	return p
}
