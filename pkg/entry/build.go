package entry

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"

	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/report"
)

// Container names and explanations.
const (
	UnknownSectionsName = "Unknown Sections Size"
	DebugSectionsName   = "Debug Sections Size"
	UnknownName         = "Unknown"

	unknownSectionsURL     = "unknown-sections"
	debugSectionsURL       = "debug-sections"
	unknownURL             = "unknown"
	unknownSectionsExplain = "The unknown size of the sections in the binary."
	debugSectionsExplain   = "The unknown size of the debug sections in the binary."
)

// PackagesName is the display name of the container for one package type.
func PackagesName(t report.PackageType) string {
	return Title(string(t)) + " Packages Size"
}

// Warning records an entry whose children hold more bytes than the report
// declared for it. The entry's size is raised to the children's sum.
type Warning struct {
	ID       ident.ID
	Kind     Kind
	Name     string
	Declared uint64
	Children uint64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %q declares %d bytes but its children hold %d", w.Kind, w.Name, w.Declared, w.Children)
}

// Option configures [Build].
type Option func(*builder)

// WithAllocator draws ids from a instead of a fresh allocator.
// Use it when ids must stay unique across several trees.
func WithAllocator(a *ident.Allocator) Option {
	return func(b *builder) { b.ids = a }
}

type builder struct {
	ids      *ident.Allocator
	warnings []Warning
}

// Build converts a validated report into an entry tree.
func Build(r *report.Result, opts ...Option) (*Tree, error) {
	return FromRecord(r, opts...)
}

// FromRecord builds the tree rooted at any report record. A record that
// matches no kind aborts the build with an errors.ErrCodeClassification
// error.
func FromRecord(rec report.Record, opts ...Option) (*Tree, error) {
	b := &builder{ids: ident.NewAllocator(0)}
	for _, opt := range opts {
		opt(b)
	}
	root, err := b.record(rec, nil)
	if err != nil {
		return nil, err
	}
	return newTree(root, b.warnings), nil
}

func (b *builder) record(rec report.Record, owner *report.Package) (Entry, error) {
	kind, err := report.Classify(rec)
	if err != nil {
		return nil, err
	}
	switch kind {
	case report.KindSection:
		return b.section(rec.(*report.Section)), nil
	case report.KindFile:
		return b.file(rec.(*report.File)), nil
	case report.KindPackage:
		return b.pkg(rec.(*report.Package), owner)
	case report.KindResult:
		return b.result(rec.(*report.Result))
	case report.KindSymbol:
		return b.symbol(rec.(*report.FileSymbol), owner), nil
	}
	return nil, errors.New(errors.ErrCodeClassification, "unhandled record kind %q", kind)
}

func (b *builder) leaf(name string, size uint64) node {
	return node{id: b.ids.Next(), name: name, urlName: pathSafe(name), size: size}
}

func (b *builder) section(s *report.Section) *Section {
	var size uint64
	if s.FileSize > s.KnownSize {
		size = s.FileSize - s.KnownSize
	}
	return &Section{node: b.leaf(s.Name, size), Data: s}
}

func (b *builder) file(f *report.File) *File {
	return &File{node: b.leaf(baseName(f.FilePath), f.Size), Data: f}
}

func (b *builder) symbol(s *report.FileSymbol, owner *report.Package) *Symbol {
	name := s.Name
	if owner != nil {
		name = strings.TrimPrefix(name, owner.Name+".")
	}
	return &Symbol{node: b.leaf(name, s.Size), Data: s}
}

func (b *builder) pkg(p *report.Package, owner *report.Package) (*Package, error) {
	name := p.Name
	if owner != nil {
		name = strings.TrimPrefix(name, owner.Name+"/")
	}
	out := &Package{node: b.leaf(name, 0), Data: p, Declared: p.Size}

	for _, f := range p.Files {
		e, err := b.record(f, p)
		if err != nil {
			return nil, err
		}
		out.children = append(out.children, e)
	}
	for _, k := range report.SortedKeys(p.SubPackages) {
		e, err := b.record(p.SubPackages[k], p)
		if err != nil {
			return nil, err
		}
		out.children = append(out.children, e)
	}
	for _, s := range p.Symbols {
		e, err := b.record(s, p)
		if err != nil {
			return nil, err
		}
		out.children = append(out.children, e)
	}

	sum, overflow := sumSizes(out.children)
	out.size = b.reconcile(&out.node, KindPackage, p.Size, sum, overflow)
	if !overflow && p.Size > sum {
		out.children = append(out.children, &Disasm{node: b.leaf(p.Name+" Disasm", p.Size-sum)})
	}
	return out, nil
}

func (b *builder) result(r *report.Result) (*Result, error) {
	out := &Result{node: b.leaf(r.Name, 0), Data: r, Declared: r.Size}

	var plain, debug []*report.Section
	for _, s := range r.Sections {
		if report.IsDebugSection(s.Name) {
			debug = append(debug, s)
		} else {
			plain = append(plain, s)
		}
	}
	for _, group := range []struct {
		name, url, explain string
		sections           []*report.Section
	}{
		{UnknownSectionsName, unknownSectionsURL, unknownSectionsExplain, plain},
		{DebugSectionsName, debugSectionsURL, debugSectionsExplain, debug},
	} {
		if len(group.sections) == 0 {
			continue
		}
		c := b.container(group.name, group.url, group.explain)
		for _, s := range group.sections {
			e, err := b.record(s, nil)
			if err != nil {
				return nil, err
			}
			c.children = append(c.children, e)
		}
		c.size, _ = sumSizes(c.children)
		out.children = append(out.children, c)
	}

	byType := make(map[report.PackageType][]*report.Package)
	for _, k := range report.SortedKeys(r.Packages) {
		p := r.Packages[k]
		byType[p.Type] = append(byType[p.Type], p)
	}
	for _, t := range packageTypeOrder(byType) {
		c := b.container(PackagesName(t), string(t)+"-packages",
			fmt.Sprintf("The size of the %s packages in the binary.", t))
		for _, p := range byType[t] {
			e, err := b.record(p, nil)
			if err != nil {
				return nil, err
			}
			c.children = append(c.children, e)
		}
		c.size, _ = sumSizes(c.children)
		out.children = append(out.children, c)
	}

	sum, overflow := sumSizes(out.children)
	out.size = b.reconcile(&out.node, KindResult, r.Size, sum, overflow)
	if !overflow && r.Size > sum {
		u := &Unknown{node: b.leaf(UnknownName, r.Size-sum)}
		u.urlName = unknownURL
		out.children = append(out.children, u)
	}
	return out, nil
}

func (b *builder) container(name, url, explain string) *Container {
	c := &Container{node: b.leaf(name, 0), Explain: explain}
	c.urlName = url
	return c
}

// reconcile returns the size an entry reports given its declared size and
// the sum of its built children, recording a warning on surplus. A sum that
// overflowed is always a surplus.
func (b *builder) reconcile(n *node, kind Kind, declared, sum uint64, overflow bool) uint64 {
	if !overflow && sum <= declared {
		return declared
	}
	b.warnings = append(b.warnings, Warning{
		ID:       n.id,
		Kind:     kind,
		Name:     n.name,
		Declared: declared,
		Children: sum,
	})
	return sum
}

// sumSizes adds the children's sizes, saturating at math.MaxUint64 and
// reporting whether it had to.
func sumSizes(es []Entry) (uint64, bool) {
	var total uint64
	for _, e := range es {
		var carry uint64
		total, carry = bits.Add64(total, e.Size(), 0)
		if carry != 0 {
			return math.MaxUint64, true
		}
	}
	return total, false
}

// packageTypeOrder lists the present types in display order, unknown types
// last in alphabetical order.
func packageTypeOrder(present map[report.PackageType][]*report.Package) []report.PackageType {
	var out []report.PackageType
	known := make(map[report.PackageType]bool, len(report.PackageTypes))
	for _, t := range report.PackageTypes {
		known[t] = true
		if len(present[t]) > 0 {
			out = append(out, t)
		}
	}
	var rest []report.PackageType
	for t, ps := range present {
		if !known[t] && len(ps) > 0 {
			rest = append(rest, t)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}
