// Package entry builds the normalized entry tree of a size report.
//
// Raw reports are loose: a package may declare more bytes than its files,
// sub-packages and symbols account for, and a binary is larger than its known
// sections and packages. [Build] reconciles that into a tree of [Entry]
// values where every non-leaf entry's size is exactly the sum of its
// children's sizes. Shortfalls become synthetic filler leaves:
//
//   - a package's unattributed bytes become a [KindDisasm] leaf
//     named "<package> Disasm"
//   - the binary's unattributed bytes become a [KindUnknown] leaf
//   - sections and packages are grouped under [KindContainer] entries
//     whose size is the sum of what they hold
//
// A tree is immutable once built. Ids come from an [ident.Allocator] owned by
// the build, so two trees built from the same report have distinct ids.
package entry

import (
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/report"
)

// Kind tags an [Entry].
type Kind string

const (
	KindSection   Kind = "section"
	KindFile      Kind = "file"
	KindPackage   Kind = "package"
	KindSymbol    Kind = "symbol"
	KindDisasm    Kind = "disasm"
	KindUnknown   Kind = "unknown"
	KindContainer Kind = "container"
	KindResult    Kind = "result"
)

// Synthetic reports whether entries of this kind are generated by the build
// rather than wrapping a report record.
func (k Kind) Synthetic() bool {
	return k == KindDisasm || k == KindUnknown || k == KindContainer
}

// Entry is one node of the normalized tree.
type Entry interface {
	ID() ident.ID
	Kind() Kind
	// Name is the display name.
	Name() string
	// URLSafeName addresses the entry within its parent in a navigation path.
	URLSafeName() string
	// Size is in bytes. For non-leaf entries it equals the sum of Children.
	Size() uint64
	Children() []Entry
	// String describes the entry for tooltips.
	String() string
}

// node carries the fields every kind shares.
type node struct {
	id       ident.ID
	name     string
	urlName  string
	size     uint64
	children []Entry
}

func (n *node) ID() ident.ID        { return n.id }
func (n *node) Name() string        { return n.name }
func (n *node) Size() uint64        { return n.size }
func (n *node) Children() []Entry   { return n.children }
func (n *node) URLSafeName() string { return n.urlName }

// Section charts the part of a section that no package or symbol claims.
type Section struct {
	node
	Data *report.Section
}

func (*Section) Kind() Kind { return KindSection }

func (s *Section) String() string {
	var a Aligner
	a.Add("Section:", s.name)
	a.Add("Size:", FormatBytes(s.size))
	a.Add("File Size:", FormatBytes(s.Data.FileSize))
	a.Add("Known size:", FormatBytes(s.Data.KnownSize))
	a.Add("Unknown size:", FormatBytes(s.size))
	a.Add("Offset:", hexRange(s.Data.Offset, s.Data.End))
	a.Add("Address:", hexRange(s.Data.Addr, s.Data.AddrEnd))
	a.Add("Memory:", boolString(s.Data.OnlyInMemory))
	a.Add("Debug:", boolString(s.Data.Debug))
	return a.String()
}

// File is a source file of a package.
type File struct {
	node
	Data *report.File
}

func (*File) Kind() Kind { return KindFile }

func (f *File) String() string {
	var a Aligner
	a.Add("File:", f.name)
	a.Add("Path:", f.Data.FilePath)
	a.Add("Size:", FormatBytes(f.size))
	return a.String()
}

// Symbol is a symbol of a package, named without the package prefix.
type Symbol struct {
	node
	Data *report.FileSymbol
}

func (*Symbol) Kind() Kind { return KindSymbol }

func (s *Symbol) String() string {
	var a Aligner
	a.Add("Symbol:", s.Data.Name)
	a.Add("Size:", FormatBytes(s.size))
	a.Add("Address:", hex(s.Data.Addr))
	a.Add("Type:", string(s.Data.Type))
	return a.String()
}

// Package is a package with its files, sub-packages and symbols.
type Package struct {
	node
	Data *report.Package
	// Declared is the size the report claims, which may be smaller than
	// Size when the children over-count.
	Declared uint64
}

func (*Package) Kind() Kind { return KindPackage }

func (p *Package) String() string {
	var a Aligner
	a.Add("Package:", p.Data.Name)
	a.Add("Type:", string(p.Data.Type))
	a.Add("Size:", FormatBytes(p.size))
	if p.Declared != p.size {
		a.Add("Declared:", FormatBytes(p.Declared))
	}
	return a.String()
}

// Result is the root entry.
type Result struct {
	node
	Data     *report.Result
	Declared uint64
}

func (*Result) Kind() Kind { return KindResult }

func (r *Result) String() string {
	var a Aligner
	a.Add("Result:", r.Data.Name)
	a.Add("Size:", FormatBytes(r.size))
	if r.Declared != r.size {
		a.Add("Declared:", FormatBytes(r.Declared))
	}
	return a.String()
}

// Disasm holds the bytes of a package that only disassembly attributes.
type Disasm struct {
	node
}

func (*Disasm) Kind() Kind { return KindDisasm }

func (d *Disasm) String() string {
	var a Aligner
	a.Add("Disasm:", d.name)
	a.Add("Size:", FormatBytes(d.size))
	return a.String() + "\n\n" +
		"This size was not accurate." +
		"The real size determined by disassembling can be larger."
}

// Unknown holds the bytes of the binary nothing accounts for.
type Unknown struct {
	node
}

func (*Unknown) Kind() Kind { return KindUnknown }

func (u *Unknown) String() string {
	var a Aligner
	a.Add("Size:", FormatBytes(u.size))
	return a.String() + "\n\n" +
		"The unknown part in the binary.\n" +
		"Can be ELF Header, Program Header, align offset...\n" +
		"We just don't know."
}

// Container groups entries under a short URL-safe name.
type Container struct {
	node
	Explain string
}

func (*Container) Kind() Kind { return KindContainer }

func (c *Container) String() string {
	var a Aligner
	a.Add("Size:", FormatBytes(c.size))
	return c.Explain + "\n\n" + a.String()
}
