package report

import (
	"strings"

	"github.com/matzehuels/sizemap/pkg/errors"
)

// PackageType is the origin of a package.
type PackageType string

// Package types known to the analysis engine.
const (
	PackageMain      PackageType = "main"
	PackageStd       PackageType = "std"
	PackageVendor    PackageType = "vendor"
	PackageGenerated PackageType = "generated"
	PackageUnknown   PackageType = "unknown"
	PackageCGO       PackageType = "cgo"
)

// PackageTypes lists every package type in display order.
var PackageTypes = []PackageType{
	PackageMain, PackageStd, PackageVendor, PackageGenerated, PackageCGO, PackageUnknown,
}

// Valid reports whether t is a known package type.
func (t PackageType) Valid() bool {
	switch t {
	case PackageMain, PackageStd, PackageVendor, PackageGenerated, PackageUnknown, PackageCGO:
		return true
	}
	return false
}

// SymbolType classifies a symbol.
type SymbolType string

const (
	SymbolUnknown SymbolType = "unknown"
	SymbolText    SymbolType = "text"
	SymbolData    SymbolType = "data"
)

// Valid reports whether t is a known symbol type.
func (t SymbolType) Valid() bool {
	return t == SymbolUnknown || t == SymbolText || t == SymbolData
}

// Analyzer names a pass of the analysis engine that contributed to a report.
type Analyzer string

const (
	AnalyzerDwarf   Analyzer = "dwarf"
	AnalyzerDisasm  Analyzer = "disasm"
	AnalyzerSymbol  Analyzer = "symbol"
	AnalyzerPclntab Analyzer = "pclntab"
)

// Valid reports whether a is a known analyzer.
func (a Analyzer) Valid() bool {
	switch a {
	case AnalyzerDwarf, AnalyzerDisasm, AnalyzerSymbol, AnalyzerPclntab:
		return true
	}
	return false
}

// Section is one section of the binary.
type Section struct {
	Name         string `json:"name"`
	Size         uint64 `json:"size"`
	FileSize     uint64 `json:"file_size"`
	KnownSize    uint64 `json:"known_size"`
	Offset       uint64 `json:"offset"`
	End          uint64 `json:"end"`
	Addr         uint64 `json:"addr"`
	AddrEnd      uint64 `json:"addr_end"`
	OnlyInMemory bool   `json:"only_in_memory"`
	Debug        bool   `json:"debug"`
}

// File is a source file attributed to a package.
type File struct {
	FilePath string `json:"file_path"`
	Size     uint64 `json:"size"`
	PclnSize uint64 `json:"pcln_size"`
}

// FileSymbol is a symbol attributed to a package.
type FileSymbol struct {
	Name string     `json:"name"`
	Addr uint64     `json:"addr"`
	Size uint64     `json:"size"`
	Type SymbolType `json:"type"`
}

// Package is a Go package with its files, symbols and nested packages.
type Package struct {
	Name        string              `json:"name"`
	Type        PackageType         `json:"type"`
	SubPackages map[string]*Package `json:"subPackages"`
	Files       []*File             `json:"files"`
	Symbols     []*FileSymbol       `json:"symbols"`
	Size        uint64              `json:"size"`
}

// Result is the root of a report.
type Result struct {
	Name      string              `json:"name"`
	Size      uint64              `json:"size"`
	Packages  map[string]*Package `json:"packages"`
	Sections  []*Section          `json:"sections"`
	Analyzers []Analyzer          `json:"analyzers,omitempty"`
}

// Kind tags a [Record].
type Kind string

// Record kinds, in classification priority order.
const (
	KindSection Kind = "section"
	KindFile    Kind = "file"
	KindPackage Kind = "package"
	KindResult  Kind = "result"
	KindSymbol  Kind = "symbol"
)

// Record is any node of a report. The set of implementations is closed.
type Record interface {
	Kind() Kind
	DeclaredSize() uint64
	record()
}

func (*Section) Kind() Kind    { return KindSection }
func (*File) Kind() Kind       { return KindFile }
func (*Package) Kind() Kind    { return KindPackage }
func (*Result) Kind() Kind     { return KindResult }
func (*FileSymbol) Kind() Kind { return KindSymbol }

func (s *Section) DeclaredSize() uint64    { return s.Size }
func (f *File) DeclaredSize() uint64       { return f.Size }
func (p *Package) DeclaredSize() uint64    { return p.Size }
func (r *Result) DeclaredSize() uint64     { return r.Size }
func (s *FileSymbol) DeclaredSize() uint64 { return s.Size }

func (*Section) record()    {}
func (*File) record()       {}
func (*Package) record()    {}
func (*Result) record()     {}
func (*FileSymbol) record() {}

// Classify returns the kind of r. A nil record, or a typed nil pointer,
// matches no kind and yields an errors.ErrCodeClassification error.
func Classify(r Record) (Kind, error) {
	switch v := r.(type) {
	case *Section:
		if v != nil {
			return KindSection, nil
		}
	case *File:
		if v != nil {
			return KindFile, nil
		}
	case *Package:
		if v != nil {
			return KindPackage, nil
		}
	case *Result:
		if v != nil {
			return KindResult, nil
		}
	case *FileSymbol:
		if v != nil {
			return KindSymbol, nil
		}
	}
	return "", errors.New(errors.ErrCodeClassification, "record %T matches no known kind", r)
}

var debugPrefixes = []string{".debug_", ".zdebug_", "__debug_", "__zdebug_"}

// IsDebugSection reports whether a section name denotes debug information:
// ELF/PE ".debug_*" and ".zdebug_*", Mach-O "__debug_*" and "__zdebug_*",
// or anything in the Mach-O "__DWARF" segment.
func IsDebugSection(name string) bool {
	for _, p := range debugPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return strings.HasSuffix(name, "__DWARF")
}
