package report

import "sort"

// Summary holds totals over a report.
type Summary struct {
	Name          string                 `json:"name" yaml:"name"`
	Size          uint64                 `json:"size" yaml:"size"`
	Sections      int                    `json:"sections" yaml:"sections"`
	DebugSections int                    `json:"debug_sections" yaml:"debug_sections"`
	Packages      int                    `json:"packages" yaml:"packages"`
	Files         int                    `json:"files" yaml:"files"`
	Symbols       int                    `json:"symbols" yaml:"symbols"`
	ByType        map[PackageType]uint64 `json:"by_type" yaml:"by_type"`
	Analyzers     []Analyzer             `json:"analyzers,omitempty" yaml:"analyzers,omitempty"`
}

// Summarize counts the records of r. Packages are counted recursively and
// ByType sums the declared size of top-level packages per type.
func Summarize(r *Result) Summary {
	s := Summary{
		Name:      r.Name,
		Size:      r.Size,
		ByType:    make(map[PackageType]uint64),
		Analyzers: r.Analyzers,
	}
	for _, sec := range r.Sections {
		s.Sections++
		if IsDebugSection(sec.Name) {
			s.DebugSections++
		}
	}
	for _, p := range r.Packages {
		s.ByType[p.Type] += p.Size
	}
	WalkPackages(r, func(p *Package) {
		s.Packages++
		s.Files += len(p.Files)
		s.Symbols += len(p.Symbols)
	})
	return s
}

// WalkPackages visits every package of r depth-first, in name order.
func WalkPackages(r *Result, fn func(*Package)) {
	walkPackages(r.Packages, fn)
}

func walkPackages(m map[string]*Package, fn func(*Package)) {
	for _, k := range SortedKeys(m) {
		fn(m[k])
		walkPackages(m[k].SubPackages, fn)
	}
}

// SortedKeys returns the keys of a package map in ascending order.
func SortedKeys(m map[string]*Package) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedTypes returns the package types of m in their declaration order.
func SortedTypes(m map[PackageType]uint64) []PackageType {
	var out []PackageType
	for _, t := range PackageTypes {
		if _, ok := m[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
