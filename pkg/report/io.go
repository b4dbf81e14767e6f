package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/matzehuels/sizemap/pkg/errors"
)

// =============================================================================
// Report Serialization API
// =============================================================================

// MaxReportSize caps the number of bytes read from a single report.
const MaxReportSize = 256 << 20

// Parse decodes and validates a report.
func Parse(data []byte) (*Result, error) {
	return decode(bytes.NewReader(data))
}

// Read decodes and validates a report from r.
func Read(r io.Reader) (*Result, error) {
	return decode(io.LimitReader(r, MaxReportSize))
}

// ReadFile reads, decodes and validates a report file.
func ReadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Marshal encodes a report as indented JSON.
func Marshal(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a report as indented JSON to w.
func Write(r *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a report to a JSON file.
func WriteFile(r *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(r, f)
}

// =============================================================================
// Wire Types
// =============================================================================

// Wire types mirror the public ones with pointer fields so that a missing
// field can be told apart from a zero value.

type wireSection struct {
	Name         *string `json:"name"`
	Size         *uint64 `json:"size"`
	FileSize     *uint64 `json:"file_size"`
	KnownSize    *uint64 `json:"known_size"`
	Offset       *uint64 `json:"offset"`
	End          *uint64 `json:"end"`
	Addr         *uint64 `json:"addr"`
	AddrEnd      *uint64 `json:"addr_end"`
	OnlyInMemory *bool   `json:"only_in_memory"`
	Debug        *bool   `json:"debug"`
}

type wireFile struct {
	FilePath *string `json:"file_path"`
	Size     *uint64 `json:"size"`
	PclnSize *uint64 `json:"pcln_size"`
}

type wireSymbol struct {
	Name *string `json:"name"`
	Addr *uint64 `json:"addr"`
	Size *uint64 `json:"size"`
	Type *string `json:"type"`
}

type wirePackage struct {
	Name        *string                  `json:"name"`
	Type        *string                  `json:"type"`
	SubPackages *map[string]*wirePackage `json:"subPackages"`
	Files       *[]*wireFile             `json:"files"`
	Symbols     *[]*wireSymbol           `json:"symbols"`
	Size        *uint64                  `json:"size"`
}

type wireResult struct {
	Name      *string                  `json:"name"`
	Size      *uint64                  `json:"size"`
	Packages  *map[string]*wirePackage `json:"packages"`
	Sections  *[]*wireSection          `json:"sections"`
	Analyzers *[]*string               `json:"analyzers"`
}

// =============================================================================
// Internal Implementation
// =============================================================================

func decode(r io.Reader) (*Result, error) {
	var w *wireResult
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, errors.Wrap(errors.ErrCodeInvalidReport, err, "%s: expected %s", typeErr.Field, typeErr.Type)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidReport, err, "decode report")
	}
	if w == nil {
		return nil, invalid("$", "report must be an object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, invalid("$", "unexpected data after the report")
	}
	return w.convert()
}

func invalid(path, format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidReport, "%s: %s", path, fmt.Sprintf(format, args...))
}

func missing(path, field string) error {
	return invalid(path+"."+field, "required field is missing")
}

func (w *wireResult) convert() (*Result, error) {
	const path = "$"
	switch {
	case w.Name == nil:
		return nil, missing(path, "name")
	case w.Size == nil:
		return nil, missing(path, "size")
	case w.Packages == nil || *w.Packages == nil:
		return nil, missing(path, "packages")
	case w.Sections == nil || *w.Sections == nil:
		return nil, missing(path, "sections")
	}

	out := &Result{Name: *w.Name, Size: *w.Size}

	pkgs, err := convertPackages(path+".packages", *w.Packages)
	if err != nil {
		return nil, err
	}
	out.Packages = pkgs

	out.Sections = make([]*Section, 0, len(*w.Sections))
	for i, s := range *w.Sections {
		sec, err := s.convert(fmt.Sprintf("%s.sections[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out.Sections = append(out.Sections, sec)
	}

	if w.Analyzers != nil {
		for i, a := range *w.Analyzers {
			p := fmt.Sprintf("%s.analyzers[%d]", path, i)
			if a == nil {
				return nil, invalid(p, "must be a string")
			}
			if !Analyzer(*a).Valid() {
				return nil, invalid(p, "unknown analyzer %q", *a)
			}
			out.Analyzers = append(out.Analyzers, Analyzer(*a))
		}
	}
	return out, nil
}

func convertPackages(path string, in map[string]*wirePackage) (map[string]*Package, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]*Package, len(in))
	for _, k := range keys {
		p := fmt.Sprintf("%s[%q]", path, k)
		if in[k] == nil {
			return nil, invalid(p, "must be an object")
		}
		pkg, err := in[k].convert(p)
		if err != nil {
			return nil, err
		}
		out[k] = pkg
	}
	return out, nil
}

func (w *wirePackage) convert(path string) (*Package, error) {
	switch {
	case w.Name == nil:
		return nil, missing(path, "name")
	case w.Type == nil:
		return nil, missing(path, "type")
	case w.SubPackages == nil || *w.SubPackages == nil:
		return nil, missing(path, "subPackages")
	case w.Files == nil || *w.Files == nil:
		return nil, missing(path, "files")
	case w.Symbols == nil || *w.Symbols == nil:
		return nil, missing(path, "symbols")
	case w.Size == nil:
		return nil, missing(path, "size")
	}
	typ := PackageType(*w.Type)
	if !typ.Valid() {
		return nil, invalid(path+".type", "unknown package type %q", *w.Type)
	}

	out := &Package{Name: *w.Name, Type: typ, Size: *w.Size}

	subs, err := convertPackages(path+".subPackages", *w.SubPackages)
	if err != nil {
		return nil, err
	}
	out.SubPackages = subs

	out.Files = make([]*File, 0, len(*w.Files))
	for i, f := range *w.Files {
		p := fmt.Sprintf("%s.files[%d]", path, i)
		if f == nil {
			return nil, invalid(p, "must be an object")
		}
		switch {
		case f.FilePath == nil:
			return nil, missing(p, "file_path")
		case f.Size == nil:
			return nil, missing(p, "size")
		case f.PclnSize == nil:
			return nil, missing(p, "pcln_size")
		}
		out.Files = append(out.Files, &File{FilePath: *f.FilePath, Size: *f.Size, PclnSize: *f.PclnSize})
	}

	out.Symbols = make([]*FileSymbol, 0, len(*w.Symbols))
	for i, s := range *w.Symbols {
		p := fmt.Sprintf("%s.symbols[%d]", path, i)
		if s == nil {
			return nil, invalid(p, "must be an object")
		}
		switch {
		case s.Name == nil:
			return nil, missing(p, "name")
		case s.Addr == nil:
			return nil, missing(p, "addr")
		case s.Size == nil:
			return nil, missing(p, "size")
		case s.Type == nil:
			return nil, missing(p, "type")
		}
		st := SymbolType(*s.Type)
		if !st.Valid() {
			return nil, invalid(p+".type", "unknown symbol type %q", *s.Type)
		}
		out.Symbols = append(out.Symbols, &FileSymbol{Name: *s.Name, Addr: *s.Addr, Size: *s.Size, Type: st})
	}
	return out, nil
}

func (w *wireSection) convert(path string) (*Section, error) {
	if w == nil {
		return nil, invalid(path, "must be an object")
	}
	switch {
	case w.Name == nil:
		return nil, missing(path, "name")
	case w.Size == nil:
		return nil, missing(path, "size")
	case w.FileSize == nil:
		return nil, missing(path, "file_size")
	case w.KnownSize == nil:
		return nil, missing(path, "known_size")
	case w.Offset == nil:
		return nil, missing(path, "offset")
	case w.End == nil:
		return nil, missing(path, "end")
	case w.Addr == nil:
		return nil, missing(path, "addr")
	case w.AddrEnd == nil:
		return nil, missing(path, "addr_end")
	case w.OnlyInMemory == nil:
		return nil, missing(path, "only_in_memory")
	case w.Debug == nil:
		return nil, missing(path, "debug")
	}
	return &Section{
		Name:         *w.Name,
		Size:         *w.Size,
		FileSize:     *w.FileSize,
		KnownSize:    *w.KnownSize,
		Offset:       *w.Offset,
		End:          *w.End,
		Addr:         *w.Addr,
		AddrEnd:      *w.AddrEnd,
		OnlyInMemory: *w.OnlyInMemory,
		Debug:        *w.Debug,
	}, nil
}
