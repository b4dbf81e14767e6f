package report

import (
	"testing"

	"github.com/matzehuels/sizemap/pkg/errors"
)

func TestClassify(t *testing.T) {
	var nilPkg *Package
	tests := []struct {
		name    string
		rec     Record
		want    Kind
		wantErr bool
	}{
		{"section", &Section{Name: ".text"}, KindSection, false},
		{"file", &File{FilePath: "a.go"}, KindFile, false},
		{"package", &Package{Name: "p"}, KindPackage, false},
		{"result", &Result{Name: "bin"}, KindResult, false},
		{"symbol", &FileSymbol{Name: "s"}, KindSymbol, false},
		{"nil", nil, "", true},
		{"typed nil", nilPkg, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.rec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeClassification) {
				t.Errorf("Classify() code = %v, want %v", errors.GetCode(err), errors.ErrCodeClassification)
			}
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDebugSection(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".debug_info", true},
		{".zdebug_line", true},
		{"__debug_abbrev", true},
		{"__zdebug_str", true},
		{"__DWARF", true},
		{"__DWARF.__DWARF", true},
		{".text", false},
		{".rodata", false},
		{"debug_info", false},
		{".gopclntab", false},
	}

	for _, tt := range tests {
		if got := IsDebugSection(tt.name); got != tt.want {
			t.Errorf("IsDebugSection(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	r := &Result{
		Name: "bin",
		Size: 100,
		Sections: []*Section{
			{Name: ".text"},
			{Name: ".debug_info"},
		},
		Packages: map[string]*Package{
			"main": {Name: "main", Type: PackageMain, Size: 10, Files: []*File{{}, {}}},
			"net": {
				Name: "net", Type: PackageStd, Size: 30, Symbols: []*FileSymbol{{}},
				SubPackages: map[string]*Package{
					"net/http": {Name: "net/http", Type: PackageStd, Size: 20, Files: []*File{{}}},
				},
			},
		},
	}

	s := Summarize(r)
	if s.Sections != 2 || s.DebugSections != 1 {
		t.Errorf("Sections = %d/%d, want 2/1", s.Sections, s.DebugSections)
	}
	if s.Packages != 3 {
		t.Errorf("Packages = %d, want 3", s.Packages)
	}
	if s.Files != 3 || s.Symbols != 1 {
		t.Errorf("Files/Symbols = %d/%d, want 3/1", s.Files, s.Symbols)
	}
	if s.ByType[PackageStd] != 30 || s.ByType[PackageMain] != 10 {
		t.Errorf("ByType = %v", s.ByType)
	}
}
