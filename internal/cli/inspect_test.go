package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/report"
)

func TestRunInspectJSON(t *testing.T) {
	var buf bytes.Buffer
	err := quietCLI().runInspect(context.Background(), &buf, writeSample(t), "#bin#main-packages", 1, inspectJSON, true)
	if err != nil {
		t.Fatalf("runInspect() error = %v", err)
	}
	var root entry.ExportNode
	if err := json.Unmarshal(buf.Bytes(), &root); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if want := entry.PackagesName("main"); root.Name != want {
		t.Errorf("root = %q, want %q", root.Name, want)
	}
	if len(root.Children) != 1 || root.Children[0].Name != "main" {
		t.Fatalf("children = %+v, want [main]", root.Children)
	}
	if len(root.Children[0].Children) != 0 {
		t.Error("depth 1 exported grandchildren")
	}
}

func TestRunInspectTable(t *testing.T) {
	var buf bytes.Buffer
	if err := quietCLI().runInspect(context.Background(), &buf, writeSample(t), "", 1, inspectTable, true); err != nil {
		t.Fatalf("runInspect() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"#bin", entry.PackagesName("main"), entry.PackagesName("std")} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRunInspectUnknownPath(t *testing.T) {
	err := quietCLI().runInspect(context.Background(), &bytes.Buffer{}, writeSample(t), "#bin#nope", 1, inspectJSON, true)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("runInspect(unknown path) error = %v, want NOT_FOUND", err)
	}
}

func TestChildrenTableOrder(t *testing.T) {
	r, err := report.Parse([]byte(sampleReport))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := entry.Build(r)
	if err != nil {
		t.Fatal(err)
	}
	out := childrenTable(tree.Root).Render()
	main := strings.Index(out, entry.PackagesName("main"))
	std := strings.Index(out, entry.PackagesName("std"))
	if main < 0 || std < 0 || main > std {
		t.Errorf("children not sorted by size:\n%s", out)
	}
	for _, want := range []string{"600 B", "300 B", " 60.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
