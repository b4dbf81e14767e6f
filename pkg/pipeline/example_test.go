package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/pipeline"
)

func ExampleRunner_Execute() {
	raw, err := os.ReadFile("../../examples/hello.json")
	if err != nil {
		panic(err)
	}

	r := pipeline.NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), raw, pipeline.Options{
		Path:    "#hello#std-packages#runtime",
		Formats: []string{pipeline.FormatSVG, pipeline.FormatTree},
		Depth:   1,
	})
	if err != nil {
		panic(err)
	}

	var focused entry.ExportNode
	if err := json.Unmarshal(res.Artifacts[pipeline.FormatTree], &focused); err != nil {
		panic(err)
	}
	fmt.Println(focused.Name, focused.Size)
	fmt.Println(len(res.Artifacts[pipeline.FormatSVG]) > 0)
	// Output:
	// runtime 900000
	// true
}
