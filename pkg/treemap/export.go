package treemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/sizemap/pkg/entry"
)

// Rect is the serializable form of one laid out node.
type Rect struct {
	ID          string     `json:"id" bson:"id"`
	Parent      string     `json:"parent,omitempty" bson:"parent,omitempty"`
	Name        string     `json:"name" bson:"name"`
	Kind        entry.Kind `json:"kind" bson:"kind"`
	Size        uint64     `json:"size" bson:"size"`
	Value       float64    `json:"value" bson:"value"`
	Depth       int        `json:"depth" bson:"depth"`
	Height      int        `json:"height" bson:"height"`
	X0          float64    `json:"x0" bson:"x0"`
	Y0          float64    `json:"y0" bson:"y0"`
	X1          float64    `json:"x1" bson:"x1"`
	Y1          float64    `json:"y1" bson:"y1"`
	HasChildren bool       `json:"has_children" bson:"has_children"`
	Visible     bool       `json:"visible" bson:"visible"`
}

// Export is the serializable form of a layout.
type Export struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Root   string  `json:"root" bson:"root"`
	Nodes  []Rect  `json:"nodes" bson:"nodes"`
}

// ExportLayout flattens a laid out tree in paint order.
func ExportLayout(root *Node) Export {
	out := Export{
		Width:  root.Width(),
		Height: root.Span(),
		Root:   root.ID().String(),
	}
	for _, l := range Layers(root) {
		for _, n := range l.Nodes {
			r := Rect{
				ID:          n.ID().String(),
				Name:        n.Entry.Name(),
				Kind:        n.Entry.Kind(),
				Size:        n.Entry.Size(),
				Value:       n.Value,
				Depth:       n.Depth,
				Height:      n.Height,
				X0:          n.X0,
				Y0:          n.Y0,
				X1:          n.X1,
				Y1:          n.Y1,
				HasChildren: n.HasChildren(),
				Visible:     Visible(n),
			}
			if n.Parent != nil {
				r.Parent = n.Parent.ID().String()
			}
			out.Nodes = append(out.Nodes, r)
		}
	}
	return out
}

// MarshalLayout encodes a laid out tree as indented JSON.
func MarshalLayout(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(root, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLayout encodes a laid out tree as indented JSON to w.
func WriteLayout(root *Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportLayout(root)); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}
