package entry

// ExportNode is the serializable form of an entry subtree.
type ExportNode struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        Kind         `json:"kind" yaml:"kind"`
	Name        string       `json:"name" yaml:"name"`
	URLName     string       `json:"url_name" yaml:"url_name"`
	Size        uint64       `json:"size" yaml:"size"`
	Human       string       `json:"human_size" yaml:"human_size"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []ExportNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Export converts e into an ExportNode. A maxDepth of 0 or less exports the
// whole subtree; otherwise entries deeper than maxDepth below e are dropped.
// Descriptions are included when withDescription is set.
func Export(e Entry, maxDepth int, withDescription bool) ExportNode {
	return export(e, 0, maxDepth, withDescription)
}

func export(e Entry, depth, maxDepth int, desc bool) ExportNode {
	out := ExportNode{
		ID:      e.ID().String(),
		Kind:    e.Kind(),
		Name:    e.Name(),
		URLName: e.URLSafeName(),
		Size:    e.Size(),
		Human:   FormatBytes(e.Size()),
	}
	if desc {
		out.Description = e.String()
	}
	if maxDepth > 0 && depth >= maxDepth {
		return out
	}
	for _, c := range e.Children() {
		out.Children = append(out.Children, export(c, depth+1, maxDepth, desc))
	}
	return out
}
