package cache

// Keyer builds cache keys. Hashes passed in are content hashes from [Hash].
type Keyer interface {
	// ReportKey addresses a parsed and validated report.
	ReportKey(reportHash string) string
	// LayoutKey addresses a computed treemap layout.
	LayoutKey(reportHash string, opts LayoutKeyOpts) string
	// ArtifactKey addresses a rendered output file.
	ArtifactKey(reportHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs that change a layout.
type LayoutKeyOpts struct {
	Path         string  `json:"path"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	PaddingTop   float64 `json:"padding_top"`
	PaddingInner float64 `json:"padding_inner"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string        `json:"format"`
	Layout LayoutKeyOpts `json:"layout"`
	Depth  int           `json:"depth,omitempty"`
}

// DefaultKeyer produces "report:", "layout:" and "artifact:" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) ReportKey(reportHash string) string {
	return "report:" + reportHash
}

func (DefaultKeyer) LayoutKey(reportHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", reportHash, opts)
}

func (DefaultKeyer) ArtifactKey(reportHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", reportHash, opts)
}
