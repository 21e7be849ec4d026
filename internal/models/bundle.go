// internal/models/bundle.go
package models

// BundleType names the stage a bundle was exported for.
type BundleType string

const (
	BundleTypePart1 BundleType = "Part1"
	BundleTypePart2 BundleType = "Part2"
	BundleTypeFinal BundleType = "Final"
)

// BundleTypes lists the known stage names in pipeline order.
var BundleTypes = []BundleType{BundleTypePart1, BundleTypePart2, BundleTypeFinal}

// Valid reports whether t is a known bundle type.
func (t BundleType) Valid() bool {
	switch t {
	case BundleTypePart1, BundleTypePart2, BundleTypeFinal:
		return true
	}
	return false
}

const (
	// CurrentBundleVersion is stamped on every export.
	CurrentBundleVersion = "1.0"
	// LegacyBundleVersion is assumed for bundles without a version.
	LegacyBundleVersion = "0.9"
	// BundleMIMEType is the media type of exported bundle files.
	BundleMIMEType = "application/json"
)

// BundleFilenames maps each stage to its fixed export filename. Filenames
// are deliberately not derived from the story title so downstream import
// stages can pattern-match on them.
var BundleFilenames = map[BundleType]string{
	BundleTypePart1: "MyHeroAssetBundle_Part1.json",
	BundleTypePart2: "MyStoryAssetBundle_Part2.json",
	BundleTypeFinal: "MyStoryAssetBundle_Final.json",
}

// Bundle is the export/import wire envelope around a StoryState.
type Bundle struct {
	BundleType    BundleType  `json:"bundleType"`
	BundleVersion string      `json:"bundleVersion"`
	ExportedAt    string      `json:"exportedAt"`
	StoryState    *StoryState `json:"StoryState"`
}

// BundleExport is the downloadable artifact produced by the exporter.
// Triggering the actual download is the caller's responsibility.
type BundleExport struct {
	Filename   string  `json:"filename"`
	MIME       string  `json:"mime"`
	JSONString string  `json:"jsonString"`
	Object     *Bundle `json:"object"`
}

// ImportResult is the structured outcome of an import attempt. The importer
// never returns a Go error from its public entry points; every failure path
// resolves to Success=false plus displayable messages.
type ImportResult struct {
	Success    bool        `json:"success"`
	StoryState *StoryState `json:"storyState"`
	Errors     []string    `json:"errors"`
}
