// internal/models/scene.go
package models

import "encoding/json"

// SceneStatus tracks a scene through the illustration pipeline.
type SceneStatus string

const (
	SceneStatusDraft               SceneStatus = "draft"
	SceneStatusPendingIllustration SceneStatus = "pending_illustration"
	SceneStatusIllustrated         SceneStatus = "illustrated"
	SceneStatusApproved            SceneStatus = "approved"
)

// FlexID is an identifier that accepts either a JSON string or a JSON number
// on the wire. Numbers are stringified so scenes stay addressable by a single
// key form across re-imports. Decoding never fails: unrecognized tokens read
// as the empty id.
type FlexID string

// UnmarshalJSON implements tolerant decoding for string or numeric ids.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}
	*f = ""
	return nil
}

// String returns the id as a plain string.
func (f FlexID) String() string {
	return string(f)
}

// Hotspot is an interactive-region descriptor on a page. Its internal shape
// is owned by the viewer and passed through untouched.
type Hotspot map[string]interface{}

// SceneTextComponents is an optional beginning/middle/end breakdown of the
// scene text.
type SceneTextComponents struct {
	Beginning string `json:"beginning,omitempty"`
	Middle    string `json:"middle,omitempty"`
	End       string `json:"end,omitempty"`
}

// Scene is one entry of SceneJSON_array. Insertion order is narrative order.
type Scene struct {
	SceneID             FlexID               `json:"scene_id"`
	SceneTitle          string               `json:"scene_title"`
	SceneStatus         SceneStatus          `json:"scene_status"`
	SceneTextComponents *SceneTextComponents `json:"scene_text_components,omitempty"`
	SceneFullText       string               `json:"scene_full_text"`
	IllustrationPrompt  string               `json:"illustration_prompt"`
	IllustrationURL     string               `json:"illustration_url"`
	ContinuityNotes     string               `json:"continuity_notes,omitempty"`
	Hotspots            []Hotspot            `json:"hotspots,omitempty"`
}
