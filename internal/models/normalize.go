// internal/models/normalize.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

// NormalizeOutcome distinguishes how a StoryState was obtained during
// normalization. Canonical means the input was already valid and returned
// unchanged, Recovered means a legacy flat viewer book was converted, and
// Empty means the input was unusable and a fresh state was substituted.
type NormalizeOutcome int

const (
	NormalizeCanonical NormalizeOutcome = iota
	NormalizeRecovered
	NormalizeEmpty
)

// storyStateProbe mirrors just enough of the envelope to classify raw JSON.
// Fields that fail to decode are left zero, matching the optional-chaining
// reads of earlier schema generations of this pipeline.
type storyStateProbe struct {
	Version      json.RawMessage            `json:"version"`
	Metadata     map[string]json.RawMessage `json:"metadata"`
	StoryData    map[string]json.RawMessage `json:"story_data"`
	StoryContent *struct {
		SceneJSONArray []json.RawMessage `json:"SceneJSON_array"`
	} `json:"story_content"`
}

// flatViewerProbe classifies the legacy flat viewer schema: a root pages
// sequence plus a string title.
type flatViewerProbe struct {
	Pages []json.RawMessage `json:"pages"`
	Title json.RawMessage   `json:"title"`
}

// FlatViewerBook is the legacy flat page-list schema. It is accepted on
// import only and never produced.
type FlatViewerBook struct {
	ID              FlexID           `json:"id"`
	Title           string           `json:"title"`
	Author          string           `json:"author"`
	Pages           []FlatViewerPage `json:"pages"`
	TableOfContents []TOCEntry       `json:"tableOfContents"`
}

// FlatViewerPage is one legacy page. A page with type "cover" becomes the
// Cover block; all others become scenes in array order.
type FlatViewerPage struct {
	ID       FlexID    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	ImageURL string    `json:"imageUrl"`
	Hotspots []Hotspot `json:"hotspots"`
}

func jsonTokenIsNumber(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func jsonTokenIsString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// unmarshalLenient decodes raw into v, tolerating mismatched field types:
// encoding/json records the first type error but keeps decoding, so every
// readable field is still populated. Only syntax-level failures are returned.
func unmarshalLenient(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
	}
	return nil
}

// IsValidStoryStateRaw reports whether raw JSON carries the canonical
// StoryState envelope: numeric version, metadata/story_data/story_content
// objects, and SceneJSON_array as a sequence.
func IsValidStoryStateRaw(raw []byte) bool {
	var probe storyStateProbe
	if err := unmarshalLenient(raw, &probe); err != nil {
		return false
	}
	if !jsonTokenIsNumber(probe.Version) {
		return false
	}
	if probe.Metadata == nil || probe.StoryData == nil {
		return false
	}
	return probe.StoryContent != nil && probe.StoryContent.SceneJSONArray != nil
}

// DecodeStoryStateLenient decodes raw JSON into a StoryState, reading
// mismatched fields as zero values. Only malformed JSON fails.
func DecodeStoryStateLenient(raw []byte) (*StoryState, error) {
	var ss StoryState
	if err := unmarshalLenient(raw, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// NormalizeStoryState normalizes an in-memory StoryState. A structurally
// valid input is returned unchanged (identity, no defensive copy); anything
// else yields a fresh empty StoryState. Logged, never an error: the pipeline
// stays total by design.
func NormalizeStoryState(ss *StoryState) *StoryState {
	if IsValidStoryState(ss) {
		return ss
	}
	logrus.Warn("storystate: unusable in-memory input, substituting empty StoryState")
	return NewEmptyStoryState(nil)
}

// NormalizeRaw normalizes raw JSON to a canonical StoryState. It accepts the
// canonical envelope, the legacy flat viewer schema, or anything else (which
// yields a fresh empty state). The outcome reports which branch was taken.
func NormalizeRaw(raw []byte) (*StoryState, NormalizeOutcome) {
	if IsValidStoryStateRaw(raw) {
		ss, err := DecodeStoryStateLenient(raw)
		if err == nil {
			return ss, NormalizeCanonical
		}
		logrus.WithError(err).Warn("storystate: canonical probe passed but decode failed")
	}

	var probe flatViewerProbe
	if err := unmarshalLenient(raw, &probe); err == nil &&
		probe.Pages != nil && jsonTokenIsString(probe.Title) {
		var flat FlatViewerBook
		if err := unmarshalLenient(raw, &flat); err == nil {
			return ConvertFlatViewerBook(&flat), NormalizeRecovered
		}
	}

	logrus.Warn("storystate: unknown input format, returning empty StoryState")
	return NewEmptyStoryState(nil), NormalizeEmpty
}

// ConvertFlatViewerBook converts the legacy flat schema to a StoryState.
// The first page with type "cover" becomes the Cover block; remaining pages
// become scenes, marked illustrated when they already carry an image.
func ConvertFlatViewerBook(flat *FlatViewerBook) *StoryState {
	ss := NewEmptyStoryState(nil)
	if flat == nil {
		return ss
	}

	if flat.ID != "" {
		ss.Metadata.SessionID = flat.ID.String()
	}
	if flat.Title != "" {
		ss.StoryData.StoryTitle = flat.Title
	}

	var cover *FlatViewerPage
	scenes := make([]Scene, 0, len(flat.Pages))
	for i := range flat.Pages {
		page := &flat.Pages[i]
		if page.Type == "cover" {
			if cover == nil {
				cover = page
			}
			continue
		}

		n := len(scenes) + 1
		scene := Scene{
			SceneID:         page.ID,
			SceneTitle:      page.Title,
			SceneStatus:     SceneStatusPendingIllustration,
			SceneFullText:   page.Text,
			IllustrationURL: page.ImageURL,
			Hotspots:        page.Hotspots,
		}
		if scene.SceneID == "" {
			scene.SceneID = FlexID(sceneFallbackID(n))
		}
		if scene.SceneTitle == "" {
			scene.SceneTitle = sceneFallbackTitle(n)
		}
		if page.ImageURL != "" {
			scene.SceneStatus = SceneStatusIllustrated
		}
		scenes = append(scenes, scene)
	}
	ss.StoryContent.SceneJSONArray = scenes

	if cover != nil {
		coverTitle := cover.Text
		if coverTitle == "" {
			coverTitle = flat.Title
		}
		ss.StoryContent.Cover = &Cover{
			CoverImageURL: cover.ImageURL,
			CoverTitle:    coverTitle,
		}
	}

	ss.ViewerMeta = &ViewerMeta{
		Author:          flat.Author,
		TableOfContents: flat.TableOfContents,
	}
	if ss.ViewerMeta.TableOfContents == nil {
		ss.ViewerMeta.TableOfContents = []TOCEntry{}
	}

	return ss
}
