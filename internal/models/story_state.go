// internal/models/story_state.go
package models

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// StoryState is the canonical versioned envelope for all story data. It is
// the single source of truth handed between the three wizard stages.
type StoryState struct {
	Version      int            `json:"version"`
	Metadata     *StoryMetadata `json:"metadata"`
	StoryData    *StoryData     `json:"story_data"`
	StoryContent *StoryContent  `json:"story_content"`

	// ViewerMeta is a side channel preserved when converting from the legacy
	// flat viewer schema, so author and table of contents survive a round
	// trip back to the viewer.
	ViewerMeta *ViewerMeta `json:"_viewerMeta,omitempty"`
}

// StoryMetadata identifies the editing session.
type StoryMetadata struct {
	SessionID   string  `json:"session_id"`
	LastUpdated int64   `json:"last_updated"`
	LastPrompt  *string `json:"last_prompt"`
}

// StoryData holds story-level presentation settings.
type StoryData struct {
	StoryTitle           string  `json:"story_title"`
	ThematicTone         *string `json:"thematic_tone"`
	VisualStyle          *string `json:"visual_style"`
	VisualConsistencyTag *string `json:"visual_consistency_tag"`
}

// StoryContent maps the fixed content blocks. Nil blocks serialize as JSON
// null; a nil SceneJSONArray means the sequence is absent, an empty slice
// means present-but-empty.
type StoryContent struct {
	CharacterBlock      *CharacterBlock      `json:"CharacterBlock"`
	StoryBlueprintBlock *StoryBlueprintBlock `json:"StoryBlueprintBlock"`
	SceneJSONArray      []Scene              `json:"SceneJSON_array"`
	Cover               *Cover               `json:"Cover"`
	AssetsManifest      *AssetsManifest      `json:"AssetsManifest"`
}

// CharacterBlock holds the forged hero. Traits may arrive as an object or an
// array depending on the producing stage, so it is carried opaquely.
type CharacterBlock struct {
	HeroName         string            `json:"hero_name"`
	HeroDescription  string            `json:"hero_description,omitempty"`
	HeroImageURL     string            `json:"hero_image_url,omitempty"`
	HeroImagePrompt  string            `json:"hero_image_prompt,omitempty"`
	Traits           json.RawMessage   `json:"traits,omitempty"`
	CharacterDetails *CharacterDetails `json:"character_details,omitempty"`
}

// CharacterDetails mirrors the top-level hero fields under a nested key.
// Later-stage consumers read character_details.name.
type CharacterDetails struct {
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Traits          json.RawMessage `json:"traits,omitempty"`
	HeroImagePrompt string          `json:"hero_image_prompt,omitempty"`
	HeroImageURL    string          `json:"hero_image_url,omitempty"`
}

// StoryBlueprintBlock is the generated story outline.
type StoryBlueprintBlock struct {
	Structure       *BlueprintStructure `json:"structure,omitempty"`
	SummarySections *SummarySections    `json:"summary_sections,omitempty"`
}

// BlueprintStructure describes the planned shape of the story.
type BlueprintStructure struct {
	NumberOfScenes int `json:"numberOfScenes"`
}

// SummarySections is the beginning/middle/end arc summary.
type SummarySections struct {
	Beginning string `json:"beginning,omitempty"`
	Middle    string `json:"middle,omitempty"`
	End       string `json:"end,omitempty"`
}

// Cover holds the book cover block.
type Cover struct {
	CoverImagePrompt  string `json:"cover_image_prompt"`
	CoverImageURL     string `json:"cover_image_url"`
	CoverTitle        string `json:"cover_title"`
	AuthorAttribution string `json:"author_attribution,omitempty"`
	Dedication        string `json:"dedication,omitempty"`
}

// AssetsManifest is a derived, denormalized summary of all generated media
// URLs. Scene images are listed in narrative order.
type AssetsManifest struct {
	HeroImage   string   `json:"hero_image"`
	CoverImage  string   `json:"cover_image"`
	SceneImages []string `json:"scene_images"`
}

// ViewerMeta preserves flat-schema fields that have no canonical home.
type ViewerMeta struct {
	Author          string     `json:"author,omitempty"`
	TableOfContents []TOCEntry `json:"tableOfContents,omitempty"`
}

// TOCEntry is one table-of-contents row in the viewer schema.
type TOCEntry struct {
	ID    FlexID `json:"id"`
	Title string `json:"title"`
}

// StoryStateOverrides lets callers seed sections of a fresh StoryState.
// Non-zero fields of a provided section win over the defaults.
type StoryStateOverrides struct {
	Metadata     *StoryMetadata
	StoryData    *StoryData
	StoryContent *StoryContent
}

const sessionIDRandLen = 7

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID builds an id of the form ss_<epoch-millis>_<7-char-base36>.
func newSessionID(now time.Time) string {
	buf := make([]byte, sessionIDRandLen)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is not survivable in any useful way; fall
			// back to a time-derived digit so id generation stays total.
			buf[i] = base36Alphabet[now.UnixNano()%36]
			continue
		}
		buf[i] = base36Alphabet[n.Int64()]
	}
	return fmt.Sprintf("ss_%d_%s", now.UnixMilli(), string(buf))
}

// NewEmptyStoryState creates a fresh StoryState with a generated session id,
// merging caller overrides into the default skeleton. It always succeeds.
func NewEmptyStoryState(overrides *StoryStateOverrides) *StoryState {
	now := time.Now()

	ss := &StoryState{
		Version: 1,
		Metadata: &StoryMetadata{
			SessionID:   newSessionID(now),
			LastUpdated: now.UnixMilli(),
			LastPrompt:  nil,
		},
		StoryData: &StoryData{
			StoryTitle:           "Untitled Story",
			ThematicTone:         nil,
			VisualStyle:          nil,
			VisualConsistencyTag: nil,
		},
		StoryContent: &StoryContent{
			CharacterBlock:      nil,
			StoryBlueprintBlock: nil,
			SceneJSONArray:      []Scene{},
			Cover:               nil,
			AssetsManifest:      nil,
		},
	}

	if overrides == nil {
		return ss
	}

	if o := overrides.Metadata; o != nil {
		if o.SessionID != "" {
			ss.Metadata.SessionID = o.SessionID
		}
		if o.LastUpdated != 0 {
			ss.Metadata.LastUpdated = o.LastUpdated
		}
		if o.LastPrompt != nil {
			ss.Metadata.LastPrompt = o.LastPrompt
		}
	}
	if o := overrides.StoryData; o != nil {
		if o.StoryTitle != "" {
			ss.StoryData.StoryTitle = o.StoryTitle
		}
		if o.ThematicTone != nil {
			ss.StoryData.ThematicTone = o.ThematicTone
		}
		if o.VisualStyle != nil {
			ss.StoryData.VisualStyle = o.VisualStyle
		}
		if o.VisualConsistencyTag != nil {
			ss.StoryData.VisualConsistencyTag = o.VisualConsistencyTag
		}
	}
	if o := overrides.StoryContent; o != nil {
		if o.CharacterBlock != nil {
			ss.StoryContent.CharacterBlock = o.CharacterBlock
		}
		if o.StoryBlueprintBlock != nil {
			ss.StoryContent.StoryBlueprintBlock = o.StoryBlueprintBlock
		}
		if o.SceneJSONArray != nil {
			ss.StoryContent.SceneJSONArray = o.SceneJSONArray
		}
		if o.Cover != nil {
			ss.StoryContent.Cover = o.Cover
		}
		if o.AssetsManifest != nil {
			ss.StoryContent.AssetsManifest = o.AssetsManifest
		}
	}

	return ss
}

// IsValidStoryState reports structural validity only: the envelope sections
// are present and SceneJSON_array exists as a sequence (possibly empty).
// Stage completeness is the bundle validator's job. Never panics on nil.
func IsValidStoryState(ss *StoryState) bool {
	if ss == nil {
		return false
	}
	if ss.Version < 1 {
		return false
	}
	if ss.Metadata == nil || ss.StoryData == nil || ss.StoryContent == nil {
		return false
	}
	return ss.StoryContent.SceneJSONArray != nil
}

// Touch stamps the last-updated time to now (epoch millis).
func (ss *StoryState) Touch() {
	if ss.Metadata != nil {
		ss.Metadata.LastUpdated = time.Now().UnixMilli()
	}
}
