// internal/models/story_state_test.go
package models

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestNewEmptyStoryStateDefaults(t *testing.T) {
	ss := NewEmptyStoryState(nil)

	if ss.Version != 1 {
		t.Errorf("Version = %d, want 1", ss.Version)
	}
	if ss.Metadata == nil || ss.StoryData == nil || ss.StoryContent == nil {
		t.Fatal("envelope sections must be present")
	}
	if ss.StoryData.StoryTitle != "Untitled Story" {
		t.Errorf("StoryTitle = %q, want %q", ss.StoryData.StoryTitle, "Untitled Story")
	}
	if ss.StoryContent.SceneJSONArray == nil {
		t.Error("SceneJSONArray must be present (empty, not nil)")
	}
	if len(ss.StoryContent.SceneJSONArray) != 0 {
		t.Errorf("SceneJSONArray len = %d, want 0", len(ss.StoryContent.SceneJSONArray))
	}
	if ss.Metadata.LastUpdated == 0 {
		t.Error("LastUpdated must be stamped")
	}
	if !IsValidStoryState(ss) {
		t.Error("fresh empty StoryState must be structurally valid")
	}
}

func TestNewEmptyStoryStateSessionIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ss_\d+_[0-9a-z]{7}$`)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := NewEmptyStoryState(nil).Metadata.SessionID
		if !pattern.MatchString(id) {
			t.Fatalf("session id %q does not match ss_<millis>_<7 base36 chars>", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("session ids should differ across calls")
	}
}

func TestNewEmptyStoryStateOverrides(t *testing.T) {
	tone := "whimsical"
	ss := NewEmptyStoryState(&StoryStateOverrides{
		Metadata:  &StoryMetadata{SessionID: "ss_1_abcdefg"},
		StoryData: &StoryData{StoryTitle: "The Brave Snail", ThematicTone: &tone},
		StoryContent: &StoryContent{
			CharacterBlock: &CharacterBlock{HeroName: "Shelly"},
		},
	})

	if ss.Metadata.SessionID != "ss_1_abcdefg" {
		t.Errorf("SessionID = %q, want override", ss.Metadata.SessionID)
	}
	if ss.StoryData.StoryTitle != "The Brave Snail" {
		t.Errorf("StoryTitle = %q, want override", ss.StoryData.StoryTitle)
	}
	if ss.StoryData.ThematicTone == nil || *ss.StoryData.ThematicTone != "whimsical" {
		t.Error("ThematicTone override not applied")
	}
	if ss.StoryContent.CharacterBlock == nil || ss.StoryContent.CharacterBlock.HeroName != "Shelly" {
		t.Error("CharacterBlock override not applied")
	}
	// Untouched sections keep their defaults.
	if ss.StoryContent.SceneJSONArray == nil {
		t.Error("SceneJSONArray default lost when overriding other content")
	}
}

func TestIsValidStoryState(t *testing.T) {
	tests := []struct {
		name string
		ss   *StoryState
		want bool
	}{
		{"nil", nil, false},
		{"fresh empty", NewEmptyStoryState(nil), true},
		{"version zero", &StoryState{
			Metadata: &StoryMetadata{}, StoryData: &StoryData{},
			StoryContent: &StoryContent{SceneJSONArray: []Scene{}},
		}, false},
		{"missing metadata", &StoryState{
			Version: 1, StoryData: &StoryData{},
			StoryContent: &StoryContent{SceneJSONArray: []Scene{}},
		}, false},
		{"missing story content", &StoryState{
			Version: 1, Metadata: &StoryMetadata{}, StoryData: &StoryData{},
		}, false},
		{"nil scene array", &StoryState{
			Version: 1, Metadata: &StoryMetadata{}, StoryData: &StoryData{},
			StoryContent: &StoryContent{},
		}, false},
		{"version 2", &StoryState{
			Version: 2, Metadata: &StoryMetadata{}, StoryData: &StoryData{},
			StoryContent: &StoryContent{SceneJSONArray: []Scene{}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidStoryState(tt.ss); got != tt.want {
				t.Errorf("IsValidStoryState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoryStateSerializesNullSections(t *testing.T) {
	ss := NewEmptyStoryState(nil)

	data, err := json.Marshal(ss)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	content, ok := decoded["story_content"]
	if !ok {
		t.Fatal("story_content key missing")
	}
	var contentMap map[string]json.RawMessage
	if err := json.Unmarshal(content, &contentMap); err != nil {
		t.Fatalf("unmarshal story_content: %v", err)
	}

	// Absent blocks serialize as explicit null, not omitted keys.
	for _, key := range []string{"CharacterBlock", "StoryBlueprintBlock", "Cover", "AssetsManifest"} {
		raw, ok := contentMap[key]
		if !ok {
			t.Errorf("%s key omitted, want explicit null", key)
			continue
		}
		if string(raw) != "null" {
			t.Errorf("%s = %s, want null", key, raw)
		}
	}
	if string(contentMap["SceneJSON_array"]) != "[]" {
		t.Errorf("SceneJSON_array = %s, want []", contentMap["SceneJSON_array"])
	}
}

func TestTouchUpdatesLastUpdated(t *testing.T) {
	ss := NewEmptyStoryState(nil)
	ss.Metadata.LastUpdated = 1

	ss.Touch()
	if ss.Metadata.LastUpdated == 1 {
		t.Error("Touch did not update LastUpdated")
	}

	// Touch on a state without metadata must not panic.
	(&StoryState{}).Touch()
}

func TestFlexIDDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FlexID
	}{
		{"string id", `"scene_1"`, "scene_1"},
		{"numeric id", `7`, "7"},
		{"float id", `2.5`, "2.5"},
		{"null id", `null`, ""},
		{"object id", `{"x":1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id FlexID
			if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if id != tt.want {
				t.Errorf("FlexID = %q, want %q", id, tt.want)
			}
		})
	}
}
