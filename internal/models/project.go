// internal/models/project.go
package models

import "time"

// Project is one storybook workspace in the project list. Each project owns
// exactly one StoryState.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BlueprintSummary is a human-readable digest of a StoryState's plot,
// shown on the blueprint panel.
type BlueprintSummary struct {
	Premise string          `json:"premise"`
	Scenes  []BlueprintBeat `json:"scenes"`
	Theme   *string         `json:"theme"`
}

// BlueprintBeat is one scene row of the digest.
type BlueprintBeat struct {
	Title string `json:"title"`
	Beat  string `json:"beat"`
}

// ViewerPrefs are per-book reader preferences (page mode, sound, etc.).
// The shape is owned by the viewer; the service just persists it.
type ViewerPrefs map[string]interface{}
