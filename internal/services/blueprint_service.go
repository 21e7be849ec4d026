// internal/services/blueprint_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/MYMGG/storysmith-mvp/internal/errors"
	"github.com/MYMGG/storysmith-mvp/internal/llm"
	"github.com/MYMGG/storysmith-mvp/internal/models"
)

const (
	heroPromptFile  = "01_hero_and_blueprint.txt"
	scenePromptFile = "02_scene_weaver.txt"

	sceneWeaverSystemPrompt = "You are The Architect of Arcs."
)

// Embedded fallbacks keep the wizard functional when the prompts directory
// is missing from a deployment.
const (
	heroPromptFallback = "You are The Hero Forge. Interview the guest, then produce a " +
		"CharacterBlock and StoryBlueprintBlock as JSON for a children's storybook."
	scenePromptFallback = "You are The Architect of Arcs. Continue the story one scene at " +
		"a time, replying with updated SceneJSON_array entries as JSON."
)

// BlueprintService drives the two chat stages of the wizard and summarizes
// a StoryState's blueprint for display.
type BlueprintService struct {
	chat       ChatClient
	promptsDir string
}

// NewBlueprintService creates a blueprint service. promptsDir holds the stage
// prompt text files.
func NewBlueprintService(chat ChatClient, promptsDir string) *BlueprintService {
	return &BlueprintService{chat: chat, promptsDir: promptsDir}
}

func (s *BlueprintService) loadPrompt(name, fallback string) string {
	data, err := os.ReadFile(filepath.Join(s.promptsDir, name))
	if err != nil {
		logrus.WithField("prompt", name).Warn("prompt file missing, using embedded fallback")
		return fallback
	}
	return string(data)
}

// ForgeHero runs the hero-creation stage: the stage prompt as system message,
// the guest message as user message.
func (s *BlueprintService) ForgeHero(ctx context.Context, userMessage, apiKey string) (string, error) {
	if userMessage == "" {
		return "", apperrors.NewValidationError("Missing userMessage", nil)
	}

	resp, err := s.chat.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       userMessage,
		SystemPrompt: s.loadPrompt(heroPromptFile, heroPromptFallback),
		APIKey:       apiKey,
	})
	if err != nil {
		return "", apperrors.NewProcessingError("Failed to forge hero", err)
	}
	return resp.Text, nil
}

// WeaveScene runs the scene-weaving stage. The current StoryState is embedded
// in the user prompt so the model continues from where the story stands.
func (s *BlueprintService) WeaveScene(ctx context.Context, userMessage string, state *models.StoryState, apiKey string) (string, error) {
	if userMessage == "" || state == nil {
		return "", apperrors.NewValidationError("Missing storyState or userMessage", nil)
	}

	formattedState, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", apperrors.NewProcessingError("Failed to serialize story state", err)
	}

	fullPrompt := fmt.Sprintf("%s\n\nCurrent story state:\n%s\n\nGuest message:\n%q\n",
		s.loadPrompt(scenePromptFile, scenePromptFallback), formattedState, userMessage)

	resp, err := s.chat.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       fullPrompt,
		SystemPrompt: sceneWeaverSystemPrompt,
		APIKey:       apiKey,
	})
	if err != nil {
		return "", apperrors.NewProcessingError("Failed to generate scene", err)
	}
	return resp.Text, nil
}

// BlueprintFromStoryState condenses a StoryState into a premise, per-scene
// beats, and a theme. Every field degrades to a readable fallback.
func BlueprintFromStoryState(state *models.StoryState) *models.BlueprintSummary {
	summary := &models.BlueprintSummary{Premise: "", Scenes: []models.BlueprintBeat{}, Theme: nil}
	if state == nil {
		return summary
	}

	heroName := "The hero"
	storyTitle := "this tale"
	var scenes []models.Scene

	if state.StoryContent != nil {
		if cb := state.StoryContent.CharacterBlock; cb != nil {
			if cb.HeroName != "" {
				heroName = cb.HeroName
			} else if cb.CharacterDetails != nil && cb.CharacterDetails.Name != "" {
				heroName = cb.CharacterDetails.Name
			}
		}
		scenes = state.StoryContent.SceneJSONArray
	}
	if state.StoryData != nil {
		if state.StoryData.StoryTitle != "" {
			storyTitle = state.StoryData.StoryTitle
		}
		if state.StoryData.ThematicTone != nil && *state.StoryData.ThematicTone != "" {
			tone := *state.StoryData.ThematicTone
			summary.Theme = &tone
		}
	}

	var summaryParts []string
	if state.StoryContent != nil && state.StoryContent.StoryBlueprintBlock != nil &&
		state.StoryContent.StoryBlueprintBlock.SummarySections != nil {
		sections := state.StoryContent.StoryBlueprintBlock.SummarySections
		for _, part := range []string{sections.Beginning, sections.Middle, sections.End} {
			if part != "" {
				summaryParts = append(summaryParts, part)
			}
		}
	}

	switch {
	case len(summaryParts) > 0:
		summary.Premise = strings.Join(summaryParts, " ")
	case len(scenes) > 0:
		summary.Premise = fmt.Sprintf("%s faces a %d-scene journey in %s.", heroName, len(scenes), storyTitle)
	default:
		summary.Premise = fmt.Sprintf("%s steps into %s.", heroName, storyTitle)
	}

	for i, scene := range scenes {
		title := scene.SceneTitle
		if title == "" {
			title = fmt.Sprintf("Scene %d", i+1)
		}
		summary.Scenes = append(summary.Scenes, models.BlueprintBeat{
			Title: title,
			Beat:  sceneBeat(scene.SceneFullText),
		})
	}

	return summary
}

// sceneBeat extracts the first sentence of a scene's text, ensuring it ends
// with a period.
func sceneBeat(fullText string) string {
	first := strings.TrimSpace(strings.SplitN(fullText, ". ", 2)[0])
	if first == "" {
		return "Scene beat not specified."
	}
	if !strings.HasSuffix(first, ".") {
		first += "."
	}
	return first
}
