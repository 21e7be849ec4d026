// internal/services/bundle_validator.go
package services

import (
	"fmt"
	"strings"

	"github.com/MYMGG/storysmith-mvp/internal/models"
)

// ValidationResult is the outcome of a completeness check. Errors accumulate
// in order; validation never short-circuits on the first violation because
// the caller needs the complete list to render actionable feedback.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// User-facing import validation messages. These are shown verbatim, so
// wording stability matters for tests.
const (
	ErrMsgNotJSON             = "Invalid file format. Please upload a .json file."
	ErrMsgMissingBundleType   = "This doesn't appear to be a StorySmith bundle."
	ErrMsgMissingHeroData     = "This bundle is missing hero data. Please complete Act I first."
	ErrMsgMissingHeroName     = "This bundle is missing the hero name. Please complete Act I first."
	ErrMsgMissingScenes       = "This bundle has no scenes. Please complete Act II first."
	ErrMsgMissingCoverPrompt  = "This bundle is missing a cover image prompt."
	ErrMsgMissingCoverURL     = "This bundle is missing a cover image URL. Please generate the cover image first."
	ErrMsgMissingManifest     = "This bundle is missing the assets manifest. Please complete all image generation first."
	ErrMsgMissingStoryState   = "This bundle is missing the StoryState data."
	ErrMsgInvalidStoryState   = "The StoryState in this bundle is invalid or malformed."
)

func errMsgWrongBundleType(actual, expected models.BundleType) string {
	return fmt.Sprintf("This is a %s bundle. This step requires a %s bundle.", actual, expected)
}

func errMsgUnknownBundleType(actual string) string {
	names := make([]string, len(models.BundleTypes))
	for i, t := range models.BundleTypes {
		names[i] = string(t)
	}
	return fmt.Sprintf("Unknown bundle type: %q. Expected one of: %s.", actual, strings.Join(names, ", "))
}

// errMsgScene names the 1-based scene position and, when present, its
// scene_id, so users can find the offending scene without a lookup.
func errMsgScene(n int, id models.FlexID, what string) string {
	if id != "" {
		return fmt.Sprintf("Scene %d (%s) is missing an %s.", n, id, what)
	}
	return fmt.Sprintf("Scene %d is missing an %s.", n, what)
}

func storyContentOf(ss *models.StoryState) *models.StoryContent {
	if ss == nil {
		return nil
	}
	return ss.StoryContent
}

// ValidatePart1Content checks the Part1 completeness requirements:
// CharacterBlock present with a non-empty hero_name.
func ValidatePart1Content(ss *models.StoryState) ValidationResult {
	var errs []string
	sc := storyContentOf(ss)

	if sc == nil || sc.CharacterBlock == nil {
		errs = append(errs, ErrMsgMissingHeroData)
	} else if sc.CharacterBlock.HeroName == "" {
		errs = append(errs, ErrMsgMissingHeroName)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidatePart2Content checks the Part2 requirements: Part1 plus a non-empty
// scene list with an illustration prompt per scene and a cover image prompt.
func ValidatePart2Content(ss *models.StoryState) ValidationResult {
	var errs []string
	sc := storyContentOf(ss)

	if sc == nil || sc.CharacterBlock == nil {
		errs = append(errs, ErrMsgMissingHeroData)
	} else if sc.CharacterBlock.HeroName == "" {
		errs = append(errs, ErrMsgMissingHeroName)
	}

	if sc == nil || len(sc.SceneJSONArray) == 0 {
		errs = append(errs, ErrMsgMissingScenes)
	} else {
		for i, scene := range sc.SceneJSONArray {
			if scene.IllustrationPrompt == "" {
				errs = append(errs, errMsgScene(i+1, scene.SceneID, "illustration prompt"))
			}
		}
	}

	if sc == nil || sc.Cover == nil || sc.Cover.CoverImagePrompt == "" {
		errs = append(errs, ErrMsgMissingCoverPrompt)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateFinalContent checks the Final requirements: Part2 plus an
// illustration URL per scene, a cover image URL, and the assets manifest.
func ValidateFinalContent(ss *models.StoryState) ValidationResult {
	var errs []string
	sc := storyContentOf(ss)

	if sc == nil || sc.CharacterBlock == nil {
		errs = append(errs, ErrMsgMissingHeroData)
	} else if sc.CharacterBlock.HeroName == "" {
		errs = append(errs, ErrMsgMissingHeroName)
	}

	if sc == nil || len(sc.SceneJSONArray) == 0 {
		errs = append(errs, ErrMsgMissingScenes)
	} else {
		for i, scene := range sc.SceneJSONArray {
			if scene.IllustrationPrompt == "" {
				errs = append(errs, errMsgScene(i+1, scene.SceneID, "illustration prompt"))
			}
			if scene.IllustrationURL == "" {
				errs = append(errs, errMsgScene(i+1, scene.SceneID, "illustration URL"))
			}
		}
	}

	if sc == nil || sc.Cover == nil {
		errs = append(errs, ErrMsgMissingCoverPrompt)
		errs = append(errs, ErrMsgMissingCoverURL)
	} else {
		if sc.Cover.CoverImagePrompt == "" {
			errs = append(errs, ErrMsgMissingCoverPrompt)
		}
		if sc.Cover.CoverImageURL == "" {
			errs = append(errs, ErrMsgMissingCoverURL)
		}
	}

	if sc == nil || sc.AssetsManifest == nil {
		errs = append(errs, ErrMsgMissingManifest)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateStageContent dispatches to the per-stage content check. Stage
// completeness is monotonic: Final implies Part2 implies Part1.
func ValidateStageContent(ss *models.StoryState, stage models.BundleType) ValidationResult {
	switch stage {
	case models.BundleTypePart1:
		return ValidatePart1Content(ss)
	case models.BundleTypePart2:
		return ValidatePart2Content(ss)
	case models.BundleTypeFinal:
		return ValidateFinalContent(ss)
	}
	return ValidationResult{
		Valid:  false,
		Errors: []string{fmt.Sprintf("Unknown expected bundle type: %q.", string(stage))},
	}
}

// BundleEnvelope is the decoded outer shape handed to envelope validation.
// Presence flags are tracked separately because the raw file may carry the
// StoryState key with a non-object value.
type BundleEnvelope struct {
	RootIsObject       bool
	BundleType         string
	BundleVersion      string
	ExportedAt         string
	HasStoryState      bool
	StoryStateIsObject bool
	StoryState         *models.StoryState
}

// ValidateEnvelope checks the outer bundle shape: known bundleType and a
// StoryState object. bundleVersion is recommended but not required, for
// legacy support.
func ValidateEnvelope(env *BundleEnvelope) ValidationResult {
	var errs []string

	if env == nil || !env.RootIsObject {
		return ValidationResult{Valid: false, Errors: []string{ErrMsgNotJSON}}
	}

	if env.BundleType == "" {
		errs = append(errs, ErrMsgMissingBundleType)
	} else if !models.BundleType(env.BundleType).Valid() {
		errs = append(errs, errMsgUnknownBundleType(env.BundleType))
	}

	if !env.HasStoryState {
		errs = append(errs, ErrMsgMissingStoryState)
	} else if !env.StoryStateIsObject {
		errs = append(errs, ErrMsgInvalidStoryState)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateBundle validates an envelope against the stage the caller
// expected. A type mismatch yields a single distinguishing error, not merged
// with content errors, so the UI can say "this is a Part1 bundle but Part2
// was expected" instead of listing unrelated missing fields.
func ValidateBundle(env *BundleEnvelope, expected models.BundleType) ValidationResult {
	if res := ValidateEnvelope(env); !res.Valid {
		return res
	}

	if models.BundleType(env.BundleType) != expected {
		return ValidationResult{
			Valid:  false,
			Errors: []string{errMsgWrongBundleType(models.BundleType(env.BundleType), expected)},
		}
	}

	return ValidateStageContent(env.StoryState, expected)
}
