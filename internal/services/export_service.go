// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/MYMGG/storysmith-mvp/internal/errors"
	"github.com/MYMGG/storysmith-mvp/internal/models"
	"github.com/MYMGG/storysmith-mvp/internal/storage"
)

// exportedAtLayout matches the timestamp format earlier exporter versions
// wrote (UTC, millisecond precision, Z suffix). Legacy tooling diffs
// exported files, so the format is a compatibility concern.
const exportedAtLayout = "2006-01-02T15:04:05.000Z"

// ExportService turns an in-memory StoryState into a downloadable bundle
// artifact for a named stage. ExportBundle itself has no side effects;
// archiving and download triggering are separate concerns.
type ExportService struct {
	archive *storage.FileStore
}

// NewExportService creates an export service. archive may be nil when no
// server-side copy of exported bundles is wanted.
func NewExportService(archive *storage.FileStore) *ExportService {
	return &ExportService{archive: archive}
}

// Export-gate validation messages. These differ deliberately from the
// import-side catalog: export errors talk to the author of the story,
// import errors to the receiver of a file.
func exportValidate(ss *models.StoryState, bundleType models.BundleType) ValidationResult {
	var errs []string
	sc := ss.StoryContent

	appendHeroErrs := func() {
		if sc.CharacterBlock == nil {
			errs = append(errs, fmt.Sprintf("Missing CharacterBlock: Hero data is required for %s export.", bundleType))
		} else if sc.CharacterBlock.HeroName == "" {
			errs = append(errs, "Missing hero_name in CharacterBlock: Hero must have a name.")
		}
	}

	sceneLabel := func(i int, scene *models.Scene) string {
		id := scene.SceneID.String()
		if id == "" {
			id = "unknown"
		}
		return fmt.Sprintf("Scene %d (%s)", i+1, id)
	}

	switch bundleType {
	case models.BundleTypePart1:
		appendHeroErrs()

	case models.BundleTypePart2:
		appendHeroErrs()
		if len(sc.SceneJSONArray) == 0 {
			errs = append(errs, "Missing scenes: Part2 export requires at least one scene in SceneJSON_array.")
		} else {
			for i := range sc.SceneJSONArray {
				scene := &sc.SceneJSONArray[i]
				if scene.IllustrationPrompt == "" {
					errs = append(errs, fmt.Sprintf("%s is missing an illustration_prompt.", sceneLabel(i, scene)))
				}
			}
		}
		if sc.Cover == nil || sc.Cover.CoverImagePrompt == "" {
			errs = append(errs, "Missing cover_image_prompt: Cover must have an illustration prompt for Part2 export.")
		}

	case models.BundleTypeFinal:
		appendHeroErrs()
		if len(sc.SceneJSONArray) == 0 {
			errs = append(errs, "Missing scenes: Final export requires at least one scene in SceneJSON_array.")
		} else {
			for i := range sc.SceneJSONArray {
				scene := &sc.SceneJSONArray[i]
				if scene.IllustrationPrompt == "" {
					errs = append(errs, fmt.Sprintf("%s is missing an illustration_prompt.", sceneLabel(i, scene)))
				}
				if scene.IllustrationURL == "" {
					errs = append(errs, fmt.Sprintf("%s is missing an illustration_url.", sceneLabel(i, scene)))
				}
			}
		}
		if sc.Cover == nil {
			errs = append(errs, "Missing Cover: Final export requires cover data.")
		} else {
			if sc.Cover.CoverImagePrompt == "" {
				errs = append(errs, "Missing cover_image_prompt in Cover.")
			}
			if sc.Cover.CoverImageURL == "" {
				errs = append(errs, "Missing cover_image_url: Cover image must be generated for Final export.")
			}
		}
		if sc.AssetsManifest == nil {
			errs = append(errs, "Missing AssetsManifest: Final export requires a complete assets manifest.")
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ExportBundle normalizes the StoryState, gates it on the stage validator,
// and wraps it in the versioned bundle envelope serialized with stable
// 2-space indentation. Validation failure is reported as a single error
// whose message is the stage-prefixed, newline-joined error list; that text
// is surfaced to the end user as-is.
func (s *ExportService) ExportBundle(ss *models.StoryState, bundleType models.BundleType) (*models.BundleExport, error) {
	if !bundleType.Valid() {
		names := make([]string, len(models.BundleTypes))
		for i, t := range models.BundleTypes {
			names[i] = string(t)
		}
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Invalid bundleType: %q. Must be one of: %s", string(bundleType), strings.Join(names, ", ")), nil)
	}

	normalized := models.NormalizeStoryState(ss)
	if !models.IsValidStoryState(normalized) {
		return nil, apperrors.NewProcessingError(
			"Invalid storyState after normalization: The provided data could not be converted to a valid StoryState. "+
				"Ensure the object has the required structure (version, metadata, story_data, story_content).", nil)
	}

	if res := exportValidate(normalized, bundleType); !res.Valid {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Validation failed for %s export:\n- %s", bundleType, strings.Join(res.Errors, "\n- ")), nil)
	}

	envelope := &models.Bundle{
		BundleType:    bundleType,
		BundleVersion: models.CurrentBundleVersion,
		ExportedAt:    time.Now().UTC().Format(exportedAtLayout),
		StoryState:    normalized,
	}

	jsonBytes, err := marshalBundleIndented(envelope)
	if err != nil {
		return nil, apperrors.NewProcessingError("Failed to serialize bundle", err)
	}

	return &models.BundleExport{
		Filename:   models.BundleFilenames[bundleType],
		MIME:       models.BundleMIMEType,
		JSONString: string(jsonBytes),
		Object:     envelope,
	}, nil
}

// marshalBundleIndented serializes the envelope with multi-line, 2-space
// indentation. Indentation is part of the wire contract.
func marshalBundleIndented(b *models.Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// ExportAndArchive exports a bundle and writes a server-side copy under the
// archive directory, named <session_id>_<filename>. The export result is
// returned even if archiving fails (archiving is best-effort).
func (s *ExportService) ExportAndArchive(ss *models.StoryState, bundleType models.BundleType) (*models.BundleExport, error) {
	export, err := s.ExportBundle(ss, bundleType)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		name := export.Filename
		if meta := export.Object.StoryState.Metadata; meta != nil && meta.SessionID != "" {
			name = meta.SessionID + "_" + name
		}
		if err := s.archive.SaveRaw(name, []byte(export.JSONString)); err != nil {
			logrus.WithError(err).WithField("filename", name).Warn("export: failed to archive bundle copy")
		}
	}

	return export, nil
}
