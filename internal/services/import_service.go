// internal/services/import_service.go
package services

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MYMGG/storysmith-mvp/internal/models"
)

// ImportService is the inverse of the exporter, plus backward-compatibility
// shimming: it accepts bundles produced by older exporter versions and
// hand-authored fixtures. Public entry points never return a Go error; every
// failure path resolves to an ImportResult with Success=false.
type ImportService struct{}

// NewImportService creates an import service.
func NewImportService() *ImportService {
	return &ImportService{}
}

func failImport(errs ...string) *models.ImportResult {
	return &models.ImportResult{Success: false, StoryState: nil, Errors: errs}
}

// ImportBundle reads everything from r and imports it as a bundle of the
// expected stage. A hung reader blocks this import attempt; callers own
// cancellation via the reader they pass in.
func (s *ImportService) ImportBundle(r io.Reader, expected models.BundleType) *models.ImportResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return failImport("Failed to read file: " + err.Error())
	}
	return s.ImportBundleFromString(string(data), expected)
}

// ImportBundleFromString imports a bundle from a JSON string. The pipeline
// is parse, migrate, validate against the expected stage, normalize, then a
// final structural check; each step short-circuits to a failure result,
// while error accumulation within the validation step is exhaustive.
func (s *ImportService) ImportBundleFromString(jsonString string, expected models.BundleType) *models.ImportResult {
	// Empty content and syntax errors both map to the same user-facing
	// message; the distinction is not exposed.
	if strings.TrimSpace(jsonString) == "" {
		return failImport(ErrMsgNotJSON)
	}
	var root interface{}
	if err := json.Unmarshal([]byte(jsonString), &root); err != nil {
		return failImport(ErrMsgNotJSON)
	}

	env, actions := migrateLegacyBundle(root)
	if len(actions) > 0 {
		logrus.WithField("actions", strings.Join(actions, "; ")).Info("import: legacy migration applied")
	}

	// Stage validation runs against the bundle's raw declared shape, before
	// normalization may paper over missing fields with defaults.
	if res := ValidateBundle(env, expected); !res.Valid {
		return failImport(res.Errors...)
	}

	storyState := models.NormalizeStoryState(env.StoryState)

	// Safety net against normalization bugs, not a workflow error.
	if !models.IsValidStoryState(storyState) {
		logrus.Warn("import: normalized StoryState failed structural validation")
		return failImport(ErrMsgInvalidStoryState)
	}

	return &models.ImportResult{Success: true, StoryState: storyState, Errors: []string{}}
}

// migrateLegacyBundle upgrades legacy bundle shapes to the current envelope.
// It is total: any input yields a usable envelope plus the list of applied
// migration steps (diagnostic only, never surfaced to the error list).
func migrateLegacyBundle(root interface{}) (*BundleEnvelope, []string) {
	var actions []string

	m, ok := root.(map[string]interface{})
	if !ok {
		return &BundleEnvelope{}, nil
	}

	env := &BundleEnvelope{RootIsObject: true}

	if v, ok := m["bundleVersion"].(string); ok && v != "" {
		env.BundleVersion = v
	} else {
		env.BundleVersion = models.LegacyBundleVersion
		actions = append(actions, "added missing bundleVersion (assumed v0.9)")
	}

	if v, ok := m["bundleType"].(string); ok {
		env.BundleType = v
	}
	if v, ok := m["exportedAt"].(string); ok {
		env.ExportedAt = v
	}

	// SessionState was the pre-1.0 alias for StoryState.
	if v, has := m["StoryState"]; !has || v == nil {
		if legacy, hasLegacy := m["SessionState"]; hasLegacy && legacy != nil {
			m["StoryState"] = legacy
			delete(m, "SessionState")
			actions = append(actions, "migrated SessionState alias to StoryState")
		}
	}

	// A root-level pages sequence without a StoryState is the legacy flat
	// viewer schema; wrap the whole object into a fresh envelope.
	if _, isFlat := m["pages"].([]interface{}); isFlat && m["StoryState"] == nil {
		if env.BundleType == "" {
			env.BundleType = string(models.BundleTypePart1)
		}
		env.BundleVersion = models.CurrentBundleVersion
		env.ExportedAt = time.Now().UTC().Format(exportedAtLayout)
		env.HasStoryState = true
		env.StoryStateIsObject = true
		if raw, err := json.Marshal(m); err == nil {
			env.StoryState, _ = models.NormalizeRaw(raw)
		} else {
			env.StoryState = models.NewEmptyStoryState(nil)
		}
		actions = append(actions, "migrated flat schema to canonical bundle envelope")
		return env, actions
	}

	if v, has := m["StoryState"]; has && v != nil {
		env.HasStoryState = true
		if obj, isObj := v.(map[string]interface{}); isObj {
			env.StoryStateIsObject = true
			if raw, err := json.Marshal(obj); err == nil {
				if ss, decErr := models.DecodeStoryStateLenient(raw); decErr == nil {
					env.StoryState = ss
				}
			}
		}
	}

	if action := synthesizeCharacterDetails(env.StoryState); action != "" {
		actions = append(actions, action)
	}

	if env.BundleVersion == models.LegacyBundleVersion {
		migrateBundleV09ToV10(env)
		actions = append(actions, "upgraded bundleVersion from v0.9 to v1.0")
	}

	return env, actions
}

// synthesizeCharacterDetails backfills character_details from the top-level
// hero fields, keeping later-stage consumers (which read
// character_details.name) working against bundles exported before that
// nested field existed.
func synthesizeCharacterDetails(ss *models.StoryState) string {
	if ss == nil || ss.StoryContent == nil {
		return ""
	}
	cb := ss.StoryContent.CharacterBlock
	if cb == nil || cb.HeroName == "" || cb.CharacterDetails != nil {
		return ""
	}
	cb.CharacterDetails = &models.CharacterDetails{
		Name:            cb.HeroName,
		Description:     cb.HeroDescription,
		Traits:          cb.Traits,
		HeroImagePrompt: cb.HeroImagePrompt,
		HeroImageURL:    cb.HeroImageURL,
	}
	return "normalized CharacterBlock to include character_details"
}

// migrateBundleV09ToV10 stamps a v0.9 bundle as v1.0. No content changes are
// needed between these versions today; this is the designated seam for
// future breaking schema migrations and is kept as an explicit step on
// purpose.
func migrateBundleV09ToV10(env *BundleEnvelope) {
	env.BundleVersion = models.CurrentBundleVersion
}
