// internal/models/viewer.go
package models

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Bundled placeholder assets used when an illustration has not been
// generated yet. Degrade-gracefully policy, not an error.
const (
	PlaceholderCoverImage = "/books/sample/cover.svg"
	PlaceholderPageImage  = "/books/sample/page-1.svg"
)

// ViewerBook is the flat render schema consumed by the read-only viewer.
type ViewerBook struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	Pages           []ViewerPage `json:"pages"`
	TableOfContents []TOCEntry   `json:"tableOfContents"`
}

// ViewerPage is one rendered page.
type ViewerPage struct {
	ID           FlexID    `json:"id"`
	Type         string    `json:"type"`
	ImageURL     string    `json:"imageUrl"`
	Text         string    `json:"text"`
	TextPosition string    `json:"textPosition,omitempty"`
	Hotspots     []Hotspot `json:"hotspots"`
}

func sceneFallbackID(n int) string {
	return fmt.Sprintf("scene_%d", n)
}

func sceneFallbackTitle(n int) string {
	return fmt.Sprintf("Scene %d", n)
}

// ToViewerBook converts a StoryState to the flat viewer schema. The cover
// (if present) becomes the first page, each scene a subsequent page, and
// missing illustration URLs fall back to bundled placeholder assets.
func ToViewerBook(ss *StoryState) *ViewerBook {
	if !IsValidStoryState(ss) {
		logrus.Warn("storystate: invalid StoryState passed to ToViewerBook")
		return &ViewerBook{
			ID:              "unknown",
			Title:           "Error",
			Pages:           []ViewerPage{},
			TableOfContents: []TOCEntry{},
		}
	}

	pages := make([]ViewerPage, 0, len(ss.StoryContent.SceneJSONArray)+1)

	if cover := ss.StoryContent.Cover; cover != nil {
		imageURL := cover.CoverImageURL
		if imageURL == "" {
			imageURL = PlaceholderCoverImage
		}
		text := cover.CoverTitle
		if text == "" {
			text = ss.StoryData.StoryTitle
		}
		pages = append(pages, ViewerPage{
			ID:           "cover",
			Type:         "cover",
			ImageURL:     imageURL,
			Text:         text,
			TextPosition: "center",
			Hotspots:     []Hotspot{},
		})
	}

	for i := range ss.StoryContent.SceneJSONArray {
		scene := &ss.StoryContent.SceneJSONArray[i]
		imageURL := scene.IllustrationURL
		if imageURL == "" {
			imageURL = PlaceholderPageImage
		}
		hotspots := scene.Hotspots
		if hotspots == nil {
			hotspots = []Hotspot{}
		}
		pages = append(pages, ViewerPage{
			ID:       scene.SceneID,
			Type:     "spread",
			ImageURL: imageURL,
			Text:     scene.SceneFullText,
			Hotspots: hotspots,
		})
	}

	toc := tocFor(ss, pages)

	author := "StorySmith"
	if ss.ViewerMeta != nil && ss.ViewerMeta.Author != "" {
		author = ss.ViewerMeta.Author
	}

	return &ViewerBook{
		ID:              ss.Metadata.SessionID,
		Title:           ss.StoryData.StoryTitle,
		Author:          author,
		Pages:           pages,
		TableOfContents: toc,
	}
}

func tocFor(ss *StoryState, pages []ViewerPage) []TOCEntry {
	// Presence wins over content: a preserved empty TOC stays empty, only a
	// missing one gets the generated fallback.
	if ss.ViewerMeta != nil && ss.ViewerMeta.TableOfContents != nil {
		return ss.ViewerMeta.TableOfContents
	}
	toc := make([]TOCEntry, 0, len(pages))
	for i, p := range pages {
		title := fmt.Sprintf("Chapter %d", i)
		if p.Type == "cover" {
			title = "Cover"
		}
		toc = append(toc, TOCEntry{ID: p.ID, Title: title})
	}
	return toc
}
