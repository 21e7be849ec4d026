// internal/models/viewer_test.go
package models

import "testing"

func illustratedState() *StoryState {
	ss := NewEmptyStoryState(nil)
	ss.StoryData.StoryTitle = "The Brave Snail"
	ss.StoryContent.CharacterBlock = &CharacterBlock{HeroName: "Shelly"}
	ss.StoryContent.SceneJSONArray = []Scene{
		{SceneID: "scene_1", SceneTitle: "Setting Out", SceneFullText: "Shelly sets out.", IllustrationURL: "/img/1.png"},
		{SceneID: "scene_2", SceneTitle: "The Storm", SceneFullText: "Rain falls."},
	}
	ss.StoryContent.Cover = &Cover{CoverTitle: "The Brave Snail", CoverImageURL: "/img/cover.png"}
	return ss
}

func TestToViewerBook(t *testing.T) {
	book := ToViewerBook(illustratedState())

	if book.Title != "The Brave Snail" {
		t.Errorf("Title = %q", book.Title)
	}
	if book.Author != "StorySmith" {
		t.Errorf("Author = %q, want default", book.Author)
	}
	if len(book.Pages) != 3 {
		t.Fatalf("page count = %d, want cover + 2 scenes", len(book.Pages))
	}

	cover := book.Pages[0]
	if cover.Type != "cover" || cover.TextPosition != "center" || cover.ImageURL != "/img/cover.png" {
		t.Errorf("cover page = %+v", cover)
	}
	if book.Pages[1].Type != "spread" || book.Pages[1].ImageURL != "/img/1.png" {
		t.Errorf("scene page = %+v", book.Pages[1])
	}
	// Scene without an illustration falls back to the placeholder.
	if book.Pages[2].ImageURL != PlaceholderPageImage {
		t.Errorf("placeholder = %q, want %q", book.Pages[2].ImageURL, PlaceholderPageImage)
	}

	if len(book.TableOfContents) != 3 {
		t.Fatalf("toc length = %d", len(book.TableOfContents))
	}
	if book.TableOfContents[0].Title != "Cover" {
		t.Errorf("toc[0] = %q, want Cover", book.TableOfContents[0].Title)
	}
	// Chapter numbering follows page index, so the first scene is Chapter 1.
	if book.TableOfContents[1].Title != "Chapter 1" {
		t.Errorf("toc[1] = %q, want Chapter 1", book.TableOfContents[1].Title)
	}
}

func TestToViewerBookCoverPlaceholder(t *testing.T) {
	ss := illustratedState()
	ss.StoryContent.Cover.CoverImageURL = ""
	ss.StoryContent.Cover.CoverTitle = ""

	book := ToViewerBook(ss)
	if book.Pages[0].ImageURL != PlaceholderCoverImage {
		t.Errorf("cover image = %q, want placeholder", book.Pages[0].ImageURL)
	}
	// Empty cover title falls back to the story title.
	if book.Pages[0].Text != "The Brave Snail" {
		t.Errorf("cover text = %q, want story title", book.Pages[0].Text)
	}
}

func TestToViewerBookNoCover(t *testing.T) {
	ss := illustratedState()
	ss.StoryContent.Cover = nil

	book := ToViewerBook(ss)
	if len(book.Pages) != 2 {
		t.Fatalf("page count = %d, want scenes only", len(book.Pages))
	}
	if book.Pages[0].Type != "spread" {
		t.Error("first page must be a scene when there is no cover")
	}
}

func TestToViewerBookPreservesViewerMeta(t *testing.T) {
	ss := illustratedState()
	ss.ViewerMeta = &ViewerMeta{
		Author:          "A Friend",
		TableOfContents: []TOCEntry{{ID: "scene_1", Title: "Custom"}},
	}

	book := ToViewerBook(ss)
	if book.Author != "A Friend" {
		t.Errorf("Author = %q, want preserved", book.Author)
	}
	if len(book.TableOfContents) != 1 || book.TableOfContents[0].Title != "Custom" {
		t.Error("preserved toc must win over the generated one")
	}
}

func TestToViewerBookKeepsPreservedEmptyTOC(t *testing.T) {
	ss := illustratedState()
	ss.ViewerMeta = &ViewerMeta{TableOfContents: []TOCEntry{}}

	book := ToViewerBook(ss)
	if len(book.TableOfContents) != 0 {
		t.Errorf("toc = %v, want the preserved empty one", book.TableOfContents)
	}

	// Only an absent TOC gets the generated fallback.
	ss.ViewerMeta.TableOfContents = nil
	book = ToViewerBook(ss)
	if len(book.TableOfContents) != 3 {
		t.Errorf("toc length = %d, want generated entries", len(book.TableOfContents))
	}
}

func TestToViewerBookFlatConvertedBookWithoutTOC(t *testing.T) {
	// Flat books record an empty TOC during conversion; the viewer must not
	// replace it with generated chapters.
	raw := []byte(`{
		"title": "The Brave Snail",
		"pages": [
			{"id": "p1", "type": "spread", "imageUrl": "/img/1.png", "text": "Shelly sets out."}
		]
	}`)
	ss, outcome := NormalizeRaw(raw)
	if outcome != NormalizeRecovered {
		t.Fatalf("outcome = %v, want recovered", outcome)
	}

	book := ToViewerBook(ss)
	if len(book.TableOfContents) != 0 {
		t.Errorf("toc = %v, want empty", book.TableOfContents)
	}
}

func TestToViewerBookInvalidState(t *testing.T) {
	for _, bad := range []*StoryState{nil, {}} {
		book := ToViewerBook(bad)
		if book.ID != "unknown" || book.Title != "Error" {
			t.Errorf("error book = %+v", book)
		}
		if book.Pages == nil || book.TableOfContents == nil {
			t.Error("error book slices must be empty, not nil")
		}
	}
}
