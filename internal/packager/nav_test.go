package packager

import (
	"strings"
	"testing"

	"github.com/yuanying/epubgen/internal/book"
	"github.com/yuanying/epubgen/internal/epub"
)

func TestBuildNav(t *testing.T) {
	m := fullManifest()
	md := testMetadata()
	data, err := serialize(buildNav(md, m, Resolve(m)), true)
	if err != nil {
		t.Fatalf("serialize() error = %v", err)
	}

	nav, err := epub.ParseNav(data, ".")
	if err != nil {
		t.Fatalf("ParseNav() error = %v", err)
	}

	// hidden.xhtml has no navigation role and stays out of the TOC.
	want := []struct{ label, path string }{
		{"Chapter 1", "ch1.xhtml"},
		{"Notes", "notes.xhtml"},
	}
	if len(nav.TOC) != len(want) {
		t.Fatalf("TOC = %+v, want %d entries", nav.TOC, len(want))
	}
	for i, w := range want {
		if nav.TOC[i].Label != w.label || nav.TOC[i].ContentPath != w.path {
			t.Errorf("TOC[%d] = %+v, want %s -> %s", i, nav.TOC[i], w.label, w.path)
		}
	}

	wantLandmarks := []epub.Landmark{
		{Type: "toc", Label: "Table of Contents", ContentPath: "_nav.xhtml", Fragment: "toc"},
		{Type: "bodymatter", Label: "Start of Content", ContentPath: "ch1.xhtml"},
	}
	if len(nav.Landmarks) != len(wantLandmarks) {
		t.Fatalf("Landmarks = %+v", nav.Landmarks)
	}
	for i := range wantLandmarks {
		if nav.Landmarks[i] != wantLandmarks[i] {
			t.Errorf("Landmarks[%d] = %+v, want %+v", i, nav.Landmarks[i], wantLandmarks[i])
		}
	}

	content, err := epub.LoadContent("_nav.xhtml", data)
	if err != nil {
		t.Fatalf("LoadContent() error = %v", err)
	}
	if content.Title != "T" {
		t.Errorf("nav title = %q, want the book title", content.Title)
	}
	if len(content.CSSLinks) != 1 || content.CSSLinks[0] != "style.css" {
		t.Errorf("CSSLinks = %v, want [style.css]", content.CSSLinks)
	}
	if !strings.Contains(string(data), `xml:lang="en"`) {
		t.Error("nav document must carry the primary language")
	}
}

func TestBuildNav_NoNavigationRoles(t *testing.T) {
	m := book.Manifest{
		TitlePage: titlePage(),
		Content: []book.ContentFile{
			{FileName: "a.xhtml", Title: "A", Input: book.StructuredContent()},
		},
	}
	data, err := serialize(buildNav(testMetadata(), m, Resolve(m)), true)
	if err != nil {
		t.Fatalf("serialize() error = %v", err)
	}
	nav, err := epub.ParseNav(data, ".")
	if err != nil {
		t.Fatalf("ParseNav() error = %v", err)
	}
	if len(nav.TOC) != 0 {
		t.Errorf("TOC = %+v, want empty", nav.TOC)
	}
	if got := nav.Landmarks[1].ContentPath; got != "title.xhtml" {
		t.Errorf("start landmark = %q, want the title page", got)
	}
}
