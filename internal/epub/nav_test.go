package epub

import (
	"testing"
)

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantPath     string
		wantFragment string
	}{
		{name: "path with fragment", src: "chapter1.xhtml#sec1", wantPath: "chapter1.xhtml", wantFragment: "sec1"},
		{name: "path without fragment", src: "chapter1.xhtml", wantPath: "chapter1.xhtml"},
		{name: "fragment only", src: "#sec1", wantFragment: "sec1"},
		{name: "empty string"},
		{name: "multiple hash signs", src: "chapter1.xhtml#sec1#subsec2", wantPath: "chapter1.xhtml", wantFragment: "sec1#subsec2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPath, gotFragment := splitFragment(tt.src)
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotFragment != tt.wantFragment {
				t.Errorf("fragment = %q, want %q", gotFragment, tt.wantFragment)
			}
		})
	}
}

func TestParseNav_TOCAndLandmarks(t *testing.T) {
	navHTML := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>My Book</title></head>
<body>
<nav epub:type="toc" id="toc">
  <h1>Table of Contents</h1>
  <ol>
    <li><a href="chapter1.xhtml">Chapter 1</a></li>
    <li><a href="text/chapter2.xhtml#start">Chapter 2</a></li>
  </ol>
</nav>
<nav epub:type="landmarks" id="landmarks" hidden="hidden">
  <ol>
    <li><a epub:type="toc" href="_nav.xhtml#toc">Table of Contents</a></li>
    <li><a epub:type="bodymatter" href="chapter1.xhtml">Start of Content</a></li>
  </ol>
</nav>
</body>
</html>`)

	nav, err := ParseNav(navHTML, "EPUB")
	if err != nil {
		t.Fatalf("ParseNav() error = %v", err)
	}

	if nav.Title != "My Book" {
		t.Errorf("Title = %q, want %q", nav.Title, "My Book")
	}
	if len(nav.TOC) != 2 {
		t.Fatalf("got %d nav points, want 2", len(nav.TOC))
	}
	if nav.TOC[0].Label != "Chapter 1" || nav.TOC[0].ContentPath != "EPUB/chapter1.xhtml" {
		t.Errorf("TOC[0] = %+v", nav.TOC[0])
	}
	if nav.TOC[1].ContentPath != "EPUB/text/chapter2.xhtml" || nav.TOC[1].Fragment != "start" {
		t.Errorf("TOC[1] = %+v", nav.TOC[1])
	}

	if len(nav.Landmarks) != 2 {
		t.Fatalf("got %d landmarks, want 2", len(nav.Landmarks))
	}
	toc := nav.Landmarks[0]
	if toc.Type != "toc" || toc.ContentPath != "EPUB/_nav.xhtml" || toc.Fragment != "toc" {
		t.Errorf("Landmarks[0] = %+v", toc)
	}
	start := nav.Landmarks[1]
	if start.Type != "bodymatter" || start.Label != "Start of Content" || start.ContentPath != "EPUB/chapter1.xhtml" {
		t.Errorf("Landmarks[1] = %+v", start)
	}
}

func TestParseNav_Nested(t *testing.T) {
	navHTML := []byte(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
<nav epub:type="toc">
  <ol>
    <li>
      <a href="part1.xhtml">Part 1</a>
      <ol>
        <li><a href="ch1.xhtml">Chapter 1</a></li>
        <li><span><a href="ch2.xhtml">Chapter 2</a></span></li>
      </ol>
    </li>
    <li>Part 2
      <ol><li><a href="ch3.xhtml">Chapter 3</a></li></ol>
    </li>
  </ol>
</nav>
</body>
</html>`)

	nav, err := ParseNav(navHTML, ".")
	if err != nil {
		t.Fatalf("ParseNav() error = %v", err)
	}
	if len(nav.TOC) != 2 {
		t.Fatalf("got %d top-level nav points, want 2", len(nav.TOC))
	}

	p1 := nav.TOC[0]
	if p1.Label != "Part 1" || p1.ContentPath != "part1.xhtml" {
		t.Errorf("TOC[0] = %+v", p1)
	}
	if len(p1.Children) != 2 {
		t.Fatalf("TOC[0].Children = %d, want 2", len(p1.Children))
	}
	if p1.Children[1].Label != "Chapter 2" {
		t.Errorf("wrapped link label = %q, want %q", p1.Children[1].Label, "Chapter 2")
	}

	p2 := nav.TOC[1]
	if p2.Label != "Part 2" || p2.ContentPath != "" {
		t.Errorf("heading without link = %+v", p2)
	}
	if len(p2.Children) != 1 || p2.Children[0].Label != "Chapter 3" {
		t.Errorf("TOC[1].Children = %+v", p2.Children)
	}
}

func TestParseNav_EpubTypeMultipleTokens(t *testing.T) {
	navHTML := []byte(`<html><body>
<nav epub:type="primary toc">
  <ol><li><a href="ch1.xhtml">Ch1</a></li></ol>
</nav>
</body></html>`)

	nav, err := ParseNav(navHTML, "EPUB")
	if err != nil {
		t.Fatalf("ParseNav() error = %v", err)
	}
	if len(nav.TOC) != 1 || nav.TOC[0].Label != "Ch1" {
		t.Fatalf("TOC = %+v", nav.TOC)
	}
	if nav.Landmarks != nil {
		t.Errorf("Landmarks = %+v, want nil", nav.Landmarks)
	}
}
