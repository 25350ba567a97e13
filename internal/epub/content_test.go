package epub

import (
	"reflect"
	"testing"
)

func TestLoadContent(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>Chapter 1</title>
  <link rel="stylesheet" type="text/css" href="../css/style.css"/>
  <link rel="stylesheet" type="text/css" href="local.css"/>
</head>
<body>
  <section id="s1">
    <p id="p1">One</p>
    <p>Two</p>
    <p id="p3">Three</p>
  </section>
</body>
</html>`)

	c, err := LoadContent("EPUB/text/ch1.xhtml", data)
	if err != nil {
		t.Fatalf("LoadContent() error = %v", err)
	}

	if c.Title != "Chapter 1" {
		t.Errorf("Title = %q, want %q", c.Title, "Chapter 1")
	}
	wantCSS := []string{"EPUB/css/style.css", "EPUB/text/local.css"}
	if !reflect.DeepEqual(c.CSSLinks, wantCSS) {
		t.Errorf("CSSLinks = %v, want %v", c.CSSLinks, wantCSS)
	}
	wantIDs := []string{"s1", "p1", "p3"}
	if !reflect.DeepEqual(c.IDs, wantIDs) {
		t.Errorf("IDs = %v, want %v", c.IDs, wantIDs)
	}
	if !c.HasID("p3") || c.HasID("p2") {
		t.Errorf("HasID() mismatch for %v", c.IDs)
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		baseDir string
		relPath string
		want    string
	}{
		{"EPUB/text", "../images/photo.jpg", "EPUB/images/photo.jpg"},
		{"EPUB", "chapter1.xhtml", "EPUB/chapter1.xhtml"},
		{".", "chapter1.xhtml", "chapter1.xhtml"},
		{"EPUB", "./a/../b.xhtml", "EPUB/b.xhtml"},
	}
	for _, tt := range tests {
		if got := resolvePath(tt.baseDir, tt.relPath); got != tt.want {
			t.Errorf("resolvePath(%q, %q) = %q, want %q", tt.baseDir, tt.relPath, got, tt.want)
		}
	}
}
