package epub

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content represents a parsed XHTML content file
type Content struct {
	Path     string            // File path
	Title    string            // head title
	Document *goquery.Document // Parsed HTML document
	CSSLinks []string          // Referenced CSS file paths
	IDs      []string          // id attributes in document order
}

// LoadContent loads and parses an XHTML content file
// path: file path within EPUB (used for relative path resolution)
// content: XHTML file content
func LoadContent(p string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{
		Path:     p,
		Title:    strings.TrimSpace(doc.Find("head title").First().Text()),
		Document: doc,
	}

	baseDir := path.Dir(p)

	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists {
			c.CSSLinks = append(c.CSSLinks, resolvePath(baseDir, href))
		}
	})

	doc.Find("body [id]").Each(func(_ int, s *goquery.Selection) {
		c.IDs = append(c.IDs, s.AttrOr("id", ""))
	})

	return c, nil
}

// HasID reports whether the document defines the given id.
func (c *Content) HasID(id string) bool {
	for _, v := range c.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// resolvePath resolves a relative path against a base directory
// baseDir: base directory (e.g., "EPUB/text" for "EPUB/text/chapter1.xhtml")
// relPath: relative path (e.g., "../images/photo.jpg")
// returns: resolved path (e.g., "EPUB/images/photo.jpg")
func resolvePath(baseDir, relPath string) string {
	return path.Clean(path.Join(baseDir, relPath))
}
