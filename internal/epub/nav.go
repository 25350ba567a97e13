package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Nav is the parsed EPUB 3 navigation document.
type Nav struct {
	Title     string
	TOC       []NavPoint
	Landmarks []Landmark
}

// NavPoint represents a single entry of the table of contents.
type NavPoint struct {
	Label       string
	ContentPath string // fragment-free, absolute path within EPUB
	Fragment    string // fragment identifier (without #)
	Children    []NavPoint
}

// Landmark is an entry of the landmarks nav.
type Landmark struct {
	Type        string // epub:type of the link, e.g., "bodymatter"
	Label       string
	ContentPath string
	Fragment    string
}

// ParseNav parses a navigation document. navDir is the directory holding
// it, used to resolve relative links.
func ParseNav(content []byte, navDir string) (*Nav, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse navigation document: %w", err)
	}

	nav := &Nav{Title: strings.TrimSpace(doc.Find("head title").First().Text())}
	doc.Find("nav").Each(func(_ int, s *goquery.Selection) {
		types := strings.Fields(s.AttrOr("epub:type", ""))
		switch {
		case hasToken(types, "toc") && nav.TOC == nil:
			nav.TOC = parseNavList(s.ChildrenFiltered("ol").First(), navDir)
		case hasToken(types, "landmarks") && nav.Landmarks == nil:
			nav.Landmarks = parseLandmarks(s, navDir)
		}
	})

	return nav, nil
}

func parseNavList(ol *goquery.Selection, navDir string) []NavPoint {
	var points []NavPoint
	ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		own := li.Clone()
		own.ChildrenFiltered("ol").Remove()

		var np NavPoint
		if a := own.Find("a").First(); a.Length() > 0 {
			np.Label = strings.TrimSpace(a.Text())
			np.ContentPath, np.Fragment = resolveHref(navDir, a.AttrOr("href", ""))
		} else {
			np.Label = strings.TrimSpace(own.Text())
		}
		if nested := li.ChildrenFiltered("ol").First(); nested.Length() > 0 {
			np.Children = parseNavList(nested, navDir)
		}
		points = append(points, np)
	})
	return points
}

func parseLandmarks(nav *goquery.Selection, navDir string) []Landmark {
	var landmarks []Landmark
	nav.Find("a").Each(func(_ int, a *goquery.Selection) {
		lm := Landmark{
			Type:  a.AttrOr("epub:type", ""),
			Label: strings.TrimSpace(a.Text()),
		}
		lm.ContentPath, lm.Fragment = resolveHref(navDir, a.AttrOr("href", ""))
		landmarks = append(landmarks, lm)
	})
	return landmarks
}

// resolveHref splits href and resolves its path against navDir.
func resolveHref(navDir, href string) (contentPath, fragment string) {
	p, fragment := splitFragment(href)
	if p == "" {
		return "", fragment
	}
	return resolvePath(navDir, p), fragment
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
