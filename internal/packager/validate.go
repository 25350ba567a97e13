package packager

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/language"

	"github.com/yuanying/epubgen/internal/book"
)

// Validate checks md and m against the contract the packager relies on but
// does not enforce by default. It returns a *ValidationError listing every
// problem found, or nil.
func Validate(md book.Metadata, m book.Manifest) error {
	var v validator

	if strings.TrimSpace(md.Identifier) == "" {
		v.add("identifier is empty")
	}
	if strings.TrimSpace(md.Title) == "" {
		v.add("title is empty")
	}
	if len(md.Languages) == 0 {
		v.add("no language")
	}
	for _, lang := range md.Languages {
		if _, err := language.Parse(lang); err != nil {
			v.add("language %q: %v", lang, err)
		}
	}

	refs := Resolve(m)
	seen := map[string]bool{packageHref: true}
	for _, href := range refs.Hrefs() {
		if seen[href] {
			v.add("duplicate path %q", href)
			continue
		}
		seen[href] = true
	}

	v.content(md, m.TitlePage, refs.Title)
	for i, c := range m.Content {
		v.content(md, c, refs.Content[i])
	}

	return v.err()
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func (v *validator) content(md book.Metadata, c book.ContentFile, ref ContentRef) {
	if c.Smil == nil || ref.Smil == nil {
		return
	}
	if md.MediaOverlay != nil && ref.Smil.Duration.IsZero() {
		v.add("%s: media overlay has no duration", ref.Smil.Href)
	}
	if c.Smil.Input.Kind() != book.SmilPars {
		return
	}

	if c.Smil.Input.Audio() == "" {
		v.add("%s: no audio reference", ref.Smil.Href)
	}

	var ids map[string]bool
	if c.Input.Kind() == book.ContentStructured {
		ids = elementIDs(c.Input.Body())
	}

	for i, p := range c.Smil.Input.Pars() {
		n := i + 1
		switch {
		case !strings.HasPrefix(p.Fragment, "#"):
			v.add("%s: par%d fragment %q does not start with #", ref.Smil.Href, n, p.Fragment)
		case ids != nil && !ids[strings.TrimPrefix(p.Fragment, "#")]:
			v.add("%s: par%d fragment %q names no element of %s", ref.Smil.Href, n, p.Fragment, ref.Href)
		}

		begin, ok1 := p.ClipBegin.Duration()
		end, ok2 := p.ClipEnd.Duration()
		switch {
		case !ok1:
			v.add("%s: par%d clipBegin %q is not a clock value", ref.Smil.Href, n, p.ClipBegin.String())
		case !ok2:
			v.add("%s: par%d clipEnd %q is not a clock value", ref.Smil.Href, n, p.ClipEnd.String())
		case end < begin:
			v.add("%s: par%d clipEnd %s is before clipBegin %s", ref.Smil.Href, n, p.ClipEnd, p.ClipBegin)
		}
	}
}

// elementIDs collects every id attribute in the given trees.
func elementIDs(nodes []*etree.Element) map[string]bool {
	ids := make(map[string]bool)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if id := n.SelectAttrValue("id", ""); id != "" {
			ids[id] = true
		}
		for _, el := range n.FindElements(".//*[@id]") {
			ids[el.SelectAttrValue("id", "")] = true
		}
	}
	return ids
}
