package packager

import (
	"github.com/beevik/etree"

	"github.com/yuanying/epubgen/internal/book"
)

const (
	tocTitle   = "Table of Contents"
	startTitle = "Start of Content"
)

// buildNav generates the navigation document: a TOC listing every content
// file with a navigation role, in manifest order, and the landmarks.
func buildNav(md book.Metadata, m book.Manifest, refs *References) *etree.Document {
	doc, body := newXHTMLDocument(refs.Nav.Href, md.Title, md, refs)

	toc := body.CreateElement("nav")
	toc.CreateAttr("epub:type", "toc")
	toc.CreateAttr("id", "toc")
	toc.CreateElement("h1").SetText(tocTitle)
	ol := toc.CreateElement("ol")
	for i, c := range m.Content {
		if !c.Navigation.InTOC() {
			continue
		}
		createNavLink(ol, refs.Content[i].Href, c.Title, "")
	}

	landmarks := body.CreateElement("nav")
	landmarks.CreateAttr("epub:type", "landmarks")
	landmarks.CreateAttr("id", "landmarks")
	landmarks.CreateAttr("hidden", "hidden")
	ol = landmarks.CreateElement("ol")
	createNavLink(ol, refs.Nav.Href+"#toc", tocTitle, "toc")
	createNavLink(ol, refs.StartHref(), startTitle, "bodymatter")

	return doc
}

func createNavLink(ol *etree.Element, href, label, epubType string) {
	a := ol.CreateElement("li").CreateElement("a")
	if epubType != "" {
		a.CreateAttr("epub:type", epubType)
	}
	a.CreateAttr("href", href)
	a.SetText(label)
}
