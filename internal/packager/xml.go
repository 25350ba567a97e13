package packager

import (
	"bytes"
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/yuanying/epubgen/internal/book"
)

// newXMLDocument returns a document carrying the XML declaration.
func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

// newXHTMLDocument returns an XHTML document stored at href with head and
// body, titled title, linking every stylesheet of the manifest.
func newXHTMLDocument(href, title string, md book.Metadata, refs *References) (doc *etree.Document, body *etree.Element) {
	doc = newXMLDocument()
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", nsXHTML)
	html.CreateAttr("xmlns:epub", nsOPS)
	if len(md.Languages) > 0 {
		html.CreateAttr("xml:lang", md.Languages[0])
		html.CreateAttr("lang", md.Languages[0])
	}

	head := html.CreateElement("head")
	head.CreateElement("meta").CreateAttr("charset", "utf-8")
	head.CreateElement("title").SetText(title)
	for _, css := range refs.CSS {
		link := head.CreateElement("link")
		link.CreateAttr("rel", "stylesheet")
		link.CreateAttr("type", mediaTypeCSS)
		link.CreateAttr("href", relativeHref(href, css.Href))
	}

	return doc, html.CreateElement("body")
}

// relativeHref returns the href that a document stored at from uses to
// reach target. Both are paths relative to the content root.
func relativeHref(from, target string) string {
	dir := path.Dir(from)
	if dir == "." {
		return target
	}
	fromParts := strings.Split(dir, "/")
	targetParts := strings.Split(target, "/")
	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 && fromParts[common] == targetParts[common] {
		common++
	}
	up := strings.Repeat("../", len(fromParts)-common)
	return up + strings.Join(targetParts[common:], "/")
}

// appendCopies attaches deep copies of nodes to parent, so caller trees
// are never re-parented.
func appendCopies(parent *etree.Element, nodes []*etree.Element) {
	for _, n := range nodes {
		if n != nil {
			parent.AddChild(n.Copy())
		}
	}
}

// serialize renders doc. Generated documents are indented; documents that
// embed caller nodes are written as-is so mixed content keeps its
// whitespace.
func serialize(doc *etree.Document, indent bool) ([]byte, error) {
	if indent {
		doc.Indent(2)
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
