package packager

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/yuanying/epubgen/internal/book"
)

// buildSmil generates the overlay document stored at href for the content
// file at contentHref. Raw inputs never reach here; the archive writer copies
// them.
func buildSmil(s *book.SmilFile, href, contentHref string) *etree.Document {
	doc := newXMLDocument()
	contentHref = relativeHref(href, contentHref)

	smil := doc.CreateElement("smil")
	smil.CreateAttr("xmlns", nsSMIL)
	smil.CreateAttr("xmlns:epub", nsOPS)
	smil.CreateAttr("version", "3.0")

	switch s.Input.Kind() {
	case book.SmilStructured:
		if head := s.Input.Head(); len(head) > 0 {
			appendCopies(smil.CreateElement("head"), head)
		}
		body := createSmilBody(smil, contentHref)
		appendCopies(body, s.Input.Body())
	case book.SmilPars:
		body := createSmilBody(smil, contentHref)
		for i, p := range s.Input.Pars() {
			par := body.CreateElement("par")
			par.CreateAttr("id", "par"+strconv.Itoa(i+1))

			text := par.CreateElement("text")
			text.CreateAttr("src", contentHref+p.Fragment)

			audio := par.CreateElement("audio")
			audio.CreateAttr("src", s.Input.Audio())
			audio.CreateAttr("clipBegin", p.ClipBegin.String())
			audio.CreateAttr("clipEnd", p.ClipEnd.String())
		}
	case book.SmilRaw, book.SmilUnset:
		createSmilBody(smil, contentHref)
	}

	return doc
}

func createSmilBody(smil *etree.Element, contentHref string) *etree.Element {
	body := smil.CreateElement("body")
	body.CreateAttr("epub:textref", contentHref)
	return body
}
