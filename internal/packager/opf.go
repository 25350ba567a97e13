package packager

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/yuanying/epubgen/internal/book"
)

const (
	nsOPF   = "http://www.idpf.org/2007/opf"
	nsDC    = "http://purl.org/dc/elements/1.1/"
	nsXHTML = "http://www.w3.org/1999/xhtml"
	nsOPS   = "http://www.idpf.org/2007/ops"
	nsSMIL  = "http://www.w3.org/ns/SMIL"

	mediaTypeXHTML = "application/xhtml+xml"
	mediaTypeSMIL  = "application/smil+xml"
	mediaTypeCSS   = "text/css"

	modifiedLayout = "2006-01-02T15:04:05Z"
)

// buildPackage builds the OPF package document. md.Modified must already
// carry its default.
func buildPackage(md book.Metadata, m book.Manifest, refs *References) *etree.Document {
	doc := newXMLDocument()

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", nsOPF)
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "id")

	buildMetadata(pkg.CreateElement("metadata"), md, refs)
	buildManifest(pkg.CreateElement("manifest"), m, refs)
	buildSpine(pkg.CreateElement("spine"), m, refs)

	return doc
}

func buildMetadata(metadata *etree.Element, md book.Metadata, refs *References) {
	metadata.CreateAttr("xmlns:dc", nsDC)

	id := metadata.CreateElement("dc:identifier")
	id.CreateAttr("id", "id")
	id.SetText(md.Identifier)

	metadata.CreateElement("dc:title").SetText(md.Title)

	for i, name := range md.Creators {
		creator := metadata.CreateElement("dc:creator")
		creator.CreateAttr("id", "creator"+strconv.Itoa(i+1))
		creator.SetText(name)
	}

	for _, lang := range md.Languages {
		metadata.CreateElement("dc:language").SetText(lang)
	}

	createMeta(metadata, "dcterms:modified", "", md.Modified.UTC().Format(modifiedLayout))

	createOptional(metadata, "dc:source", md.Source)
	createOptional(metadata, "dc:description", md.Description)
	createOptional(metadata, "dc:publisher", md.Publisher)
	for _, subject := range md.Subjects {
		metadata.CreateElement("dc:subject").SetText(subject)
	}
	createOptional(metadata, "dc:rights", md.Rights)

	mo := md.MediaOverlay
	if mo == nil {
		return
	}
	if total, ok := refs.OverlayDuration(mo); ok {
		createMeta(metadata, "media:duration", "", total.String())
	}
	for _, c := range refs.withTitle() {
		if c.Smil == nil || c.Smil.Duration.IsZero() {
			continue
		}
		createMeta(metadata, "media:duration", "#"+c.Smil.ID, c.Smil.Duration.String())
	}
	if mo.ActiveClass != "" {
		createMeta(metadata, "media:active-class", "", mo.ActiveClass)
	}
	if mo.PlaybackActiveClass != "" {
		createMeta(metadata, "media:playback-active-class", "", mo.PlaybackActiveClass)
	}
	for _, narrator := range mo.Narrators {
		createMeta(metadata, "media:narrator", "", narrator)
	}
}

func buildManifest(manifest *etree.Element, m book.Manifest, refs *References) {
	createContentItems(manifest, refs.Title)

	nav := createItem(manifest, refs.Nav, mediaTypeXHTML)
	nav.CreateAttr("properties", "nav")

	if refs.Cover != nil {
		cover := createItem(manifest, *refs.Cover, m.Cover.MediaType)
		cover.CreateAttr("properties", "cover-image")
	}

	for _, c := range refs.Content {
		createContentItems(manifest, c)
	}
	for i, o := range refs.Other {
		createItem(manifest, o, m.Other[i].MediaType)
	}
	for _, c := range refs.CSS {
		createItem(manifest, c, mediaTypeCSS)
	}
}

// createContentItems adds the XHTML item and, right after it, its SMIL item.
func createContentItems(manifest *etree.Element, c ContentRef) {
	item := createItem(manifest, c.Ref, mediaTypeXHTML)
	if c.Smil == nil {
		return
	}
	item.CreateAttr("media-overlay", c.Smil.ID)
	createItem(manifest, c.Smil.Ref, mediaTypeSMIL)
}

func buildSpine(spine *etree.Element, m book.Manifest, refs *References) {
	spine.CreateElement("itemref").CreateAttr("idref", refs.Title.ID)
	spine.CreateElement("itemref").CreateAttr("idref", refs.Nav.ID)

	for i, c := range refs.Content {
		itemref := spine.CreateElement("itemref")
		itemref.CreateAttr("idref", c.ID)
		if m.Content[i].Navigation == book.NavLinear {
			itemref.CreateAttr("linear", "yes")
		} else {
			itemref.CreateAttr("linear", "no")
		}
	}
}

func createItem(manifest *etree.Element, ref Ref, mediaType string) *etree.Element {
	item := manifest.CreateElement("item")
	item.CreateAttr("id", ref.ID)
	item.CreateAttr("href", ref.Href)
	item.CreateAttr("media-type", mediaType)
	return item
}

func createMeta(metadata *etree.Element, property, refines, value string) {
	meta := metadata.CreateElement("meta")
	meta.CreateAttr("property", property)
	if refines != "" {
		meta.CreateAttr("refines", refines)
	}
	meta.SetText(value)
}

func createOptional(metadata *etree.Element, tag, value string) {
	if value != "" {
		metadata.CreateElement(tag).SetText(value)
	}
}
