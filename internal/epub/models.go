package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Version       string
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Identifier  string
	Title       string
	Creators    []Creator
	Languages   []string
	Modified    string // dcterms:modified
	Source      string
	Publisher   string
	Description string
	Subjects    []string
	Rights      string
	Metas       []Meta // EPUB 3 property metas, in document order
}

// Creator represents a creator (author, narrator, etc.) of the book
type Creator struct {
	ID   string
	Name string
	Role string // e.g., "aut" for author, refined by meta property="role"
}

// Meta is an EPUB 3 <meta property="..."> element.
type Meta struct {
	Property string
	Refines  string // e.g., "#item1_smil"
	Value    string
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID           string
	Href         string // path within the archive
	MediaType    string
	Properties   []string
	MediaOverlay string // id of the SMIL item narrating this item
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// Property returns the value of the first meta with the given property
// that refines nothing.
func (m Metadata) Property(property string) (string, bool) {
	return m.Refinement(property, "")
}

// Refinement returns the value of the first meta with the given property
// and refines target, e.g., Refinement("media:duration", "#item1_smil").
func (m Metadata) Refinement(property, refines string) (string, bool) {
	for _, meta := range m.Metas {
		if meta.Property == property && meta.Refines == refines {
			return meta.Value, true
		}
	}
	return "", false
}

// Items returns the manifest items in document order.
func (opf *OPF) Items() []ManifestItem {
	items := make([]ManifestItem, 0, len(opf.ManifestOrder))
	for _, id := range opf.ManifestOrder {
		items = append(items, opf.Manifest[id])
	}
	return items
}

// NavItem returns the manifest item carrying properties="nav".
func (opf *OPF) NavItem() (ManifestItem, bool) {
	for _, item := range opf.Items() {
		if item.HasProperty("nav") {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// HasProperty reports whether the item lists prop in its properties.
func (i ManifestItem) HasProperty(prop string) bool {
	for _, p := range i.Properties {
		if p == prop {
			return true
		}
	}
	return false
}
