// Package book describes an EPUB 3 publication before it is packaged:
// its metadata, the files that make up its manifest, and the media
// overlays that narrate them.
//
// All values are built by the caller and only read by the packager. Byte
// streams are single-use: the packager reads each one to the end and closes
// it exactly once.
package book

import (
	"io"
	"time"

	"github.com/beevik/etree"
)

// Metadata is the publication metadata written to the package document.
type Metadata struct {
	Identifier  string // unique package identifier (dc:identifier id="id")
	Title       string
	Languages   []string  // first entry is the primary language
	Modified    time.Time // zero means "now" according to the packager clock
	Source      string
	Description string
	Publisher   string
	Rights      string
	Subjects    []string
	Creators    []string

	MediaOverlay *MediaOverlay
}

// MediaOverlay holds publication-level media overlay metadata.
type MediaOverlay struct {
	// Duration is the total narrated duration. When zero, the packager sums
	// the durations of the individual overlay documents.
	Duration            ClockValue
	ActiveClass         string
	PlaybackActiveClass string
	Narrators           []string
}

// Manifest lists every file that goes into the archive besides the
// package document and the container descriptor.
type Manifest struct {
	Cover     *Cover
	Nav       NavSource
	TitlePage ContentFile
	Content   []ContentFile
	CSS       []CSSFile
	Other     []OtherFile
}

// Cover is the cover image. It is always stored uncompressed.
type Cover struct {
	Data      io.ReadCloser
	MediaType string // e.g., "image/jpeg"
	Extension string // including the dot, e.g., ".jpg"
}

// Navigation controls whether a content file is part of the reading order
// and of the generated table of contents.
type Navigation int

// Navigation roles. NavNone is the zero Navigation.
const (
	NavNone      Navigation = iota // not in the TOC, spine linear="no"
	NavLinear                      // in the TOC, spine linear="yes"
	NavNonLinear                   // in the TOC, spine linear="no"
)

// String returns the configuration spelling of the navigation role.
func (n Navigation) String() string {
	switch n {
	case NavLinear:
		return "linear"
	case NavNonLinear:
		return "nonlinear"
	default:
		return "none"
	}
}

// InTOC reports whether the role puts the file in the generated TOC.
func (n Navigation) InTOC() bool {
	return n == NavLinear || n == NavNonLinear
}

// ContentFile is an XHTML document of the publication.
type ContentFile struct {
	FileName   string // archive-relative href below the content root
	Title      string
	Input      ContentInput
	Navigation Navigation
	Smil       *SmilFile
}

// CSSFile is a stylesheet copied into the archive.
type CSSFile struct {
	FileName string
	Data     io.ReadCloser
}

// OtherFile is any additional resource (images, fonts, audio).
type OtherFile struct {
	FileName  string
	MediaType string
	Data      io.ReadCloser
	Compress  bool
}

// SmilFile is the media overlay attached to a content file.
type SmilFile struct {
	// Duration of the overlay. When zero it is computed from the pars of a
	// ParSmil input; raw and structured inputs have no computable duration.
	Duration ClockValue
	Input    SmilInput
}

// ParNode is one synchronisation point of a ParSmil overlay.
type ParNode struct {
	Fragment  string // text fragment reference, e.g., "#p1"
	ClipBegin ClockValue
	ClipEnd   ClockValue
}

// ContentKind discriminates ContentInput.
type ContentKind int

// Content input kinds. ContentUnset is the zero ContentInput.
const (
	ContentUnset ContentKind = iota
	ContentRaw
	ContentStructured
)

// ContentInput is either a pre-built XHTML stream or a list of body nodes
// that the packager wraps in a generated XHTML document.
type ContentInput struct {
	kind ContentKind
	raw  io.ReadCloser
	body []*etree.Element
}

// RawContent uses r verbatim as the XHTML document.
func RawContent(r io.ReadCloser) ContentInput {
	return ContentInput{kind: ContentRaw, raw: r}
}

// StructuredContent wraps body nodes in a generated XHTML document. The
// nodes are copied, never re-parented.
func StructuredContent(body ...*etree.Element) ContentInput {
	return ContentInput{kind: ContentStructured, body: body}
}

// Kind reports which constructor built the input.
func (c ContentInput) Kind() ContentKind {
	return c.kind
}

// Raw returns the stream of a RawContent input.
func (c ContentInput) Raw() io.ReadCloser {
	return c.raw
}

// Body returns the nodes of a StructuredContent input.
func (c ContentInput) Body() []*etree.Element {
	return c.body
}

// NavKind discriminates NavSource.
type NavKind int

// Navigation document sources. NavGenerated is the zero NavSource.
const (
	NavGenerated NavKind = iota
	NavRaw
)

// NavSource selects how the navigation document is produced. The zero
// value generates it.
type NavSource struct {
	kind NavKind
	raw  io.ReadCloser
}

// GeneratedNav builds the navigation document from the manifest.
func GeneratedNav() NavSource { return NavSource{kind: NavGenerated} }

// RawNav copies r verbatim as the navigation document.
func RawNav(r io.ReadCloser) NavSource {
	return NavSource{kind: NavRaw, raw: r}
}

// Kind reports how the navigation document is produced.
func (n NavSource) Kind() NavKind {
	return n.kind
}

// Raw returns the stream of a RawNav source.
func (n NavSource) Raw() io.ReadCloser {
	return n.raw
}

// SmilKind discriminates SmilInput.
type SmilKind int

// Overlay input kinds. SmilUnset is the zero SmilInput.
const (
	SmilUnset SmilKind = iota
	SmilRaw
	SmilStructured
	SmilPars
)

// SmilInput is a raw SMIL stream, a caller-built head/body tree, or a
// simplified list of pars against a single audio file.
type SmilInput struct {
	kind  SmilKind
	raw   io.ReadCloser
	head  []*etree.Element
	body  []*etree.Element
	audio string
	pars  []ParNode
}

// RawSmil uses r verbatim as the SMIL document.
func RawSmil(r io.ReadCloser) SmilInput {
	return SmilInput{kind: SmilRaw, raw: r}
}

// StructuredSmil wraps head and body nodes in a generated SMIL document.
func StructuredSmil(head, body []*etree.Element) SmilInput {
	return SmilInput{kind: SmilStructured, head: head, body: body}
}

// ParSmil synthesises one par per node, all playing clips of audio.
func ParSmil(audio string, pars ...ParNode) SmilInput {
	return SmilInput{kind: SmilPars, audio: audio, pars: pars}
}

// Kind reports which constructor built the input.
func (s SmilInput) Kind() SmilKind {
	return s.kind
}

// Raw returns the stream of a RawSmil input.
func (s SmilInput) Raw() io.ReadCloser {
	return s.raw
}

// Head returns the head nodes of a StructuredSmil input.
func (s SmilInput) Head() []*etree.Element {
	return s.head
}

// Body returns the body nodes of a StructuredSmil input.
func (s SmilInput) Body() []*etree.Element {
	return s.body
}

// Audio returns the audio href shared by the pars of a ParSmil input.
func (s SmilInput) Audio() string {
	return s.audio
}

// Pars returns the nodes of a ParSmil input.
func (s SmilInput) Pars() []ParNode {
	return s.pars
}

// Streams returns every caller-supplied stream of the manifest in archive
// write order. Absent streams are skipped.
func (m Manifest) Streams() []io.ReadCloser {
	var out []io.ReadCloser
	add := func(r io.ReadCloser) {
		if r != nil {
			out = append(out, r)
		}
	}
	if m.Nav.kind == NavRaw {
		add(m.Nav.raw)
	}
	if m.Cover != nil {
		add(m.Cover.Data)
	}
	addContent := func(c ContentFile) {
		if c.Input.kind == ContentRaw {
			add(c.Input.raw)
		}
		if c.Smil != nil && c.Smil.Input.kind == SmilRaw {
			add(c.Smil.Input.raw)
		}
	}
	addContent(m.TitlePage)
	for _, c := range m.Content {
		addContent(c)
	}
	for _, o := range m.Other {
		add(o.Data)
	}
	for _, c := range m.CSS {
		add(c.Data)
	}
	return out
}
