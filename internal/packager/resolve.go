package packager

import (
	"fmt"
	"time"

	"github.com/yuanying/epubgen/internal/book"
)

const (
	titleID    = "title"
	navID      = "nav"
	navHref    = "_nav.xhtml"
	coverID    = "cover-img"
	smilSuffix = "_smil"
)

// Ref is the resolved manifest identity of one archive entry.
type Ref struct {
	ID   string
	Href string
}

// SmilRef is the identity of a media overlay document. Duration is unset
// when it can be neither read from the SmilFile nor computed from its pars.
type SmilRef struct {
	Ref
	Duration book.ClockValue
}

// ContentRef is the identity of a content file and of its overlay, if any.
type ContentRef struct {
	Ref
	Smil *SmilRef
}

// References is the id/href table shared by the package, navigation and
// SMIL generators. It is computed once per write and never modified.
type References struct {
	Title   ContentRef
	Nav     Ref
	Cover   *Ref
	Content []ContentRef
	Other   []Ref
	CSS     []Ref

	start string
}

// Resolve assigns ids and hrefs from list positions in m. Indices are
// 1-based, so the first content file is "item1".
func Resolve(m book.Manifest) *References {
	refs := &References{
		Title: contentRef(titleID, m.TitlePage),
		Nav:   Ref{ID: navID, Href: navHref},
	}

	if m.Cover != nil {
		refs.Cover = &Ref{ID: coverID, Href: "cover" + m.Cover.Extension}
	}

	refs.Content = make([]ContentRef, len(m.Content))
	for i, c := range m.Content {
		refs.Content[i] = contentRef(fmt.Sprintf("item%d", i+1), c)
		if refs.start == "" && c.Navigation.InTOC() {
			refs.start = c.FileName
		}
	}
	if refs.start == "" {
		refs.start = m.TitlePage.FileName
	}

	refs.Other = make([]Ref, len(m.Other))
	for i, o := range m.Other {
		refs.Other[i] = Ref{ID: fmt.Sprintf("other%d", i+1), Href: o.FileName}
	}

	refs.CSS = make([]Ref, len(m.CSS))
	for i, c := range m.CSS {
		refs.CSS[i] = Ref{ID: fmt.Sprintf("css%d", i+1), Href: c.FileName}
	}

	return refs
}

func contentRef(id string, c book.ContentFile) ContentRef {
	ref := ContentRef{Ref: Ref{ID: id, Href: c.FileName}}
	if c.Smil != nil {
		ref.Smil = &SmilRef{
			Ref:      Ref{ID: id + smilSuffix, Href: c.FileName + ".smil"},
			Duration: smilDuration(c.Smil),
		}
	}
	return ref
}

// smilDuration returns the declared duration, or for par lists the sum of
// the clip lengths.
func smilDuration(s *book.SmilFile) book.ClockValue {
	if !s.Duration.IsZero() {
		return s.Duration
	}
	if s.Input.Kind() != book.SmilPars {
		return book.ClockValue{}
	}
	var total time.Duration
	for _, p := range s.Input.Pars() {
		begin, ok1 := p.ClipBegin.Duration()
		end, ok2 := p.ClipEnd.Duration()
		if !ok1 || !ok2 {
			return book.ClockValue{}
		}
		if end > begin {
			total += end - begin
		}
	}
	return book.Clock(total)
}

// OverlayDuration is the publication-wide media:duration: the declared
// total, else the sum of every overlay duration. ok is false when neither
// is available.
func (r *References) OverlayDuration(mo *book.MediaOverlay) (book.ClockValue, bool) {
	if mo != nil && !mo.Duration.IsZero() {
		return mo.Duration, true
	}
	var total time.Duration
	found := false
	for _, c := range r.withTitle() {
		if c.Smil == nil {
			continue
		}
		d, ok := c.Smil.Duration.Duration()
		if !ok {
			return book.ClockValue{}, false
		}
		total += d
		found = true
	}
	if !found {
		return book.ClockValue{}, false
	}
	return book.Clock(total), true
}

// withTitle returns the title page followed by the content files.
func (r *References) withTitle() []ContentRef {
	all := make([]ContentRef, 0, len(r.Content)+1)
	all = append(all, r.Title)
	return append(all, r.Content...)
}

// StartHref is the "Start of Content" landmark target: the first content
// file with a navigation role, or the title page when there is none.
func (r *References) StartHref() string { return r.start }

// Hrefs returns every href of the table in archive order, for duplicate
// detection.
func (r *References) Hrefs() []string {
	hrefs := []string{r.Nav.Href}
	if r.Cover != nil {
		hrefs = append(hrefs, r.Cover.Href)
	}
	add := func(c ContentRef) {
		hrefs = append(hrefs, c.Href)
		if c.Smil != nil {
			hrefs = append(hrefs, c.Smil.Href)
		}
	}
	for _, c := range r.withTitle() {
		add(c)
	}
	for _, o := range r.Other {
		hrefs = append(hrefs, o.Href)
	}
	for _, c := range r.CSS {
		hrefs = append(hrefs, c.Href)
	}
	return hrefs
}
