// Package packager assembles EPUB 3 archives from a book.Metadata and a
// book.Manifest.
//
// Identifiers and hrefs are derived from list positions, so the same input
// always produces the same package document, navigation document and
// overlays. With a fixed clock the archive is byte-identical across runs.
package packager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/flate"

	"github.com/yuanying/epubgen/internal/book"
	"github.com/yuanying/epubgen/internal/imageopt"
)

const (
	defaultContentRoot = "EPUB"
	packageHref        = "package.opf"

	nsContainer  = "urn:oasis:names:tc:opendocument:xmlns:container"
	mediaTypeOPF = "application/oebps-package+xml"
)

// Options configures a Packager. The zero value is usable.
type Options struct {
	// ContentRoot is the archive directory holding the package document and
	// every manifest file. Defaults to "EPUB".
	ContentRoot string

	// TextLevel is the deflate level of XML, XHTML and CSS entries.
	// Zero selects flate.DefaultCompression.
	TextLevel int

	// BinaryLevel is the deflate level of other files marked Compress.
	// Zero selects flate.BestSpeed.
	BinaryLevel int

	// MaxCoverWidth downscales wider JPEG and PNG covers. Zero disables it.
	MaxCoverWidth int

	// Strict rejects books that break the caller contract before anything
	// is written. See Validate.
	Strict bool

	// Now supplies the modification time when Metadata.Modified is zero.
	Now func() time.Time

	Logger *slog.Logger
}

// Packager writes EPUB archives.
type Packager struct {
	opts Options
}

// New creates a Packager, filling in defaults for unset options.
func New(opts Options) *Packager {
	opts.ContentRoot = strings.Trim(opts.ContentRoot, "/")
	if opts.ContentRoot == "" {
		opts.ContentRoot = defaultContentRoot
	}
	opts.TextLevel = normalizeLevel(opts.TextLevel, flate.DefaultCompression)
	opts.BinaryLevel = normalizeLevel(opts.BinaryLevel, flate.BestSpeed)
	if opts.MaxCoverWidth < 0 {
		opts.MaxCoverWidth = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Packager{opts: opts}
}

func normalizeLevel(level, def int) int {
	if level == 0 || level < flate.HuffmanOnly {
		return def
	}
	if level > flate.BestCompression {
		return flate.BestCompression
	}
	return level
}

// Write assembles md and m into an EPUB archive on w using default options.
func Write(ctx context.Context, w io.Writer, md book.Metadata, m book.Manifest) error {
	return New(Options{}).Write(ctx, w, md, m)
}

// Write assembles md and m into an EPUB archive on w.
//
// Every caller stream of m is closed before Write returns, whether or not
// it was consumed. On error the bytes already written to w are not a valid
// archive and must be discarded. Cancellation of ctx is honoured between
// entries.
func (p *Packager) Write(ctx context.Context, w io.Writer, md book.Metadata, m book.Manifest) error {
	if md.Modified.IsZero() {
		md.Modified = p.opts.Now()
	}
	md.Modified = md.Modified.UTC().Truncate(time.Second)

	a := newArchiveWriter(w, md.Modified, m.Streams(), p.opts.Logger)
	if err := p.write(ctx, a, md, m); err != nil {
		a.release()
		return err
	}

	p.opts.Logger.Info("wrote epub",
		"identifier", md.Identifier,
		"entries", a.entries,
		"modified", md.Modified.Format(modifiedLayout))
	return nil
}

func (p *Packager) write(ctx context.Context, a *archiveWriter, md book.Metadata, m book.Manifest) error {
	if err := checkInputs(m); err != nil {
		return err
	}
	if p.opts.Strict {
		if err := Validate(md, m); err != nil {
			return err
		}
	}

	refs := Resolve(m)
	p.warnDurations(md, refs)

	for _, step := range p.plan(a, md, m, refs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}
	return a.close()
}

// plan lists the entry writers in archive order.
func (p *Packager) plan(a *archiveWriter, md book.Metadata, m book.Manifest, refs *References) []func() error {
	text := deflated(p.opts.TextLevel)

	steps := []func() error{
		a.writeMimetype,
		func() error {
			return p.writeDocument(a, containerName, buildContainer(p.entry(packageHref)), true)
		},
		func() error {
			return p.writeDocument(a, p.entry(packageHref), buildPackage(md, m, refs), true)
		},
		func() error {
			name := p.entry(refs.Nav.Href)
			switch m.Nav.Kind() {
			case book.NavRaw:
				return a.copyStream(name, m.Nav.Raw(), text)
			case book.NavGenerated:
				return p.writeDocument(a, name, buildNav(md, m, refs), true)
			}
			return nil
		},
	}

	if m.Cover != nil {
		cover, ref := m.Cover, refs.Cover
		steps = append(steps, func() error { return p.writeCover(a, cover, ref.Href) })
	}

	steps = append(steps, p.contentSteps(a, md, refs, m.TitlePage, refs.Title)...)
	for i, c := range m.Content {
		steps = append(steps, p.contentSteps(a, md, refs, c, refs.Content[i])...)
	}

	for i, o := range m.Other {
		ref := refs.Other[i]
		c := stored()
		if o.Compress {
			c = deflated(p.opts.BinaryLevel)
		}
		steps = append(steps, func() error { return a.copyStream(p.entry(ref.Href), o.Data, c) })
	}

	for i, css := range m.CSS {
		ref := refs.CSS[i]
		steps = append(steps, func() error { return a.copyStream(p.entry(ref.Href), css.Data, text) })
	}

	return steps
}

// contentSteps writes a content document and then its overlay.
func (p *Packager) contentSteps(a *archiveWriter, md book.Metadata, refs *References, c book.ContentFile, ref ContentRef) []func() error {
	text := deflated(p.opts.TextLevel)

	steps := []func() error{func() error {
		name := p.entry(ref.Href)
		switch c.Input.Kind() {
		case book.ContentRaw:
			return a.copyStream(name, c.Input.Raw(), text)
		case book.ContentStructured:
			doc, body := newXHTMLDocument(ref.Href, c.Title, md, refs)
			appendCopies(body, c.Input.Body())
			return p.writeDocument(a, name, doc, false)
		case book.ContentUnset:
			return fmt.Errorf("%s: %w", c.FileName, ErrNoContentInput)
		}
		return nil
	}}

	if c.Smil == nil || ref.Smil == nil {
		return steps
	}
	return append(steps, func() error {
		name := p.entry(ref.Smil.Href)
		switch c.Smil.Input.Kind() {
		case book.SmilRaw:
			return a.copyStream(name, c.Smil.Input.Raw(), text)
		case book.SmilStructured:
			return p.writeDocument(a, name, buildSmil(c.Smil, ref.Smil.Href, ref.Href), false)
		case book.SmilPars:
			return p.writeDocument(a, name, buildSmil(c.Smil, ref.Smil.Href, ref.Href), true)
		case book.SmilUnset:
			return fmt.Errorf("%s: %w", c.FileName, ErrNoSmilInput)
		}
		return nil
	})
}

func (p *Packager) writeCover(a *archiveWriter, cover *book.Cover, href string) error {
	name := p.entry(href)
	if p.opts.MaxCoverWidth == 0 {
		return a.copyStream(name, cover.Data, stored())
	}

	data, err := a.readStream(name, cover.Data)
	if err != nil {
		return err
	}
	img, err := imageopt.New(p.opts.MaxCoverWidth).FitWidth(cover.MediaType, data)
	switch {
	case err != nil:
		p.opts.Logger.Warn("cover left unscaled", "name", name, "error", err)
		img.Data = data
	case img.Warning != "":
		p.opts.Logger.Warn("cover left unscaled", "name", name, "reason", img.Warning)
	case img.Resized:
		p.opts.Logger.Debug("cover downscaled", "name", name, "width", img.Width, "height", img.Height)
	}
	return a.writeBytes(name, img.Data, stored())
}

func (p *Packager) writeDocument(a *archiveWriter, name string, doc *etree.Document, indent bool) error {
	data, err := serialize(doc, indent)
	if err != nil {
		return &ArchiveError{Entry: name, Err: err}
	}
	return a.writeBytes(name, data, deflated(p.opts.TextLevel))
}

// warnDurations logs overlays whose duration can be neither read nor
// computed; the package document then carries no refining duration for them.
func (p *Packager) warnDurations(md book.Metadata, refs *References) {
	if md.MediaOverlay == nil {
		return
	}
	for _, c := range refs.withTitle() {
		if c.Smil != nil && c.Smil.Duration.IsZero() {
			p.opts.Logger.Warn("media overlay has no duration", "smil", c.Smil.Href)
		}
	}
	if _, ok := refs.OverlayDuration(md.MediaOverlay); !ok {
		p.opts.Logger.Warn("publication has no media overlay duration")
	}
}

func (p *Packager) entry(href string) string {
	return path.Join(p.opts.ContentRoot, href)
}

// checkInputs rejects manifests the archive cannot be written from, so a
// failure never leaves a half-written archive behind.
func checkInputs(m book.Manifest) error {
	if m.Cover != nil && m.Cover.Data == nil {
		return ErrNoCoverData
	}
	check := func(c book.ContentFile) error {
		if c.Input.Kind() == book.ContentUnset {
			return fmt.Errorf("%s: %w", c.FileName, ErrNoContentInput)
		}
		if c.Smil != nil && c.Smil.Input.Kind() == book.SmilUnset {
			return fmt.Errorf("%s: %w", c.FileName, ErrNoSmilInput)
		}
		return nil
	}
	if err := check(m.TitlePage); err != nil {
		return err
	}
	for _, c := range m.Content {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

// buildContainer builds META-INF/container.xml pointing at the package
// document.
func buildContainer(opfPath string) *etree.Document {
	doc := newXMLDocument()

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", nsContainer)

	rootfile := container.CreateElement("rootfiles").CreateElement("rootfile")
	rootfile.CreateAttr("full-path", opfPath)
	rootfile.CreateAttr("media-type", mediaTypeOPF)

	return doc
}
