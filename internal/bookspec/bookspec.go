// Package bookspec loads book descriptions from TOML or YAML files and turns
// them into the metadata and manifest the packager consumes.
package bookspec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/yuanying/epubgen/internal/book"
)

// ErrUnknownFormat is returned for description files that are neither TOML
// nor YAML.
var ErrUnknownFormat = errors.New("unknown book description format")

// Spec is a book description.
type Spec struct {
	Identifier  string   `toml:"identifier" yaml:"identifier"`
	Title       string   `toml:"title" yaml:"title"`
	Languages   []string `toml:"languages" yaml:"languages"`
	Modified    string   `toml:"modified" yaml:"modified"` // RFC 3339; empty means build time
	Source      string   `toml:"source" yaml:"source"`
	Description string   `toml:"description" yaml:"description"`
	Publisher   string   `toml:"publisher" yaml:"publisher"`
	Rights      string   `toml:"rights" yaml:"rights"`
	Subjects    []string `toml:"subjects" yaml:"subjects"`
	Creators    []string `toml:"creators" yaml:"creators"`

	MediaOverlay *MediaOverlay `toml:"media_overlay" yaml:"media_overlay"`

	Cover     *Cover    `toml:"cover" yaml:"cover"`
	Nav       string    `toml:"nav" yaml:"nav"` // raw navigation document; generated when empty
	TitlePage Content   `toml:"title_page" yaml:"title_page"`
	Content   []Content `toml:"content" yaml:"content"`
	CSS       []Asset   `toml:"css" yaml:"css"`
	Other     []Asset   `toml:"other" yaml:"other"`

	dir string
}

// MediaOverlay is the publication-level media overlay metadata.
type MediaOverlay struct {
	Duration            string   `toml:"duration" yaml:"duration"`
	ActiveClass         string   `toml:"active_class" yaml:"active_class"`
	PlaybackActiveClass string   `toml:"playback_active_class" yaml:"playback_active_class"`
	Narrators           []string `toml:"narrators" yaml:"narrators"`
}

// Cover is the cover image file.
type Cover struct {
	Path      string `toml:"path" yaml:"path"`
	MediaType string `toml:"media_type" yaml:"media_type"`
}

// Content is an XHTML document, given either as a file or as inline body
// markup.
type Content struct {
	Href       string `toml:"href" yaml:"href"`
	Title      string `toml:"title" yaml:"title"`
	Path       string `toml:"path" yaml:"path"`
	Body       string `toml:"body" yaml:"body"`
	Navigation string `toml:"navigation" yaml:"navigation"` // linear, nonlinear or none
	Smil       *Smil  `toml:"smil" yaml:"smil"`
}

// Smil is a media overlay, given either as a file or as a par list.
type Smil struct {
	Path     string `toml:"path" yaml:"path"`
	Duration string `toml:"duration" yaml:"duration"`
	Audio    string `toml:"audio" yaml:"audio"`
	Pars     []Par  `toml:"pars" yaml:"pars"`
}

// Par is one synchronisation point of a par list.
type Par struct {
	Fragment string `toml:"fragment" yaml:"fragment"`
	Begin    string `toml:"begin" yaml:"begin"`
	End      string `toml:"end" yaml:"end"`
}

// Asset is a CSS or other file copied into the archive.
type Asset struct {
	Path      string `toml:"path" yaml:"path"`
	Href      string `toml:"href" yaml:"href"` // defaults to the base name of Path
	MediaType string `toml:"media_type" yaml:"media_type"`
	Compress  bool   `toml:"compress" yaml:"compress"`
}

// Load reads, normalizes and validates the description at path. Relative
// file paths inside it are resolved against its directory.
func Load(path string) (*Spec, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book description: %w", err)
	}
	defer file.Close()

	spec, err := Decode(file, format)
	if err != nil {
		return nil, err
	}
	spec.dir = filepath.Dir(path)

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Decode parses a description in the given format ("toml" or "yaml") and
// normalizes it. Unknown keys are rejected.
func Decode(r io.Reader, format string) (*Spec, error) {
	var spec Spec
	switch format {
	case "toml":
		decoder := toml.NewDecoder(r)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&spec); err != nil {
			return nil, fmt.Errorf("parse book description: %w", err)
		}
	case "yaml":
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse book description: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	spec.normalize()
	return &spec, nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func (s *Spec) normalize() {
	s.Title = strings.TrimSpace(s.Title)
	if strings.TrimSpace(s.Identifier) == "" {
		s.Identifier = defaultIdentifier(s.Title, s.Creators)
	}

	for i, lang := range s.Languages {
		if tag, err := language.Parse(lang); err == nil {
			s.Languages[i] = tag.String()
		}
	}

	normalizeContent(&s.TitlePage)
	for i := range s.Content {
		normalizeContent(&s.Content[i])
		if s.Content[i].Navigation == "" {
			s.Content[i].Navigation = book.NavLinear.String()
		}
	}

	if s.Cover != nil && s.Cover.MediaType == "" {
		s.Cover.MediaType = mediaTypeOf(s.Cover.Path)
	}
	for i := range s.CSS {
		normalizeAsset(&s.CSS[i])
	}
	for i := range s.Other {
		normalizeAsset(&s.Other[i])
	}
}

// defaultIdentifier derives a name-based urn:uuid from the title and
// creators.
func defaultIdentifier(title string, creators []string) string {
	name := strings.Join(append([]string{title}, creators...), "\x00")
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func normalizeContent(c *Content) {
	c.Navigation = strings.ToLower(strings.TrimSpace(c.Navigation))
	if c.Href == "" && c.Path != "" {
		c.Href = filepath.ToSlash(filepath.Base(c.Path))
	}
}

func normalizeAsset(a *Asset) {
	if a.Href == "" {
		a.Href = filepath.ToSlash(filepath.Base(a.Path))
	}
	if a.MediaType == "" {
		a.MediaType = mediaTypeOf(a.Path)
	}
}

// Validate reports every problem of the description at once.
func (s *Spec) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if s.Title == "" {
		add("title is required")
	}
	if len(s.Languages) == 0 {
		add("at least one language is required")
	}
	for _, lang := range s.Languages {
		if _, err := language.Parse(lang); err != nil {
			add("language %q: %w", lang, err)
		}
	}
	if s.Modified != "" {
		if _, err := time.Parse(time.RFC3339, s.Modified); err != nil {
			add("modified: %w", err)
		}
	}
	if s.MediaOverlay != nil && s.MediaOverlay.Duration != "" {
		if _, err := book.ParseClock(s.MediaOverlay.Duration); err != nil {
			add("media_overlay.duration: %w", err)
		}
	}

	if s.Cover != nil {
		if err := s.checkFile(s.Cover.Path); err != nil {
			add("cover: %w", err)
		}
	}
	if s.Nav != "" {
		if err := s.checkFile(s.Nav); err != nil {
			add("nav: %w", err)
		}
	}

	s.validateContent("title_page", s.TitlePage, add)
	for i, c := range s.Content {
		s.validateContent(fmt.Sprintf("content[%d]", i), c, add)
	}

	for i, a := range s.CSS {
		if err := s.checkFile(a.Path); err != nil {
			add("css[%d]: %w", i, err)
		}
	}
	for i, a := range s.Other {
		if err := s.checkFile(a.Path); err != nil {
			add("other[%d]: %w", i, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Spec) validateContent(where string, c Content, add func(string, ...any)) {
	if c.Href == "" {
		add("%s: href is required", where)
	}
	switch {
	case c.Path != "" && c.Body != "":
		add("%s: path and body are mutually exclusive", where)
	case c.Path != "":
		if err := s.checkFile(c.Path); err != nil {
			add("%s: %w", where, err)
		}
	case c.Body != "":
		if _, err := parseBody(c.Body); err != nil {
			add("%s: %w", where, err)
		}
	default:
		add("%s: one of path or body is required", where)
	}
	if c.Navigation != "" {
		if _, err := parseNavigation(c.Navigation); err != nil {
			add("%s: %w", where, err)
		}
	}

	if c.Smil == nil {
		return
	}
	sm := c.Smil
	switch {
	case sm.Path != "" && len(sm.Pars) > 0:
		add("%s.smil: path and pars are mutually exclusive", where)
	case sm.Path != "":
		if err := s.checkFile(sm.Path); err != nil {
			add("%s.smil: %w", where, err)
		}
	case len(sm.Pars) > 0:
		if sm.Audio == "" {
			add("%s.smil: audio is required with pars", where)
		}
		for i, p := range sm.Pars {
			for _, v := range []string{p.Begin, p.End} {
				if _, err := book.ParseClock(v); err != nil {
					add("%s.smil.pars[%d]: %w", where, i, err)
				}
			}
		}
	default:
		add("%s.smil: one of path or pars is required", where)
	}
	if sm.Duration != "" {
		if _, err := book.ParseClock(sm.Duration); err != nil {
			add("%s.smil.duration: %w", where, err)
		}
	}
}

func (s *Spec) checkFile(p string) error {
	if p == "" {
		return errors.New("path is required")
	}
	info, err := os.Stat(s.resolve(p))
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}

func (s *Spec) resolve(p string) string {
	if filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

// Book converts the description. Files are opened lazily, when the packager
// first reads them.
func (s *Spec) Book() (book.Metadata, book.Manifest, error) {
	md := book.Metadata{
		Identifier:  s.Identifier,
		Title:       s.Title,
		Languages:   s.Languages,
		Source:      s.Source,
		Description: s.Description,
		Publisher:   s.Publisher,
		Rights:      s.Rights,
		Subjects:    s.Subjects,
		Creators:    s.Creators,
	}
	if s.Modified != "" {
		t, err := time.Parse(time.RFC3339, s.Modified)
		if err != nil {
			return book.Metadata{}, book.Manifest{}, fmt.Errorf("modified: %w", err)
		}
		md.Modified = t
	}
	if mo := s.MediaOverlay; mo != nil {
		md.MediaOverlay = &book.MediaOverlay{
			Duration:            clockOrZero(mo.Duration),
			ActiveClass:         mo.ActiveClass,
			PlaybackActiveClass: mo.PlaybackActiveClass,
			Narrators:           mo.Narrators,
		}
	}

	var m book.Manifest
	if s.Cover != nil {
		m.Cover = &book.Cover{
			Data:      s.open(s.Cover.Path),
			MediaType: s.Cover.MediaType,
			Extension: strings.ToLower(filepath.Ext(s.Cover.Path)),
		}
	}
	if s.Nav != "" {
		m.Nav = book.RawNav(s.open(s.Nav))
	}

	var err error
	if m.TitlePage, err = s.contentFile(s.TitlePage); err != nil {
		return book.Metadata{}, book.Manifest{}, fmt.Errorf("title_page: %w", err)
	}
	for i, c := range s.Content {
		cf, err := s.contentFile(c)
		if err != nil {
			return book.Metadata{}, book.Manifest{}, fmt.Errorf("content[%d]: %w", i, err)
		}
		m.Content = append(m.Content, cf)
	}

	for _, a := range s.CSS {
		m.CSS = append(m.CSS, book.CSSFile{FileName: a.Href, Data: s.open(a.Path)})
	}
	for _, a := range s.Other {
		m.Other = append(m.Other, book.OtherFile{
			FileName:  a.Href,
			MediaType: a.MediaType,
			Data:      s.open(a.Path),
			Compress:  a.Compress,
		})
	}

	return md, m, nil
}

func (s *Spec) contentFile(c Content) (book.ContentFile, error) {
	cf := book.ContentFile{FileName: c.Href, Title: c.Title}

	if c.Path != "" {
		cf.Input = book.RawContent(s.open(c.Path))
	} else {
		body, err := parseBody(c.Body)
		if err != nil {
			return cf, err
		}
		cf.Input = book.StructuredContent(body...)
	}

	nav, err := parseNavigation(c.Navigation)
	if err != nil {
		return cf, err
	}
	cf.Navigation = nav

	if sm := c.Smil; sm != nil {
		cf.Smil = &book.SmilFile{Duration: clockOrZero(sm.Duration)}
		if sm.Path != "" {
			cf.Smil.Input = book.RawSmil(s.open(sm.Path))
		} else {
			pars := make([]book.ParNode, 0, len(sm.Pars))
			for _, p := range sm.Pars {
				pars = append(pars, book.ParNode{
					Fragment:  p.Fragment,
					ClipBegin: book.ClockLiteral(p.Begin),
					ClipEnd:   book.ClockLiteral(p.End),
				})
			}
			cf.Smil.Input = book.ParSmil(sm.Audio, pars...)
		}
	}

	return cf, nil
}

func (s *Spec) open(p string) io.ReadCloser {
	return &lazyFile{path: s.resolve(p)}
}

// parseBody parses inline XHTML body markup into its top-level elements.
func parseBody(markup string) ([]*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<body>" + markup + "</body>"); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return doc.Root().ChildElements(), nil
}

func parseNavigation(v string) (book.Navigation, error) {
	switch v {
	case "", "none":
		return book.NavNone, nil
	case "linear":
		return book.NavLinear, nil
	case "nonlinear", "non-linear":
		return book.NavNonLinear, nil
	default:
		return book.NavNone, fmt.Errorf("unknown navigation %q (want linear, nonlinear or none)", v)
	}
}

// clockOrZero keeps a caller clock value verbatim.
func clockOrZero(v string) book.ClockValue {
	if v == "" {
		return book.ClockValue{}
	}
	return book.ClockLiteral(v)
}

// lazyFile opens its file on first read. Closing an unopened file is a
// no-op.
type lazyFile struct {
	path string
	f    *os.File
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	return l.f.Read(p)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
