package packager

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yuanying/epubgen/internal/book"
)

func TestValidate_ValidBook(t *testing.T) {
	md := testMetadata()
	md.MediaOverlay = &book.MediaOverlay{}
	if err := Validate(md, fullManifest()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name     string
		metadata func(md *book.Metadata)
		manifest func(m *book.Manifest)
		want     string
	}{
		{
			name:     "empty identifier",
			metadata: func(md *book.Metadata) { md.Identifier = " " },
			want:     "identifier is empty",
		},
		{
			name:     "empty title",
			metadata: func(md *book.Metadata) { md.Title = "" },
			want:     "title is empty",
		},
		{
			name:     "no language",
			metadata: func(md *book.Metadata) { md.Languages = nil },
			want:     "no language",
		},
		{
			name:     "malformed language",
			metadata: func(md *book.Metadata) { md.Languages = []string{"en", "not a tag"} },
			want:     `language "not a tag"`,
		},
		{
			name:     "duplicate content path",
			manifest: func(m *book.Manifest) { m.Content[2].FileName = "ch1.xhtml" },
			want:     `duplicate path "ch1.xhtml"`,
		},
		{
			name:     "collides with nav",
			manifest: func(m *book.Manifest) { m.CSS[0].FileName = "_nav.xhtml" },
			want:     `duplicate path "_nav.xhtml"`,
		},
		{
			name:     "collides with package document",
			manifest: func(m *book.Manifest) { m.Other[0].FileName = "package.opf" },
			want:     `duplicate path "package.opf"`,
		},
		{
			name:     "collides with smil",
			manifest: func(m *book.Manifest) { m.Other[0].FileName = "ch1.xhtml.smil" },
			want:     `duplicate path "ch1.xhtml.smil"`,
		},
		{
			name: "fragment without hash",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("a.mp3", book.ParNode{Fragment: "p1", ClipBegin: book.Clock(0), ClipEnd: book.Clock(time.Second)})
			},
			want: "does not start with #",
		},
		{
			name: "fragment names no element",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("a.mp3", book.ParNode{Fragment: "#p9", ClipBegin: book.Clock(0), ClipEnd: book.Clock(time.Second)})
			},
			want: `fragment "#p9" names no element of ch1.xhtml`,
		},
		{
			name: "clip end before begin",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("a.mp3", book.ParNode{Fragment: "#p1", ClipBegin: book.Clock(2 * time.Second), ClipEnd: book.Clock(time.Second)})
			},
			want: "clipEnd 00:00:01 is before clipBegin 00:00:02",
		},
		{
			name: "unparsable clip",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("a.mp3", book.ParNode{Fragment: "#p1", ClipBegin: book.ClockLiteral("later"), ClipEnd: book.Clock(time.Second)})
			},
			want: `clipBegin "later" is not a clock value`,
		},
		{
			name: "non-numeric clip",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("a.mp3", book.ParNode{Fragment: "#p1", ClipBegin: book.ClockLiteral("NaN"), ClipEnd: book.ClockLiteral("1e2")})
			},
			want: `clipBegin "NaN" is not a clock value`,
		},
		{
			name: "empty audio",
			manifest: func(m *book.Manifest) {
				m.Content[0].Smil.Input = book.ParSmil("", book.ParNode{Fragment: "#p1", ClipBegin: book.Clock(0), ClipEnd: book.Clock(time.Second)})
			},
			want: "no audio reference",
		},
		{
			name: "overlay without duration",
			metadata: func(md *book.Metadata) {
				md.MediaOverlay = &book.MediaOverlay{}
			},
			manifest: func(m *book.Manifest) {
				m.Content[1].Smil = &book.SmilFile{Input: book.RawSmil(newStream(""))}
			},
			want: "notes.xhtml.smil: media overlay has no duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := testMetadata()
			m := fullManifest()
			if tt.metadata != nil {
				tt.metadata(&md)
			}
			if tt.manifest != nil {
				tt.manifest(&m)
			}

			err := Validate(md, m)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_RawContentSkipsFragmentLookup(t *testing.T) {
	m := fullManifest()
	m.Content[1].Smil = &book.SmilFile{Input: book.ParSmil("a.mp3",
		book.ParNode{Fragment: "#anything", ClipBegin: book.Clock(0), ClipEnd: book.Clock(time.Second)},
	)}
	if err := Validate(testMetadata(), m); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
