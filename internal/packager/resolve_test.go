package packager

import (
	"testing"
	"time"

	"github.com/yuanying/epubgen/internal/book"
)

func TestResolve(t *testing.T) {
	refs := Resolve(fullManifest())

	if refs.Title.ID != "title" || refs.Title.Href != "title.xhtml" || refs.Title.Smil != nil {
		t.Errorf("Title = %+v", refs.Title)
	}
	if refs.Nav != (Ref{ID: "nav", Href: "_nav.xhtml"}) {
		t.Errorf("Nav = %+v", refs.Nav)
	}
	if refs.Cover == nil || *refs.Cover != (Ref{ID: "cover-img", Href: "cover.jpg"}) {
		t.Errorf("Cover = %+v", refs.Cover)
	}

	wantContent := []Ref{
		{ID: "item1", Href: "ch1.xhtml"},
		{ID: "item2", Href: "notes.xhtml"},
		{ID: "item3", Href: "hidden.xhtml"},
	}
	for i, want := range wantContent {
		if refs.Content[i].Ref != want {
			t.Errorf("Content[%d] = %+v, want %+v", i, refs.Content[i].Ref, want)
		}
	}
	smil := refs.Content[0].Smil
	if smil == nil || smil.ID != "item1_smil" || smil.Href != "ch1.xhtml.smil" {
		t.Fatalf("Content[0].Smil = %+v", smil)
	}
	if refs.Content[1].Smil != nil {
		t.Errorf("Content[1].Smil = %+v, want nil", refs.Content[1].Smil)
	}

	if refs.Other[1] != (Ref{ID: "other2", Href: "fonts/a.otf"}) {
		t.Errorf("Other[1] = %+v", refs.Other[1])
	}
	if refs.CSS[0] != (Ref{ID: "css1", Href: "style.css"}) {
		t.Errorf("CSS[0] = %+v", refs.CSS[0])
	}
}

func TestResolve_StartHref(t *testing.T) {
	tests := []struct {
		name string
		nav  []book.Navigation
		want string
	}{
		{name: "first linear", nav: []book.Navigation{book.NavNone, book.NavLinear, book.NavLinear}, want: "c2.xhtml"},
		{name: "non-linear counts", nav: []book.Navigation{book.NavNonLinear, book.NavLinear}, want: "c1.xhtml"},
		{name: "no navigation role", nav: []book.Navigation{book.NavNone}, want: "title.xhtml"},
		{name: "no content", want: "title.xhtml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := book.Manifest{TitlePage: titlePage()}
			for i, n := range tt.nav {
				m.Content = append(m.Content, book.ContentFile{
					FileName:   "c" + string(rune('1'+i)) + ".xhtml",
					Input:      book.StructuredContent(),
					Navigation: n,
				})
			}
			if got := Resolve(m).StartHref(); got != tt.want {
				t.Errorf("StartHref() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_SmilDuration(t *testing.T) {
	pars := book.ParSmil("a.mp3",
		book.ParNode{Fragment: "#a", ClipBegin: book.Clock(0), ClipEnd: book.Clock(1500 * time.Millisecond)},
		book.ParNode{Fragment: "#b", ClipBegin: book.ClockLiteral("00:00:01.500"), ClipEnd: book.ClockLiteral("4s")},
	)

	tests := []struct {
		name string
		smil book.SmilFile
		want string
	}{
		{name: "declared", smil: book.SmilFile{Duration: book.ClockLiteral("0:01:00"), Input: pars}, want: "0:01:00"},
		{name: "summed from pars", smil: book.SmilFile{Input: pars}, want: "00:00:04"},
		{name: "raw has none", smil: book.SmilFile{Input: book.RawSmil(newStream(""))}, want: ""},
		{
			name: "unparsable clip",
			smil: book.SmilFile{Input: book.ParSmil("a.mp3", book.ParNode{Fragment: "#a", ClipBegin: book.ClockLiteral("soon"), ClipEnd: book.Clock(time.Second)})},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := smilDuration(&tt.smil)
			if tt.want == "" {
				if !got.IsZero() {
					t.Fatalf("smilDuration() = %q, want unset", got)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("smilDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReferences_OverlayDuration(t *testing.T) {
	m := fullManifest()
	m.TitlePage.Smil = &book.SmilFile{Duration: book.Clock(10 * time.Second), Input: book.RawSmil(newStream(""))}
	refs := Resolve(m)

	got, ok := refs.OverlayDuration(&book.MediaOverlay{})
	if !ok || got.String() != "00:00:15" {
		t.Errorf("computed OverlayDuration() = %q, %v, want 00:00:15", got, ok)
	}

	got, ok = refs.OverlayDuration(&book.MediaOverlay{Duration: book.ClockLiteral("1:00:00")})
	if !ok || got.String() != "1:00:00" {
		t.Errorf("declared OverlayDuration() = %q, %v", got, ok)
	}

	m.TitlePage.Smil.Duration = book.ClockValue{}
	if _, ok := Resolve(m).OverlayDuration(&book.MediaOverlay{}); ok {
		t.Error("OverlayDuration() should be unavailable when an overlay has no duration")
	}

	if _, ok := Resolve(book.Manifest{TitlePage: titlePage()}).OverlayDuration(nil); ok {
		t.Error("OverlayDuration() should be unavailable without overlays")
	}
}

func TestReferences_Hrefs(t *testing.T) {
	got := Resolve(fullManifest()).Hrefs()
	want := []string{
		"_nav.xhtml", "cover.jpg", "title.xhtml",
		"ch1.xhtml", "ch1.xhtml.smil", "notes.xhtml", "hidden.xhtml",
		"audio/ch1.mp3", "fonts/a.otf", "style.css",
	}
	if len(got) != len(want) {
		t.Fatalf("Hrefs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Hrefs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
