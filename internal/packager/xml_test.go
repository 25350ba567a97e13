package packager

import "testing"

func TestRelativeHref(t *testing.T) {
	tests := []struct {
		from   string
		target string
		want   string
	}{
		{"ch1.xhtml", "style.css", "style.css"},
		{"ch1.xhtml", "css/style.css", "css/style.css"},
		{"text/ch1.xhtml", "style.css", "../style.css"},
		{"text/ch1.xhtml", "text/ch2.xhtml", "ch2.xhtml"},
		{"text/ch1.xhtml.smil", "text/ch1.xhtml", "ch1.xhtml"},
		{"text/ch1.xhtml", "css/style.css", "../css/style.css"},
		{"a/b/ch1.xhtml", "a/c/style.css", "../c/style.css"},
		{"a/b/ch1.xhtml", "a/style.css", "../style.css"},
		{"a/ch1.xhtml", "a/b/style.css", "b/style.css"},
	}
	for _, tt := range tests {
		if got := relativeHref(tt.from, tt.target); got != tt.want {
			t.Errorf("relativeHref(%q, %q) = %q, want %q", tt.from, tt.target, got, tt.want)
		}
	}
}
