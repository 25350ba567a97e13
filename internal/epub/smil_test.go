package epub

import (
	"testing"
)

func TestParseSMIL(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<smil xmlns="http://www.w3.org/ns/SMIL" xmlns:epub="http://www.idpf.org/2007/ops" version="3.0">
  <body epub:textref="ch1.xhtml">
    <par id="par1">
      <text src="ch1.xhtml#p1"/>
      <audio src="audio/ch1.mp3" clipBegin="00:00:00" clipEnd="00:00:02.500"/>
    </par>
    <seq epub:textref="ch1.xhtml#sec2">
      <par id="par2">
        <text src="ch1.xhtml#p2"/>
        <audio src="audio/ch1.mp3" clipBegin="00:00:02.500" clipEnd="00:00:05"/>
      </par>
    </seq>
  </body>
</smil>`)

	s, err := ParseSMIL(data)
	if err != nil {
		t.Fatalf("ParseSMIL() error = %v", err)
	}
	if s.Version != "3.0" {
		t.Errorf("Version = %q", s.Version)
	}
	if s.TextRef != "ch1.xhtml" {
		t.Errorf("TextRef = %q, want %q", s.TextRef, "ch1.xhtml")
	}

	want := []Par{
		{ID: "par1", TextSrc: "ch1.xhtml#p1", AudioSrc: "audio/ch1.mp3", ClipBegin: "00:00:00", ClipEnd: "00:00:02.500"},
		{ID: "par2", TextSrc: "ch1.xhtml#p2", AudioSrc: "audio/ch1.mp3", ClipBegin: "00:00:02.500", ClipEnd: "00:00:05"},
	}
	if len(s.Pars) != len(want) {
		t.Fatalf("got %d pars, want %d", len(s.Pars), len(want))
	}
	for i := range want {
		if s.Pars[i] != want[i] {
			t.Errorf("Pars[%d] = %+v, want %+v", i, s.Pars[i], want[i])
		}
	}
}

func TestParseSMIL_InvalidXML(t *testing.T) {
	if _, err := ParseSMIL([]byte("<smil><body>")); err == nil {
		t.Fatal("ParseSMIL() should fail for truncated XML")
	}
}
