package epub

import (
	"encoding/xml"
	"fmt"
)

// SMIL is a parsed media overlay document.
type SMIL struct {
	Version string
	TextRef string // epub:textref of the body
	Pars    []Par  // body-level pars first, then those nested in seq elements
}

// Par is one synchronisation point.
type Par struct {
	ID        string
	TextSrc   string
	AudioSrc  string
	ClipBegin string
	ClipEnd   string
}

type smilDocument struct {
	XMLName xml.Name `xml:"smil"`
	Version string   `xml:"version,attr"`
	Body    smilSeq  `xml:"body"`
}

type smilSeq struct {
	TextRef string    `xml:"http://www.idpf.org/2007/ops textref,attr"`
	Pars    []smilPar `xml:"par"`
	Seqs    []smilSeq `xml:"seq"`
}

type smilPar struct {
	ID   string `xml:"id,attr"`
	Text struct {
		Src string `xml:"src,attr"`
	} `xml:"text"`
	Audio struct {
		Src       string `xml:"src,attr"`
		ClipBegin string `xml:"clipBegin,attr"`
		ClipEnd   string `xml:"clipEnd,attr"`
	} `xml:"audio"`
}

// ParseSMIL parses a SMIL 3.0 media overlay document.
func ParseSMIL(content []byte) (*SMIL, error) {
	var doc smilDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse SMIL XML: %w", err)
	}

	s := &SMIL{Version: doc.Version, TextRef: doc.Body.TextRef}
	s.Pars = collectPars(doc.Body, s.Pars)
	return s, nil
}

// collectPars appends the pars of seq, then of its nested seqs.
func collectPars(seq smilSeq, pars []Par) []Par {
	for _, p := range seq.Pars {
		pars = append(pars, Par{
			ID:        p.ID,
			TextSrc:   p.Text.Src,
			AudioSrc:  p.Audio.Src,
			ClipBegin: p.Audio.ClipBegin,
			ClipEnd:   p.Audio.ClipEnd,
		})
	}
	for _, child := range seq.Seqs {
		pars = collectPars(child, pars)
	}
	return pars
}
