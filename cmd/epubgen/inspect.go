package main

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/epubgen/internal/epub"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <book.epub>",
		Short: "Print the entries, manifest, spine and table of contents of an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := readLogger(cmd)
			if err != nil {
				return err
			}
			logger.Debug("inspecting", "path", args[0])
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInspect(w io.Writer, name string) error {
	r, err := epub.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()

	opf, err := r.Package()
	if err != nil {
		return err
	}
	style := tableStyle(w)

	md := opf.Metadata
	fmt.Fprintf(w, "Identifier: %s\n", md.Identifier)
	fmt.Fprintf(w, "Title:      %s\n", md.Title)
	fmt.Fprintf(w, "Languages:  %s\n", strings.Join(md.Languages, ", "))
	fmt.Fprintf(w, "Modified:   %s\n", md.Modified)
	if d, ok := md.Property("media:duration"); ok {
		fmt.Fprintf(w, "Duration:   %s\n", d)
	}
	if cover := opf.DetectCover(); cover != nil {
		fmt.Fprintf(w, "Cover:      %s (%s)\n", cover.Href, cover.DetectionMethod)
	}
	fmt.Fprintln(w)

	var rows [][]string
	for _, e := range r.Entries() {
		rows = append(rows, []string{
			e.Name,
			methodName(e.Method),
			strconv.FormatUint(e.Size, 10),
			strconv.FormatUint(e.CompressedSize, 10),
		})
	}
	fmt.Fprintln(w, renderTable("Entries",
		[]string{"Name", "Method", "Size", "Compressed"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}, style))

	rows = rows[:0]
	for _, item := range opf.Items() {
		overlay := item.MediaOverlay
		if item.MediaType == "application/smil+xml" {
			overlay = smilSummary(r, item, md)
		}
		rows = append(rows, []string{item.ID, item.Href, item.MediaType, strings.Join(item.Properties, " "), overlay})
	}
	fmt.Fprintln(w, renderTable("Manifest",
		[]string{"ID", "Href", "Media Type", "Properties", "Overlay"}, rows, nil, style))

	rows = rows[:0]
	for i, ref := range opf.Spine {
		linear := "yes"
		if !ref.Linear {
			linear = "no"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), ref.IDRef, linear})
	}
	fmt.Fprintln(w, renderTable("Spine",
		[]string{"#", "IDRef", "Linear"}, rows,
		[]columnAlignment{alignRight}, style))

	navItem, ok := opf.NavItem()
	if !ok {
		return nil
	}
	data, err := r.ReadFile(navItem.Href)
	if err != nil {
		return err
	}
	nav, err := epub.ParseNav(data, path.Dir(navItem.Href))
	if err != nil {
		return err
	}

	rows = rows[:0]
	appendNavPoints(&rows, nav.TOC, 0)
	fmt.Fprintln(w, renderTable("Table of Contents",
		[]string{"Label", "Target"}, rows, nil, style))

	if len(nav.Landmarks) > 0 {
		rows = rows[:0]
		for _, l := range nav.Landmarks {
			rows = append(rows, []string{l.Type, l.Label, target(l.ContentPath, l.Fragment)})
		}
		fmt.Fprintln(w, renderTable("Landmarks",
			[]string{"Type", "Label", "Target"}, rows, nil, style))
	}
	return nil
}

func appendNavPoints(rows *[][]string, points []epub.NavPoint, depth int) {
	for _, p := range points {
		*rows = append(*rows, []string{strings.Repeat("  ", depth) + p.Label, target(p.ContentPath, p.Fragment)})
		appendNavPoints(rows, p.Children, depth+1)
	}
}

func target(contentPath, fragment string) string {
	if fragment == "" {
		return contentPath
	}
	return contentPath + "#" + fragment
}

// smilSummary describes an overlay document by its par count, the pars whose
// text fragment names no element, and the duration the package document
// declares for it.
func smilSummary(r *epub.Reader, item epub.ManifestItem, md epub.Metadata) string {
	data, err := r.ReadFile(item.Href)
	if err != nil {
		return "unreadable"
	}
	smil, err := epub.ParseSMIL(data)
	if err != nil {
		return "invalid"
	}

	docs := make(map[string]*epub.Content)
	dangling := 0
	for _, par := range smil.Pars {
		src, fragment, _ := strings.Cut(par.TextSrc, "#")
		target := path.Join(path.Dir(item.Href), src)
		c, ok := docs[target]
		if !ok {
			if raw, err := r.ReadFile(target); err == nil {
				c, _ = epub.LoadContent(target, raw)
			}
			docs[target] = c
		}
		if c == nil || (fragment != "" && !c.HasID(fragment)) {
			dangling++
		}
	}

	summary := fmt.Sprintf("%d pars", len(smil.Pars))
	if dangling > 0 {
		summary += fmt.Sprintf(" (%d dangling)", dangling)
	}
	if d, ok := md.Refinement("media:duration", "#"+item.ID); ok {
		summary += ", " + d
	}
	return summary
}

func methodName(method uint16) string {
	switch method {
	case zip.Store:
		return "stored"
	case zip.Deflate:
		return "deflated"
	default:
		return strconv.Itoa(int(method))
	}
}
