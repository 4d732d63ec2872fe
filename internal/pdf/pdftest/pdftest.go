// Package pdftest builds small, well-formed PDF documents with AcroForm
// fields for use in tests.
package pdftest

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Field describes one top-level form field. Title and Type are written
// verbatim, so Title carries its string delimiters, e.g. "(FullName)" or
// "<FEFF0041>", and Type its leading slash, e.g. "/Tx". Empty values omit
// the entry.
type Field struct {
	Title string
	Type  string
}

// Options controls the shape of the AcroForm.
type Options struct {
	NoAcroForm bool // catalog has no /AcroForm entry
	NoFields   bool // AcroForm has no /Fields entry
	NullFields bool // AcroForm has /Fields null
}

// Text returns a text field titled name.
func Text(name string) Field {
	return Field{Title: "(" + name + ")", Type: "/Tx"}
}

// Build returns a one-page PDF whose AcroForm lists fields in order.
func Build(opts Options, fields ...Field) []byte {
	const firstField = 5

	objects := []string{
		catalog(opts),
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		acroForm(opts, firstField, len(fields)),
	}

	for i, f := range fields {
		var b bytes.Buffer
		b.WriteString("<<")
		if f.Title != "" {
			fmt.Fprintf(&b, " /T %s", f.Title)
		}
		if f.Type != "" {
			fmt.Fprintf(&b, " /FT %s", f.Type)
		}
		fmt.Fprintf(&b, " /Type /Annot /Subtype /Widget /P 3 0 R /Rect [72 %d 300 %d] >>",
			700-30*i, 720-30*i)
		objects = append(objects, b.String())
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return out.Bytes()
}

// Base64 builds a document and returns it base64 encoded.
func Base64(opts Options, fields ...Field) string {
	return base64.StdEncoding.EncodeToString(Build(opts, fields...))
}

func catalog(opts Options) string {
	if opts.NoAcroForm {
		return "<< /Type /Catalog /Pages 2 0 R >>"
	}
	return "<< /Type /Catalog /Pages 2 0 R /AcroForm 4 0 R >>"
}

func acroForm(opts Options, first, n int) string {
	switch {
	case opts.NoFields:
		return "<< /DA (/Helv 0 Tf 0 g) >>"
	case opts.NullFields:
		return "<< /Fields null /DA (/Helv 0 Tf 0 g) >>"
	}

	var b bytes.Buffer
	b.WriteString("<< /Fields [")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d 0 R", first+i)
	}
	b.WriteString("] /DA (/Helv 0 Tf 0 g) >>")
	return b.String()
}
