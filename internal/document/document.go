// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package document synthesizes lightweight export documents. Real
// document-format rendering is out of scope: the docx-like format emits a
// minimal RTF envelope and the pdf-like format emits print-ready HTML.
package document

import (
	"fmt"
	"html"
	"strings"
)

// Format selects the export document format.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned when the requested format is not in the
// supported set.
var ErrUnsupportedFormat = fmt.Errorf("unsupported export format")

// ParseFormat validates a format token from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTxt, FormatDocx, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension returns the final file extension for a format: the docx-like
// format writes RTF under a .doc extension for compatibility, the pdf-like
// format writes printable HTML.
func Extension(f Format) string {
	switch f {
	case FormatDocx:
		return "doc"
	case FormatPDF:
		return "html"
	default:
		return string(f)
	}
}

// Document is a synthesized export artifact.
type Document struct {
	Bytes     []byte
	MIMEType  string
	Extension string
}

// Synthesize is a pure transformation from document content to final bytes.
// Title is used for the HTML document heading only.
func Synthesize(title, content string, f Format) (*Document, error) {
	switch f {
	case FormatTxt:
		return &Document{
			Bytes:     []byte(content),
			MIMEType:  "text/plain;charset=utf-8",
			Extension: "txt",
		}, nil

	case FormatDocx:
		return &Document{
			Bytes:     []byte(rtfEnvelope(content)),
			MIMEType:  "application/rtf",
			Extension: "doc",
		}, nil

	case FormatPDF:
		return &Document{
			Bytes:     []byte(htmlEnvelope(title, content)),
			MIMEType:  "text/html",
			Extension: "html",
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

var rtfEscaper = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)

// rtfEnvelope wraps content in a minimal RTF document. Arial is the default
// font and paragraph breaks map to \par markers.
func rtfEnvelope(content string) string {
	escaped := strings.ReplaceAll(rtfEscaper.Replace(content), "\n", `\par `)
	return `{\rtf1\ansi\deff0 {\fonttbl {\f0 \froman\fcharset0 Times New Roman;} {\f1 \fswiss\fcharset0 Arial;}} {\colortbl;\red0\green0\blue0;} \f1\fs24 ` + escaped + ` }`
}

// htmlEnvelope wraps content in a standalone HTML document with
// print-oriented CSS so the user can print it to PDF from a browser.
func htmlEnvelope(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
  @media print {
    body { margin: 0; font-size: 12pt; }
    @page { margin: 2cm; }
  }
  body {
    font-family: Arial, Helvetica, sans-serif;
    margin: 20px;
    line-height: 1.6;
    color: #333;
  }
  pre {
    white-space: pre-wrap;
    font-family: inherit;
    background: #f5f5f5;
    padding: 10px;
    border-radius: 4px;
  }
  h1 { color: #1f7ff0; border-bottom: 2px solid #1f7ff0; padding-bottom: 10px; }
</style>
</head>
<body>
<h1>%s</h1>
<pre>%s</pre>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(title), html.EscapeString(content))
}
