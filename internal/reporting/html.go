package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/spboyer/ifccheck/internal/runner"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 72rem; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.6rem; text-align: left; }
code { font-size: 0.9em; }
</style>
</head>
<body>
`

// WriteHTML renders the markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, report *runner.Report) error {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(FormatMarkdownReport(report)), &body); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlHead, html.EscapeString("IFC compliance "+report.RunID)); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
