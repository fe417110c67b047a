package runner

import (
	"io"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/jeffrom/mit/lint"
)

const defaultReportTemplate = `{{ range . -}}
{{ .Severity }}[{{ .Lint }}]: {{ .Message }}
{{- if .Line }}
  --> line {{ .Line }}, column {{ .Column }}
   | {{ .Source }}
   | {{ .Marker }}
{{- end }}
  = {{ .Hint }}

{{ end -}}
`

var reportTemplate = template.Must(template.New("report").Parse(defaultReportTemplate))

type reportEntry struct {
	Severity string
	Lint     lint.ID
	Code     int
	Message  string
	Hint     string
	// Line and Column are 1-based, and zero when the problem has no location.
	Line   int
	Column int
	Source string
	Marker string
}

func writeText(w io.Writer, raw string, problems []lint.Problem) error {
	entries := make([]reportEntry, len(problems))
	for i, p := range problems {
		e := reportEntry{
			Severity: p.Severity.String(),
			Lint:     p.Lint,
			Code:     p.Code,
			Message:  p.Message,
			Hint:     p.Hint(),
		}
		if p.Location != nil && p.Location.Start <= len(raw) {
			locate(&e, raw, p.Location.Start, p.Location.End)
		}
		entries[i] = e
	}
	return reportTemplate.Execute(w, entries)
}

// locate fills in the line containing start, with a marker under the span.
func locate(e *reportEntry, raw string, start, end int) {
	lineStart := strings.LastIndexByte(raw[:start], '\n') + 1
	lineEnd := strings.IndexByte(raw[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(raw)
	} else {
		lineEnd += lineStart
	}
	if end > lineEnd {
		end = lineEnd
	}
	if end < start {
		end = start
	}

	e.Line = strings.Count(raw[:lineStart], "\n") + 1
	e.Column = utf8.RuneCountInString(raw[lineStart:start]) + 1
	e.Source = strings.TrimRight(raw[lineStart:lineEnd], "\r")

	width := utf8.RuneCountInString(raw[start:end])
	if width == 0 {
		width = 1
	}
	e.Marker = strings.Repeat(" ", e.Column-1) + strings.Repeat("^", width)
}
