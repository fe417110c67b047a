package commit

import (
	"bytes"
	"io"
	"strings"
	"text/template"

	"github.com/jeffrom/mit/model"
)

const (
	DefaultCoAuthorTemplate = `{{ .Name }} <{{ .Email }}>`
	DefaultRelateTemplate   = `{{ .Ticket }}`
)

var funcMap = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

// Template renders trailer values.
type Template struct {
	t *template.Template
}

// NewTemplate parses s, or fallback when s is empty.
func NewTemplate(name, s, fallback string) (*Template, error) {
	tmpl := s
	if tmpl == "" {
		tmpl = fallback
	}
	t, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	return &Template{t: t}, nil
}

func (t *Template) Execute(w io.Writer, d interface{}) error {
	return t.t.Execute(w, d)
}

// ExecuteString renders d. Trailer values are single lines, so surrounding
// whitespace is dropped.
func (t *Template) ExecuteString(d interface{}) (string, error) {
	b := &bytes.Buffer{}
	if err := t.Execute(b, d); err != nil {
		return "", err
	}

	return strings.TrimSpace(b.String()), nil
}

// CoAuthorTrailer renders the Co-authored-by value for a.
func (t *Template) CoAuthorTrailer(a model.Author) (string, error) {
	return t.ExecuteString(a)
}

// RelateTrailer renders the Relates-to value for r.
func (t *Template) RelateTrailer(r model.Relation) (string, error) {
	return t.ExecuteString(r)
}
