// Package author loads the author database and tracks which authors are
// currently pairing on commits.
package author

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/imdario/mergo"
	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jeffrom/mit/model"
)

// execKey is the top-level key declaring a command that prints more authors.
const execKey = "exec"

// Database maps initials to authors. It may also declare a command whose
// output is merged in on first use, with its entries taking precedence.
type Database struct {
	Path string

	authors map[string]model.Author
	exec    string
	execRan bool
	execErr error
	log     logrus.FieldLogger
}

func newDatabase(path string) *Database {
	return &Database{
		Path:    path,
		authors: make(map[string]model.Author),
		log:     logrus.StandardLogger(),
	}
}

// Load reads the database at path. A missing file is an empty database.
func Load(path string) (*Database, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newDatabase(path), nil
		}
		return nil, err
	}
	return Parse(path, b)
}

// Parse decodes b as YAML when path ends in .yml or .yaml, TOML otherwise.
func Parse(path string, b []byte) (*Database, error) {
	var doc *document
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		doc, err = parseYAML(path, b)
	default:
		doc, err = parseTOML(path, b)
	}
	if err != nil {
		return nil, err
	}
	db := newDatabase(path)
	db.authors = doc.authors
	db.exec = doc.exec
	return db, nil
}

func (d *Database) WithLogger(log logrus.FieldLogger) *Database {
	d.log = log
	return d
}

// SetExec replaces the command declared in the file, if any.
func (d *Database) SetExec(cmd string) {
	d.exec = cmd
	d.execRan = false
	d.execErr = nil
}

func (d *Database) Exec() string { return d.exec }

// Resolve returns the authors for initials, in the order requested.
func (d *Database) Resolve(ctx context.Context, initials []string) ([]model.Author, error) {
	if err := d.runExec(ctx); err != nil {
		return nil, err
	}
	authors := make([]model.Author, 0, len(initials))
	var unknown []string
	for _, in := range initials {
		a, ok := d.authors[in]
		if !ok {
			unknown = append(unknown, in)
			continue
		}
		authors = append(authors, a)
	}
	if len(unknown) > 0 {
		return nil, &UnknownAuthorError{Initials: unknown}
	}
	return authors, nil
}

// All returns every author, sorted by initials.
func (d *Database) All(ctx context.Context) ([]model.Author, error) {
	if err := d.runExec(ctx); err != nil {
		return nil, err
	}
	authors := make([]model.Author, 0, len(d.authors))
	for _, a := range d.authors {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].Initials < authors[j].Initials })
	return authors, nil
}

// runExec merges the command's authors at most once. A failure is kept and
// returned to every later caller.
func (d *Database) runExec(ctx context.Context) error {
	if d.exec == "" {
		return nil
	}
	if !d.execRan {
		d.execErr = d.mergeExec(ctx)
		d.execRan = true
	}
	return d.execErr
}

func (d *Database) mergeExec(ctx context.Context) error {
	log := d.log.WithField("exec", d.exec)
	log.Debug("loading authors from command")

	cmd := exec.CommandContext(ctx, "sh", "-c", d.exec)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("author: exec %q failed: %w: %s", d.exec, err, strings.TrimSpace(stderr.String()))
	}

	doc, err := parseTOML("exec: "+d.exec, out)
	var ferr *MalformedAuthorFileError
	if errors.As(err, &ferr) {
		// not TOML, try YAML, but report the TOML error if neither parses.
		var yerr *MalformedAuthorFileError
		doc, err = parseYAML("exec: "+d.exec, out)
		if errors.As(err, &yerr) {
			return ferr
		}
	}
	if err != nil {
		return err
	}
	if doc.exec != "" {
		log.Warn("ignoring exec declared in command output")
	}
	log.WithField("count", len(doc.authors)).Debug("merging command authors")
	return mergo.Merge(&d.authors, doc.authors, mergo.WithOverride)
}

type document struct {
	authors map[string]model.Author
	exec    string
}

func parseTOML(path string, b []byte) (*document, error) {
	if initials := duplicateTOMLTable(b); initials != "" {
		return nil, &MalformedAuthorError{Initials: initials, Reason: "defined more than once"}
	}
	raw := make(map[string]interface{})
	if err := toml.Unmarshal(b, &raw); err != nil {
		ferr := &MalformedAuthorFileError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			ferr.Line, ferr.Column = derr.Position()
		}
		return nil, ferr
	}
	return fromRaw(raw)
}

// duplicateTOMLTable returns the first top-level table header that appears
// twice. Syntax errors are left for the decoder to report.
func duplicateTOMLTable(b []byte) string {
	p := unstable.Parser{}
	p.Reset(b)
	seen := make(map[string]bool)
	root := true
	for p.NextExpression() {
		e := p.Expression()
		var parts []string
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			root = false
			parts = keyParts(e)
		case unstable.KeyValue:
			if !root {
				continue
			}
			parts = keyParts(e)
		default:
			continue
		}
		if len(parts) != 1 {
			continue
		}
		if seen[parts[0]] {
			return parts[0]
		}
		seen[parts[0]] = true
	}
	return ""
}

func keyParts(n *unstable.Node) []string {
	var parts []string
	it := n.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func parseYAML(path string, b []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, &MalformedAuthorFileError{Path: path, Err: err}
	}
	if len(root.Content) == 0 {
		return fromRaw(nil)
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &MalformedAuthorFileError{Path: path, Line: top.Line, Column: top.Column, Err: errors.New("expected a mapping of initials to authors")}
	}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(top.Content); i += 2 {
		k := top.Content[i]
		if seen[k.Value] {
			return nil, &MalformedAuthorError{Initials: k.Value, Reason: fmt.Sprintf("defined more than once (line %d)", k.Line)}
		}
		seen[k.Value] = true
	}

	raw := make(map[string]interface{})
	if err := top.Decode(&raw); err != nil {
		return nil, &MalformedAuthorFileError{Path: path, Line: top.Line, Column: top.Column, Err: err}
	}
	return fromRaw(raw)
}

// fromRaw validates a decoded document. Unknown author fields are ignored.
func fromRaw(raw map[string]interface{}) (*document, error) {
	doc := &document{authors: make(map[string]model.Author)}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, initials := range keys {
		v := raw[initials]
		if initials == execKey {
			s, ok := v.(string)
			if !ok {
				return nil, &MalformedAuthorError{Initials: initials, Reason: "exec must be a command string"}
			}
			doc.exec = s
			continue
		}
		fields, ok := v.(map[string]interface{})
		if !ok {
			return nil, &MalformedAuthorError{Initials: initials, Reason: "expected a table of author fields"}
		}

		a := model.Author{Initials: initials}
		var err error
		if a.Name, err = stringField(initials, fields, "name"); err != nil {
			return nil, err
		}
		if a.Email, err = stringField(initials, fields, "email"); err != nil {
			return nil, err
		}
		if a.SigningKey, err = stringField(initials, fields, "signing_key", "signingkey"); err != nil {
			return nil, err
		}
		if a.Name == "" {
			return nil, &MalformedAuthorError{Initials: initials, Reason: "missing name"}
		}
		if a.Email == "" {
			return nil, &MalformedAuthorError{Initials: initials, Reason: "missing email"}
		}
		doc.authors[initials] = a
	}
	return doc, nil
}

func stringField(initials string, fields map[string]interface{}, names ...string) (string, error) {
	for _, name := range names {
		v, ok := fields[name]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", &MalformedAuthorError{Initials: initials, Reason: name + " must be a string"}
		}
		return strings.TrimSpace(s), nil
	}
	return "", nil
}
