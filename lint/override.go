package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/jeffrom/mit/vcs"
)

const (
	OverrideFile     = ".git-mit.toml"
	OverrideFileDist = ".git-mit.toml.dist"
)

// Override is the contents of a repository's lint override file.
type Override struct {
	Path   string                  `toml:"-"`
	Lints  map[string]LintOverride `toml:"lints"`
	Relate RelateOverride          `toml:"relate"`
}

type LintOverride struct {
	Enabled *bool `toml:"enabled"`
}

type RelateOverride struct {
	Template string `toml:"template"`
}

type MalformedOverrideError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *MalformedOverrideError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("lint: malformed override %s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("lint: malformed override %s: %v", e.Path, e.Err)
}

func (e *MalformedOverrideError) Unwrap() error { return e.Err }

// FindOverride walks up from dir looking for an override file. It returns ""
// when there is none.
func FindOverride(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range []string{OverrideFile, OverrideFileDist} {
			cand := filepath.Join(dir, name)
			_, err := os.Stat(cand)
			if err == nil {
				return cand, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return "", err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func ReadOverride(path string) (*Override, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOverride(path, b)
}

// ParseOverride decodes an override document. path is only used for errors.
func ParseOverride(path string, b []byte) (*Override, error) {
	o := &Override{}
	if err := toml.Unmarshal(b, o); err != nil {
		merr := &MalformedOverrideError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			merr.Line, merr.Column = derr.Position()
		}
		return nil, merr
	}
	o.Path = path
	return o, nil
}

// Apply returns c with the override's toggles laid over it. Unknown ids are
// ignored.
func (o *Override) Apply(c Config) Config {
	out := c.clone()
	if o == nil {
		return out
	}
	for id, lo := range o.Lints {
		if lo.Enabled == nil {
			continue
		}
		if _, ok := byID[ID(id)]; !ok {
			continue
		}
		out[ID(id)] = *lo.Enabled
	}
	return out
}

// Loader builds the effective lint configuration: defaults, then the config
// store, then the nearest override file.
type Loader struct {
	Store vcs.ConfigStore
	// Dir is where the search for an override file starts.
	Dir string
	Log logrus.FieldLogger
}

// Load returns the effective configuration and the override file, if any.
// On error the returned Config is still usable, holding whatever layers were
// read successfully.
func (ld Loader) Load(ctx context.Context) (Config, *Override, error) {
	log := ld.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	c, err := ReadConfig(ctx, ld.Store)
	if err != nil {
		return c, nil, err
	}
	if ld.Dir == "" {
		return c, nil, nil
	}

	path, err := FindOverride(ld.Dir)
	if err != nil {
		return c, nil, err
	}
	if path == "" {
		log.WithField("dir", ld.Dir).Debug("no lint override file")
		return c, nil, nil
	}
	o, err := ReadOverride(path)
	if err != nil {
		return c, nil, err
	}
	log.WithField("path", path).Debug("applying lint override")
	return o.Apply(c), o, nil
}
