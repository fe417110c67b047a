package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	ScopeAuto   = "auto"
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

type Config struct {
	Verbose bool   `json:"verbose,omitempty"`
	Quiet   bool   `json:"quiet,omitempty"`
	Dryrun  bool   `json:"dryrun,omitempty"`
	Format  string `json:"format,omitempty"`

	// Scope selects which git configuration file the store writes to.
	Scope string `json:"scope,omitempty"`

	AuthorsFile string `json:"authors_file,omitempty"`
	// AuthorsExec is a shell command whose output is merged into the authors
	// file. It only runs when set explicitly.
	AuthorsExec    string `json:"authors_exec,omitempty"`
	AuthorsTimeout int    `json:"authors_timeout,omitempty"`

	CoAuthorTemplate string `json:"coauthor_template,omitempty"`
	RelateTemplate   string `json:"relate_template,omitempty"`

	Term TerminalIO     `json:"-"`
	Log  *logrus.Logger `json:"-"`
}

func New(overrides *Config) Config {
	return NewWithTerminalIO(overrides, nil)
}

func NewWithTerminalIO(overrides *Config, termio *TerminalIO) Config {
	cfg := GetDefault()
	if termio == nil {
		termio = &DefaultTermIO
	}
	cfg.Term = *termio

	if overrides != nil {
		if err := mergo.Merge(&cfg, overrides, mergo.WithOverride); err != nil {
			panic(err)
		}
	}
	if cfg.Log == nil {
		cfg.Log = newLogger(cfg.Term.Stderr)
	}
	return cfg
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Logger returns the diagnostic logger, leveled by Verbose.
func (c Config) Logger() *logrus.Logger {
	if c.Log == nil {
		c.Log = newLogger(c.Term.Stderr)
	}
	if c.Verbose {
		c.Log.SetLevel(logrus.DebugLevel)
	} else {
		c.Log.SetLevel(logrus.WarnLevel)
	}
	return c.Log
}

func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("config: invalid format %q (expected %q or %q)", c.Format, FormatText, FormatJSON)
	}
	switch c.Scope {
	case ScopeAuto, ScopeLocal, ScopeGlobal:
	default:
		return fmt.Errorf("config: invalid scope %q (expected one of %s)", c.Scope, strings.Join([]string{ScopeAuto, ScopeLocal, ScopeGlobal}, ", "))
	}
	if c.AuthorsTimeout <= 0 {
		return fmt.Errorf("config: authors timeout must be positive, got %d", c.AuthorsTimeout)
	}
	return nil
}

func (c Config) Printf(msg string, args ...interface{}) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Term.Stdout, msg+"\n", args...)
}

func (c Config) Errorf(msg string, args ...interface{}) {
	fmt.Fprintf(c.Term.Stderr, msg+"\n", args...)
}

func (c Config) Debugf(msg string, args ...interface{}) {
	c.Logger().Debugf(msg, args...)
}
