// Package runner manages command-line execution
package runner

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jeffrom/mit/author"
	"github.com/jeffrom/mit/commit"
	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/lint"
	"github.com/jeffrom/mit/relate"
	"github.com/jeffrom/mit/vcs"
)

// CommentCharKey is git's comment character setting.
const CommentCharKey = "core.commentchar"

type Runner struct {
	cfg      config.Config
	store    vcs.ConfigStore
	log      *logrus.Logger
	clock    author.Clock
	dir      string
	coauthor *commit.Template
}

func New(cfg config.Config, store vcs.ConfigStore) (*Runner, error) {
	coauthor, err := commit.NewTemplate("coauthor", cfg.CoAuthorTemplate, commit.DefaultCoAuthorTemplate)
	if err != nil {
		return nil, ConfigError("invalid co-author template", err)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		log:      cfg.Logger(),
		clock:    author.SystemClock{},
		dir:      dir,
		coauthor: coauthor,
	}, nil
}

func (r *Runner) WithClock(clock author.Clock) *Runner {
	r.clock = clock
	return r
}

// WithDir sets where the search for a lint override file starts.
func (r *Runner) WithDir(dir string) *Runner {
	r.dir = dir
	return r
}

func (r *Runner) session() *author.Session {
	return author.NewSession(r.store, r.clock).WithLogger(r.log)
}

func (r *Runner) relations() *relate.Store {
	return relate.New(r.store)
}

func (r *Runner) database() (*author.Database, error) {
	db, err := author.Load(r.cfg.AuthorsFile)
	if err != nil {
		return nil, err
	}
	db.WithLogger(r.log.WithField("path", r.cfg.AuthorsFile))
	if r.cfg.AuthorsExec != "" {
		db.SetExec(r.cfg.AuthorsExec)
	}
	return db, nil
}

// commentChar resolves core.commentChar for raw. The default is returned
// along with any read error.
func (r *Runner) commentChar(ctx context.Context, raw string) (string, error) {
	setting, _, err := vcs.Lookup(ctx, r.store, CommentCharKey)
	if err != nil {
		return commit.DefaultCommentChar, err
	}
	return commit.ResolveCommentChar(setting, raw), nil
}

func (r *Runner) lintConfig(ctx context.Context) (lint.Config, *lint.Override, error) {
	return lint.Loader{Store: r.store, Dir: r.dir, Log: r.log}.Load(ctx)
}

// relateTemplate prefers an explicitly configured template, then the
// override file's, then the default.
func (r *Runner) relateTemplate(o *lint.Override) (*commit.Template, error) {
	tmpl := r.cfg.RelateTemplate
	if (tmpl == "" || tmpl == commit.DefaultRelateTemplate) && o != nil && o.Relate.Template != "" {
		tmpl = o.Relate.Template
	}
	t, err := commit.NewTemplate("relate", tmpl, commit.DefaultRelateTemplate)
	if err != nil {
		return nil, ConfigError("invalid relate template", err)
	}
	return t, nil
}
