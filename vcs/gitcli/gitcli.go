// Package gitcli implements vcs.ConfigStore using the git commandline tool.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/sirupsen/logrus"

	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/vcs"
)

// git config exit statuses.
const (
	exitKeyNotFound    = 1
	exitNothingToUnset = 5
)

// Git implements vcs.ConfigStore using the git commandline tool.
type Git struct {
	cfg config.Config
	log *logrus.Logger
	wd  string

	scopeFlag string
	version   *semver.Version
}

func New(cfg config.Config, wd string) *Git {
	return &Git{
		cfg: cfg,
		log: cfg.Logger(),
		wd:  wd,
	}
}

// InRepository reports whether the working directory is inside a git
// repository.
func (g *Git) InRepository(ctx context.Context) bool {
	_, err := g.call(ctx, []string{"rev-parse", "--git-dir"})
	return err == nil
}

// scope resolves the configured scope to a git config flag. Auto scope writes
// to the repository when there is one, and to the global config otherwise.
func (g *Git) scope(ctx context.Context) (string, error) {
	if g.scopeFlag != "" {
		return g.scopeFlag, nil
	}
	switch g.cfg.Scope {
	case config.ScopeGlobal:
		g.scopeFlag = "--global"
	case config.ScopeLocal:
		if !g.InRepository(ctx) {
			return "", vcs.ErrNoRepository
		}
		g.scopeFlag = "--local"
	case config.ScopeAuto, "":
		if g.InRepository(ctx) {
			g.scopeFlag = "--local"
		} else {
			g.scopeFlag = "--global"
		}
	default:
		return "", fmt.Errorf("gitcli: unknown scope %q", g.cfg.Scope)
	}
	g.log.WithField("scope", g.scopeFlag).Debug("resolved config scope")
	return g.scopeFlag, nil
}

func (g *Git) Get(ctx context.Context, key string) (string, bool, error) {
	scope, err := g.scope(ctx)
	if err != nil {
		return "", false, err
	}
	return g.get(ctx, configArgs(scope, "--get", key))
}

// Lookup reads key the way git itself resolves it, with local values layered
// over global and system ones.
func (g *Git) Lookup(ctx context.Context, key string) (string, bool, error) {
	return g.get(ctx, configArgs("", "--get", key))
}

func (g *Git) get(ctx context.Context, args []string) (string, bool, error) {
	key := args[len(args)-1]
	b, err := g.call(ctx, args)
	if err != nil {
		if exitCode(err) == exitKeyNotFound {
			return "", false, nil
		}
		return "", false, &vcs.StoreError{Op: vcs.OpGet, Key: key, Err: err}
	}
	return strings.TrimSuffix(string(b), "\n"), true, nil
}

// configArgs builds a git config invocation. An empty scope reads every
// configuration file.
func configArgs(scope string, args ...string) []string {
	res := []string{"config"}
	if scope != "" {
		res = append(res, scope)
	}
	return append(res, args...)
}

func (g *Git) Set(ctx context.Context, key, value string) error {
	scope, err := g.scope(ctx)
	if err != nil {
		return err
	}
	if _, err := g.call(ctx, []string{"config", scope, "--replace-all", key, value}); err != nil {
		return &vcs.StoreError{Op: vcs.OpSet, Key: key, Err: err}
	}
	return nil
}

func (g *Git) Remove(ctx context.Context, key string) error {
	scope, err := g.scope(ctx)
	if err != nil {
		return err
	}
	if _, err := g.call(ctx, []string{"config", scope, "--unset-all", key}); err != nil {
		if exitCode(err) == exitNothingToUnset {
			return nil
		}
		return &vcs.StoreError{Op: vcs.OpRemove, Key: key, Err: err}
	}
	return nil
}

func (g *Git) List(ctx context.Context, prefix string) ([]vcs.Entry, error) {
	scope, err := g.scope(ctx)
	if err != nil {
		return nil, err
	}
	return g.list(ctx, scope, prefix)
}

func (g *Git) list(ctx context.Context, scope, prefix string) ([]vcs.Entry, error) {
	pattern := "."
	if prefix != "" {
		pattern = "^" + regexp.QuoteMeta(prefix)
	}
	b, err := g.call(ctx, configArgs(scope, "--null", "--get-regexp", pattern))
	if err != nil {
		if exitCode(err) == exitKeyNotFound {
			return nil, nil
		}
		return nil, &vcs.StoreError{Op: vcs.OpList, Key: prefix, Err: err}
	}
	entries := parseNullList(b, prefix)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// parseNullList parses the output of git config --null --get-regexp, which is
// a sequence of "key\nvalue\x00" records.
func parseNullList(b []byte, prefix string) []vcs.Entry {
	var entries []vcs.Entry
	for _, rec := range bytes.Split(b, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		key, value, _ := strings.Cut(string(rec), "\n")
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entries = append(entries, vcs.Entry{Key: key, Value: value})
	}
	return entries
}

// GetBool asks git to normalize a boolean value.
func (g *Git) GetBool(ctx context.Context, key string) (bool, bool, error) {
	scope, err := g.scope(ctx)
	if err != nil {
		return false, false, err
	}
	return g.getBool(ctx, scope, key)
}

// LookupBool is GetBool across every configuration file.
func (g *Git) LookupBool(ctx context.Context, key string) (bool, bool, error) {
	return g.getBool(ctx, "", key)
}

func (g *Git) getBool(ctx context.Context, scope, key string) (bool, bool, error) {
	ver, err := g.Version(ctx)
	if err != nil {
		return false, false, &vcs.StoreError{Op: vcs.OpGet, Key: key, Err: err}
	}
	b, err := g.call(ctx, configArgs(scope, boolFlag(ver), "--get", key))
	if err != nil {
		if exitCode(err) == exitKeyNotFound {
			return false, false, nil
		}
		return false, false, &vcs.StoreError{Op: vcs.OpGet, Key: key, Err: err}
	}
	val, err := vcs.ParseBool(string(b))
	if err != nil {
		return false, true, &vcs.StoreError{Op: vcs.OpGet, Key: key, Err: err}
	}
	return val, true, nil
}

// Snapshot copies every visible key into an in-memory store, so dry runs can
// read real configuration without writing to it. Keys set in more than one
// file keep the value git would resolve.
func (g *Git) Snapshot(ctx context.Context) (*vcs.Memory, error) {
	entries, err := g.list(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return vcs.NewMemory(entries...), nil
}
