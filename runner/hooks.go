package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeffrom/mit/commit"
	"github.com/jeffrom/mit/lint"
)

// LintMessage parses raw and evaluates it under hook. Configuration that
// can't be read degrades to the default lints with a warning problem.
func (r *Runner) LintMessage(ctx context.Context, raw string, hook lint.Hook) ([]lint.Problem, error) {
	cc, ccErr := r.commentChar(ctx, raw)
	cfg, _, cfgErr := r.lintConfig(ctx)
	configErr := errors.Join(ccErr, cfgErr)
	if configErr != nil {
		r.log.WithError(configErr).Warn("lint configuration unreadable, using defaults")
	}

	msg, err := commit.Parse(raw, cc)
	if err != nil {
		return nil, err
	}
	return lint.Evaluate(msg, cfg, lint.Options{Hook: hook, ConfigErr: configErr}), nil
}

// CommitMsg lints a message about to be committed. Problems are written to
// stderr, and a LintFailure is returned if any of them should stop the
// commit.
func (r *Runner) CommitMsg(ctx context.Context, rdr io.Reader) error {
	b, err := io.ReadAll(rdr)
	if err != nil {
		return exitErr(ExitIO, "failed to read commit message", err)
	}
	raw := string(b)
	problems, err := r.LintMessage(ctx, raw, lint.HookCommitMsg)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}
	if err := WriteProblems(r.cfg.Term.Stderr, r.cfg.Format, raw, problems); err != nil {
		return exitErr(ExitIO, "", err)
	}
	if lint.HasErrors(problems) {
		return LintFailure{Problems: problems}
	}
	return nil
}

// CommitMsgFile lints the message at path.
func (r *Runner) CommitMsgFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}
	defer f.Close()
	return r.CommitMsg(ctx, f)
}

// PrepareCommitMsg adds Co-authored-by trailers for every active author
// after the first, and a Relates-to trailer for the current relation.
// Messages reused from an existing commit are left alone.
func (r *Runner) PrepareCommitMsg(ctx context.Context, path, source string) error {
	if source == "commit" {
		r.log.WithField("path", path).Debug("message reused from a commit, not adding trailers")
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}
	raw := string(b)

	cc, err := r.commentChar(ctx, raw)
	if err != nil {
		return Classify(err)
	}
	msg, err := commit.Parse(raw, cc)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}

	trailers, err := r.trailers(ctx)
	if err != nil {
		return Classify(err)
	}
	// co-authors already credited by email, however their name was written.
	credited := make(map[string]bool)
	for _, ca := range msg.CoAuthors() {
		if ca.Valid {
			credited[strings.ToLower(ca.Email)] = true
		}
	}
	added := 0
	for _, t := range trailers {
		if msg.HasTrailer(t.Token, t.Value) {
			continue
		}
		if t.Token == commit.CoAuthoredBy {
			if _, email, ok := commit.ParseIdentity(t.Value); ok && credited[strings.ToLower(email)] {
				continue
			}
		}
		msg.AddTrailer(t.Token, t.Value)
		added++
	}
	if added == 0 {
		return nil
	}
	r.log.WithField("trailers", added).Debug("adding trailers")

	if r.cfg.Dryrun {
		r.cfg.Printf("%s", strings.TrimRight(msg.String(), "\n"))
		return nil
	}
	if err := os.WriteFile(path, []byte(msg.String()), info.Mode().Perm()); err != nil {
		return exitErr(ExitIO, "failed to write commit message", err)
	}
	return nil
}

// trailers returns the trailers the active session and relation call for.
func (r *Runner) trailers(ctx context.Context) ([]commit.Trailer, error) {
	var trailers []commit.Trailer
	authors, err := r.session().ActiveAuthors(ctx)
	if err != nil {
		return nil, err
	}
	for i, a := range authors {
		if i == 0 {
			// the first author is the committer.
			continue
		}
		v, err := r.coauthor.CoAuthorTrailer(a)
		if err != nil {
			return nil, ConfigError("failed to render co-author trailer", err)
		}
		trailers = append(trailers, commit.Trailer{Token: commit.CoAuthoredBy, Value: v})
	}

	rel, ok, err := r.relations().Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		_, o, err := r.lintConfig(ctx)
		if err != nil {
			return nil, err
		}
		tmpl, err := r.relateTemplate(o)
		if err != nil {
			return nil, err
		}
		v, err := tmpl.RelateTrailer(rel)
		if err != nil {
			return nil, ConfigError("failed to render relate trailer", err)
		}
		trailers = append(trailers, commit.Trailer{Token: commit.RelatesTo, Value: v})
	}
	return trailers, nil
}

// PreCommit fails when the author session has expired, so stale authors
// aren't silently dropped from the commit.
func (r *Runner) PreCommit(ctx context.Context) error {
	sess := r.session()
	expired, err := sess.ActiveExpired(ctx)
	if err != nil {
		return Classify(err)
	}
	if len(expired) == 0 {
		if until, ok, err := sess.Expires(ctx); err == nil && ok {
			r.log.WithField("expires", until.Format(time.RFC3339)).Debug("author session active")
		}
		return nil
	}
	r.cfg.Errorf("The authors %s are no longer active.", strings.Join(expired, ", "))
	r.cfg.Errorf("Set them again with: mit author-set %s", strings.Join(expired, " "))
	return exitErr(ExitProblems, fmt.Sprintf("author session expired for %s", strings.Join(expired, ", ")), nil)
}

// PostCommit clears the relation, then reports problems with the committed
// message as warnings. It doesn't fail on lint problems, since the commit
// already exists.
func (r *Runner) PostCommit(ctx context.Context, rdr io.Reader) error {
	if err := r.relations().Clear(ctx); err != nil {
		return Classify(err)
	}
	if rdr == nil {
		return nil
	}
	b, err := io.ReadAll(rdr)
	if err != nil {
		return exitErr(ExitIO, "failed to read commit message", err)
	}
	raw := string(b)
	problems, err := r.LintMessage(ctx, raw, lint.HookPostCommit)
	if err != nil {
		return exitErr(ExitIO, "commit message unreadable", err)
	}
	for i := range problems {
		problems[i].Severity = lint.SeverityWarning
	}
	if err := WriteProblems(r.cfg.Term.Stderr, r.cfg.Format, raw, problems); err != nil {
		return exitErr(ExitIO, "", err)
	}
	return nil
}
