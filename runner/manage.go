package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/lint"
	"github.com/jeffrom/mit/model"
)

// git identity keys set for the first active author.
const (
	userNameKey       = "user.name"
	userEmailKey      = "user.email"
	userSigningKeyKey = "user.signingkey"
)

// SetAuthors starts a session with the authors for initials. The first author
// becomes the git user.
func (r *Runner) SetAuthors(ctx context.Context, initials []string, timeout time.Duration) ([]model.Author, error) {
	db, err := r.database()
	if err != nil {
		return nil, Classify(err)
	}
	if len(initials) == 0 {
		all, err := db.All(ctx)
		if err != nil {
			return nil, Classify(err)
		}
		avail := make([]string, len(all))
		for i, a := range all {
			avail[i] = a.Initials
		}
		return nil, ConfigError(fmt.Sprintf("no initials given (available: %s)", strings.Join(avail, ", ")), nil)
	}
	authors, err := db.Resolve(ctx, initials)
	if err != nil {
		return nil, Classify(err)
	}
	if timeout <= 0 {
		timeout = time.Duration(r.cfg.AuthorsTimeout) * time.Minute
	}

	expires, err := r.session().SetActive(ctx, authors, timeout)
	if err != nil {
		return nil, Classify(err)
	}

	first := authors[0]
	if err := r.store.Set(ctx, userNameKey, first.Name); err != nil {
		return nil, Classify(err)
	}
	if err := r.store.Set(ctx, userEmailKey, first.Email); err != nil {
		return nil, Classify(err)
	}
	// a key left over from a previous first author must not sign this one's
	// commits.
	if first.SigningKey != "" {
		err = r.store.Set(ctx, userSigningKeyKey, first.SigningKey)
	} else {
		err = r.store.Remove(ctx, userSigningKeyKey)
	}
	if err != nil {
		return nil, Classify(err)
	}

	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.String()
	}
	r.cfg.Printf("Active until %s: %s", expires.Format("15:04"), strings.Join(names, ", "))
	return authors, nil
}

// Relate sets the ticket for the next commit.
func (r *Runner) Relate(ctx context.Context, ticket string) error {
	if err := r.relations().Set(ctx, ticket); err != nil {
		return Classify(err)
	}
	r.cfg.Printf("Relating commits to %s", strings.TrimSpace(ticket))
	return nil
}

func (r *Runner) ClearRelation(ctx context.Context) error {
	return Classify(r.relations().Clear(ctx))
}

// CurrentRelation prints the current relation, if any. The trailing newline
// is left off when stdout isn't a terminal, for use in scripts.
func (r *Runner) CurrentRelation(ctx context.Context) error {
	rel, ok, err := r.relations().Get(ctx)
	if err != nil {
		return Classify(err)
	}
	if !ok {
		return nil
	}
	format := "%s"
	if r.cfg.Term.StdoutIsTerminal() {
		format += "\n"
	}
	r.cfg.Term.Printf(format, rel.Ticket)
	return nil
}

type lintStatus struct {
	Lint    lint.ID `json:"lint"`
	Code    int     `json:"code"`
	Name    string  `json:"name"`
	Default bool    `json:"default"`
	Enabled bool    `json:"enabled"`
}

// ListLints prints lints with their effective state. Only enabled lints are
// listed unless all is set.
func (r *Runner) ListLints(ctx context.Context, all bool) error {
	cfg, _, err := r.lintConfig(ctx)
	if err != nil {
		return Classify(err)
	}
	lints := lint.All()
	if !all {
		lints = lints[:0:0]
		for _, id := range cfg.EnabledIDs() {
			l, err := lint.Lookup(string(id))
			if err != nil {
				return Classify(err)
			}
			lints = append(lints, l)
		}
	}
	statuses := make([]lintStatus, len(lints))
	for i, l := range lints {
		statuses[i] = lintStatus{Lint: l.ID, Code: l.Code, Name: l.Name, Default: l.Default, Enabled: cfg.Enabled(l.ID)}
	}

	if r.cfg.Format == config.FormatJSON {
		enc := json.NewEncoder(r.cfg.Term.Stdout)
		for _, s := range statuses {
			if err := enc.Encode(s); err != nil {
				return exitErr(ExitIO, "", err)
			}
		}
		return nil
	}
	for _, s := range statuses {
		state := "disabled"
		if s.Enabled {
			state = "enabled"
		}
		r.cfg.Printf("%-36s %-8s (code %d)", s.Lint, state, s.Code)
	}
	return nil
}

// SetLint persists a lint toggle in the config store. An override file may
// still take precedence.
func (r *Runner) SetLint(ctx context.Context, id string, enabled bool) error {
	if err := lint.SetEnabled(ctx, r.store, id, enabled); err != nil {
		return Classify(err)
	}
	cfg, o, err := r.lintConfig(ctx)
	if err != nil {
		return Classify(err)
	}
	if cfg.Enabled(lint.ID(id)) != enabled && o != nil {
		r.cfg.Errorf("warning: %s is overridden by %s", id, o.Path)
	}
	return nil
}
