package lint

import (
	"github.com/jeffrom/mit/commit"
)

type Options struct {
	Hook Hook
	// ConfigErr is set when the configuration couldn't be read. Evaluation
	// falls back to the defaults and reports it as a warning.
	ConfigErr error
}

// Evaluate runs every enabled lint that applies to the hook. The result is
// sorted, see Sort.
func Evaluate(m *commit.Message, cfg Config, opts Options) []Problem {
	var problems []Problem
	if opts.ConfigErr != nil {
		cfg = DefaultConfig()
		p := configurationUnreadable.problem("Your lint configuration couldn't be read: "+opts.ConfigErr.Error(), nil)
		p.Severity = SeverityWarning
		problems = append(problems, p)
	}
	for _, l := range registry {
		if !cfg.Enabled(l.ID) || !l.AppliesTo(opts.Hook) {
			continue
		}
		problems = append(problems, l.Check(m)...)
	}
	Sort(problems)
	return problems
}

// EvaluateString parses raw and evaluates it.
func EvaluateString(raw, commentChar string, cfg Config, opts Options) ([]Problem, error) {
	m, err := commit.Parse(raw, commentChar)
	if err != nil {
		return nil, err
	}
	return Evaluate(m, cfg, opts), nil
}
