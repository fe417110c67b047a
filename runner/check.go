package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/lint"
)

// LintFailure is returned when a message has error-severity problems.
type LintFailure struct {
	Problems []lint.Problem
}

func (lf LintFailure) Error() string {
	n := 0
	for _, p := range lf.Problems {
		if p.Severity == lint.SeverityError {
			n++
		}
	}
	return fmt.Sprintf("%d lint problem(s) found", n)
}

func (lf LintFailure) Is(other error) bool {
	_, ok := other.(LintFailure)
	return ok
}

func (lf LintFailure) ExitCode() int { return ExitProblems }

// WriteProblems renders problems for raw in the given format.
func WriteProblems(w io.Writer, format string, raw string, problems []lint.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	if format == config.FormatJSON {
		return writeJSON(w, problems)
	}
	return writeText(w, raw, problems)
}

// writeJSON writes one object per line.
func writeJSON(w io.Writer, problems []lint.Problem) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, p := range problems {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return bw.Flush()
}
