package lint

import (
	"encoding/json"
	"sort"

	"github.com/jeffrom/mit/commit"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "<UNKNOWN>"
	}
}

// Problem is a single lint finding.
type Problem struct {
	Lint       ID
	Code       int
	Message    string
	Help       string
	Suggestion string
	Location   *commit.Location
	Severity   Severity
}

// Hint is the most specific advice available for fixing the problem.
func (p Problem) Hint() string {
	if p.Suggestion != "" {
		return p.Suggestion
	}
	return p.Help
}

type problemJSON struct {
	Lint     ID               `json:"lint"`
	Code     int              `json:"code"`
	Message  string           `json:"message"`
	Hint     string           `json:"hint"`
	Location *commit.Location `json:"location"`
}

func (p Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(problemJSON{
		Lint:     p.Lint,
		Code:     p.Code,
		Message:  p.Message,
		Hint:     p.Hint(),
		Location: p.Location,
	})
}

func (p Problem) start() int {
	if p.Location == nil {
		return -1
	}
	return p.Location.Start
}

// Sort orders problems by location, then lint id. Problems without a location
// come first.
func Sort(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		a, b := problems[i], problems[j]
		if a.start() != b.start() {
			return a.start() < b.start()
		}
		return a.Lint < b.Lint
	})
}

// HasErrors reports whether any problem should fail a commit.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}
