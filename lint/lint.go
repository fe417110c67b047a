// Package lint checks commit messages against a closed set of rules. Each
// rule has a stable id and code that never change or get reused.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeffrom/mit/commit"
)

type ID string

const (
	DuplicatedTrailers          ID = "duplicated-trailers"
	PivotalTrackerIDMissing     ID = "pivotal-tracker-id-missing"
	JiraIssueKeyMissing         ID = "jira-issue-key-missing"
	GitHubIDMissing             ID = "github-id-missing"
	SubjectNotSeparatedFromBody ID = "subject-not-separated-from-body"
	SubjectLongerThan72         ID = "subject-longer-than-72-characters"
	SubjectNotCapitalized       ID = "subject-not-capitalized"
	SubjectEndsWithPeriod       ID = "subject-line-ends-with-period"
	BodyWiderThan72             ID = "body-wider-than-72-characters"
	NotConventionalCommit       ID = "not-conventional-commit"
	NotEmojiLog                 ID = "not-emoji-log"
	ConfigurationUnreadable     ID = "configuration-unreadable"
)

// Hook is the git hook a lint runs under. HookNone is an ad-hoc run, where
// every enabled lint applies.
type Hook int

const (
	HookNone Hook = iota
	HookPreCommit
	HookPrepareCommitMsg
	HookCommitMsg
	HookPostCommit
)

func (h Hook) String() string {
	switch h {
	case HookNone:
		return "none"
	case HookPreCommit:
		return "pre-commit"
	case HookPrepareCommitMsg:
		return "prepare-commit-msg"
	case HookCommitMsg:
		return "commit-msg"
	case HookPostCommit:
		return "post-commit"
	default:
		return "<UNKNOWN>"
	}
}

var (
	styleHooks = []Hook{HookCommitMsg, HookPostCommit}
	issueHooks = []Hook{HookCommitMsg}
)

type Lint struct {
	ID      ID
	Code    int
	Name    string
	Help    string
	Default bool
	Hooks   []Hook

	check func(l *Lint, m *commit.Message) []Problem
}

// AppliesTo reports whether the lint runs under hook.
func (l *Lint) AppliesTo(hook Hook) bool {
	if hook == HookNone {
		return true
	}
	for _, h := range l.Hooks {
		if h == hook {
			return true
		}
	}
	return false
}

// Check runs the lint against m.
func (l *Lint) Check(m *commit.Message) []Problem {
	return l.check(l, m)
}

func (l *Lint) problem(msg string, loc *commit.Location) Problem {
	return Problem{
		Lint:     l.ID,
		Code:     l.Code,
		Message:  msg,
		Help:     l.Help,
		Location: loc,
		Severity: SeverityError,
	}
}

var registry = []*Lint{
	{
		ID:      DuplicatedTrailers,
		Code:    1,
		Name:    "Duplicated Trailers",
		Default: true,
		Hooks:   styleHooks,
		Help:    "Your commit message has duplicated trailers. These are normally added accidentally when you're rebasing or amending a commit. Remove the duplicates.",
		check:   checkDuplicatedTrailers,
	},
	{
		ID:    PivotalTrackerIDMissing,
		Code:  2,
		Name:  "Pivotal Tracker Id Missing",
		Hooks: issueHooks,
		Help:  "Your commit message is missing a Pivotal Tracker Id. Add one in the form [#12345884], or [finishes #12345884] to mark the story finished.",
		check: checkPivotalTrackerIDMissing,
	},
	{
		ID:    JiraIssueKeyMissing,
		Code:  3,
		Name:  "Jira Issue Key Missing",
		Hooks: issueHooks,
		Help:  "Your commit message is missing a JIRA Issue Key. Add one anywhere in the message, for example: JRA-123.",
		check: checkJiraIssueKeyMissing,
	},
	{
		ID:    GitHubIDMissing,
		Code:  4,
		Name:  "GitHub Id Missing",
		Hooks: issueHooks,
		Help:  "Your commit message is missing a GitHub issue reference. Add one in the form #642, GH-642, or owner/repo#642.",
		check: checkGitHubIDMissing,
	},
	{
		ID:      SubjectNotSeparatedFromBody,
		Code:    5,
		Name:    "Subject Not Separated From Body",
		Default: true,
		Hooks:   styleHooks,
		Help:    "Your commit message is missing a blank line between the subject and the body. Add one after the subject line.",
		check:   checkSubjectNotSeparatedFromBody,
	},
	{
		ID:      SubjectLongerThan72,
		Code:    6,
		Name:    "Subject Longer Than 72 Characters",
		Default: true,
		Hooks:   styleHooks,
		Help:    "Your subject is longer than 72 characters. Keep it short, and move the detail into the body.",
		check:   checkSubjectLongerThan72,
	},
	{
		ID:    SubjectNotCapitalized,
		Code:  7,
		Name:  "Subject Not Capitalized",
		Hooks: styleHooks,
		Help:  "Your commit message is missing a capital letter at the start of the subject.",
		check: checkSubjectNotCapitalized,
	},
	{
		ID:      SubjectEndsWithPeriod,
		Code:    8,
		Name:    "Subject Line Ends With Period",
		Default: true,
		Hooks:   styleHooks,
		Help:    "Your commit message ends with a period. Remove it from the end of the subject.",
		check:   checkSubjectEndsWithPeriod,
	},
	{
		ID:      BodyWiderThan72,
		Code:    9,
		Name:    "Body Wider Than 72 Characters",
		Default: true,
		Hooks:   styleHooks,
		Help:    "Your commit has a body wider than 72 characters. Wrap it at 72; trailers and lines that only overflow because of a URL are fine.",
		check:   checkBodyWiderThan72,
	},
	{
		ID:    NotConventionalCommit,
		Code:  10,
		Name:  "Not Conventional Commit",
		Hooks: styleHooks,
		Help:  "Your commit message isn't in conventional style: type(scope)!: description, where type is one of " + strings.Join(conventionalTypes(), ", ") + ".",
		check: checkNotConventionalCommit,
	},
	{
		ID:    NotEmojiLog,
		Code:  11,
		Name:  "Not Emoji Log",
		Hooks: styleHooks,
		Help:  "Your commit message isn't in emoji log style. Start the subject with one of " + strings.Join(emojiLogPrefixes, ", ") + ", or a gitmoji.",
		check: checkNotEmojiLog,
	},
}

// configurationUnreadable isn't toggleable, so it isn't in the registry.
var configurationUnreadable = &Lint{
	ID:   ConfigurationUnreadable,
	Code: 12,
	Name: "Configuration Unreadable",
	Help: "The lint configuration couldn't be read, so the default lints were used. Check your git config and lint override file.",
}

var byID = func() map[ID]*Lint {
	m := make(map[ID]*Lint, len(registry))
	for _, l := range registry {
		m[l.ID] = l
	}
	return m
}()

// All returns every toggleable lint, in code order.
func All() []*Lint {
	lints := make([]*Lint, len(registry))
	copy(lints, registry)
	return lints
}

// IDs returns every toggleable lint id, sorted.
func IDs() []ID {
	ids := make([]ID, 0, len(registry))
	for _, l := range registry {
		ids = append(ids, l.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type UnknownLintError struct {
	ID string
}

func (e UnknownLintError) Error() string {
	return fmt.Sprintf("lint: unknown lint %q", e.ID)
}

// Lookup finds a toggleable lint by id.
func Lookup(id string) (*Lint, error) {
	l, ok := byID[ID(id)]
	if !ok {
		return nil, UnknownLintError{ID: id}
	}
	return l, nil
}
