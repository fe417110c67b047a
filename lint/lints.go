package lint

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/jeffrom/mit/commit"
)

// MaxWidth is the widest a subject or body line may be, in grapheme clusters.
const MaxWidth = 72

// Width counts user-perceived characters, so combining marks and emoji
// sequences count once.
func Width(s string) int {
	return uniseg.GraphemeClusterCount(norm.NFC.String(s))
}

var duplicateCheckedTokens = []string{commit.CoAuthoredBy, commit.SignedOffBy, commit.RelatesTo}

func checkDuplicatedTrailers(l *Lint, m *commit.Message) []Problem {
	var problems []Problem
	seen := make(map[string]bool)
	for _, t := range m.Trailers() {
		checked := false
		for _, tok := range duplicateCheckedTokens {
			if t.Is(tok) {
				checked = true
				break
			}
		}
		if !checked {
			continue
		}
		key := strings.ToLower(t.Token) + "\x00" + strings.TrimSpace(t.Value)
		if !seen[key] {
			seen[key] = true
			continue
		}
		loc := t.Location
		p := l.problem(fmt.Sprintf("Your commit message has a duplicated %s trailer", t.Token), &loc)
		p.Suggestion = fmt.Sprintf("Remove the duplicate %q line.", t.String())
		problems = append(problems, p)
	}
	return problems
}

var pivotalRE = regexp.MustCompile(`(?i)\[(?:(?:(?:finish|fix)(?:ed|es)?|complete[ds]?|deliver(?:s|ed)?)\s+)?#[0-9]+(?:[,\s]+#[0-9]+)*\]`)

func checkPivotalTrackerIDMissing(l *Lint, m *commit.Message) []Problem {
	if pivotalRE.MatchString(m.BodyText()) {
		return nil
	}
	return []Problem{l.problem("Your commit message is missing a Pivotal Tracker Id", nil)}
}

var jiraRE = regexp.MustCompile(`[A-Z][A-Z0-9]+-[0-9]+`)

func checkJiraIssueKeyMissing(l *Lint, m *commit.Message) []Problem {
	if jiraRE.MatchString(m.BodyText()) {
		return nil
	}
	return []Problem{l.problem("Your commit message is missing a JIRA Issue Key", nil)}
}

var githubRE = regexp.MustCompile(`#[0-9]+|\bGH-[0-9]+\b`)

func checkGitHubIDMissing(l *Lint, m *commit.Message) []Problem {
	if githubRE.MatchString(m.BodyText()) {
		return nil
	}
	return []Problem{l.problem("Your commit message is missing a GitHub issue reference", nil)}
}

func checkSubjectNotSeparatedFromBody(l *Lint, m *commit.Message) []Problem {
	lines := m.BodyAfterSubject()
	if len(lines) == 0 {
		return nil
	}
	loc := lines[0].Location()
	p := l.problem("Your commit message is missing a blank line between the subject and the body", &loc)
	p.Suggestion = "Add a blank line after the subject."
	return []Problem{p}
}

func checkSubjectLongerThan72(l *Lint, m *commit.Message) []Problem {
	subject, ok := m.SubjectLine()
	if !ok {
		return nil
	}
	width := Width(subject.Text)
	if width <= MaxWidth {
		return nil
	}
	loc := subject.Location()
	return []Problem{l.problem(fmt.Sprintf("Your subject is %d characters long, the limit is %d", width, MaxWidth), &loc)}
}

func checkSubjectNotCapitalized(l *Lint, m *commit.Message) []Problem {
	subject, ok := m.SubjectLine()
	if !ok {
		return nil
	}
	text := strings.TrimLeftFunc(subject.Text, unicode.IsSpace)
	r, size := utf8.DecodeRuneInString(text)
	if !unicode.IsLower(r) {
		return nil
	}
	start := subject.Start + len(subject.Text) - len(text)
	p := l.problem("Your commit message is missing a capital letter at the start of the subject", &commit.Location{Start: start, End: start + size})
	p.Suggestion = fmt.Sprintf("Capitalize %q.", string(r))
	return []Problem{p}
}

func checkSubjectEndsWithPeriod(l *Lint, m *commit.Message) []Problem {
	subject, ok := m.SubjectLine()
	if !ok {
		return nil
	}
	text := strings.TrimRightFunc(subject.Text, unicode.IsSpace)
	if !strings.HasSuffix(text, ".") {
		return nil
	}
	end := subject.Start + len(text)
	p := l.problem("Your commit message ends with a period", &commit.Location{Start: end - 1, End: end})
	p.Suggestion = "Remove the period from the end of the subject."
	return []Problem{p}
}

func checkBodyWiderThan72(l *Lint, m *commit.Message) []Problem {
	subject, hasSubject := m.SubjectLine()
	trailerLines := make(map[int]bool)
	for _, t := range m.Trailers() {
		trailerLines[t.Location.Start] = true
	}

	var problems []Problem
	for _, line := range m.BodyLines() {
		if hasSubject && line.Start == subject.Start {
			continue
		}
		if trailerLines[line.Start] {
			continue
		}
		width := Width(line.Text)
		if width <= MaxWidth || overflowsOnlyByURL(line.Text) {
			continue
		}
		loc := line.Location()
		problems = append(problems, l.problem(fmt.Sprintf("Your commit has a body line %d characters wide, the limit is %d", width, MaxWidth), &loc))
	}
	return problems
}

// overflowsOnlyByURL reports whether a line would fit if its URLs were
// removed, as with reference lists like "[1]: https://...".
func overflowsOnlyByURL(text string) bool {
	fields := strings.Fields(text)
	var rest []string
	found := false
	for _, f := range fields {
		if isURL(f) {
			found = true
			continue
		}
		rest = append(rest, f)
	}
	return found && Width(strings.Join(rest, " ")) <= MaxWidth
}

func isURL(s string) bool {
	s = strings.Trim(s, "<>()")
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

var conventionalTypeSet = map[string]bool{
	"build":       true,
	"chore":       true,
	"ci":          true,
	"cont":        true,
	"docs":        true,
	"feat":        true,
	"fix":         true,
	"improvement": true,
	"perf":        true,
	"refactor":    true,
	"revert":      true,
	"style":       true,
	"test":        true,
}

func conventionalTypes() []string {
	types := make([]string, 0, len(conventionalTypeSet))
	for t := range conventionalTypeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var conventionalRE = regexp.MustCompile(`^(?P<type>[A-Za-z0-9]+)(?P<scope>\([^\)]+\))?!?: (?P<description>\S.*)$`)

func checkNotConventionalCommit(l *Lint, m *commit.Message) []Problem {
	subject, ok := m.SubjectLine()
	if ok {
		if match := conventionalRE.FindStringSubmatch(subject.Text); match != nil {
			if conventionalTypeSet[match[conventionalRE.SubexpIndex("type")]] {
				return nil
			}
		}
	}
	var loc *commit.Location
	if ok {
		sl := subject.Location()
		loc = &sl
	}
	return []Problem{l.problem("Your commit message isn't in conventional style", loc)}
}

var emojiLogPrefixes = []string{
	"📦 NEW:",
	"👌 IMPROVE:",
	"🐛 FIX:",
	"📖 DOC:",
	"🚀 RELEASE:",
	"🤖 TEST:",
	"‼️ BREAKING:",
}

// gitmojis maps gitmoji shortcodes to their emoji.
var gitmojis = map[string]string{
	":art:":                   "🎨",
	":zap:":                   "⚡️",
	":fire:":                  "🔥",
	":bug:":                   "🐛",
	":ambulance:":             "🚑️",
	":sparkles:":              "✨",
	":memo:":                  "📝",
	":rocket:":                "🚀",
	":lipstick:":              "💄",
	":tada:":                  "🎉",
	":white_check_mark:":      "✅",
	":lock:":                  "🔒️",
	":bookmark:":              "🔖",
	":rotating_light:":        "🚨",
	":construction:":          "🚧",
	":green_heart:":           "💚",
	":arrow_down:":            "⬇️",
	":arrow_up:":              "⬆️",
	":recycle:":               "♻️",
	":heavy_plus_sign:":       "➕",
	":heavy_minus_sign:":      "➖",
	":wrench:":                "🔧",
	":globe_with_meridians:":  "🌐",
	":pencil2:":               "✏️",
	":rewind:":                "⏪️",
	":truck:":                 "🚚",
	":boom:":                  "💥",
	":wheelchair:":            "♿️",
	":bulb:":                  "💡",
	":card_file_box:":         "🗃️",
	":loud_sound:":            "🔊",
	":mute:":                  "🔇",
	":building_construction:": "🏗️",
	":adhesive_bandage:":      "🩹",
	":coffin:":                "⚰️",
	":test_tube:":             "🧪",
}

var gitmojiShortcodeRE = regexp.MustCompile(`^:[a-z0-9_+-]+:`)

func isGitmoji(subject string) bool {
	if code := gitmojiShortcodeRE.FindString(subject); code != "" {
		_, ok := gitmojis[code]
		return ok
	}
	for _, emoji := range gitmojis {
		// emoji may be written with or without the variation selector.
		if strings.HasPrefix(subject, emoji) || strings.HasPrefix(subject, strings.TrimSuffix(emoji, "\ufe0f")) {
			return true
		}
	}
	return false
}

func checkNotEmojiLog(l *Lint, m *commit.Message) []Problem {
	subject, ok := m.SubjectLine()
	if ok {
		text := strings.TrimSpace(subject.Text)
		for _, prefix := range emojiLogPrefixes {
			if strings.HasPrefix(text, prefix+" ") {
				return nil
			}
		}
		if isGitmoji(text) {
			return nil
		}
	}
	var loc *commit.Location
	if ok {
		sl := subject.Location()
		loc = &sl
	}
	return []Problem{l.problem("Your commit message isn't in emoji log style", loc)}
}
