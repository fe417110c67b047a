// Package commit parses commit messages into lines of body and comment text,
// and derives subjects, trailers and co-authors from them. Serializing an
// unmodified message reproduces its input byte for byte.
package commit

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned for messages that can't be read as text.
var ErrInvalidUTF8 = errors.New("commit: message is not valid UTF-8")

const DefaultCommentChar = "#"

// ScissorsMarker is the text following the comment character on the line git
// uses to separate the message from a diff preview.
const ScissorsMarker = "------------------------ >8 ------------------------"

// autoCommentChars are tried in order when core.commentChar is "auto".
const autoCommentChars = "#;@!$%^&|:"

type Kind int

const (
	Body Kind = iota
	Comment
)

func (k Kind) String() string {
	switch k {
	case Body:
		return "body"
	case Comment:
		return "comment"
	default:
		return "<UNKNOWN>"
	}
}

// Location is a half-open byte range into the serialized message.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Line struct {
	Kind Kind
	// Text excludes the line terminator.
	Text string
	// Newline is "\n", "\r\n", or "" for a final unterminated line.
	Newline string
	// Start is the byte offset of Text in the serialized message.
	Start int

	synthetic       bool
	borrowedNewline bool
}

func (l Line) Location() Location {
	return Location{Start: l.Start, End: l.Start + len(l.Text)}
}

func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

type Message struct {
	lines       []Line
	scissors    string
	commentChar string
}

// Parse splits raw into lines. Lines starting with commentChar are comments.
// Everything from the scissors line onward is kept verbatim and not parsed.
func Parse(raw string, commentChar string) (*Message, error) {
	if !utf8.ValidString(raw) {
		return nil, ErrInvalidUTF8
	}
	if commentChar == "" {
		commentChar = DefaultCommentChar
	}

	m := &Message{commentChar: commentChar}
	prefix := raw
	if i := findScissors(raw, commentChar); i >= 0 {
		prefix = raw[:i]
		m.scissors = raw[i:]
	}

	offset := 0
	for len(prefix) > 0 {
		text, newline := prefix, ""
		if i := strings.IndexByte(prefix, '\n'); i >= 0 {
			text, newline = prefix[:i], "\n"
			if strings.HasSuffix(text, "\r") {
				text, newline = text[:len(text)-1], "\r\n"
			}
		}
		m.lines = append(m.lines, Line{
			Kind:    m.kindOf(text),
			Text:    text,
			Newline: newline,
			Start:   offset,
		})
		n := len(text) + len(newline)
		offset += n
		prefix = prefix[n:]
	}
	return m, nil
}

// ResolveCommentChar interprets a core.commentChar setting for raw.
func ResolveCommentChar(setting, raw string) string {
	switch setting {
	case "":
		return DefaultCommentChar
	case "auto":
		return AutoCommentChar(raw)
	}
	return setting
}

// AutoCommentChar picks the first candidate character that doesn't begin any
// line of raw, as git does for core.commentChar=auto.
func AutoCommentChar(raw string) string {
	used := make(map[byte]bool)
	for _, line := range strings.Split(raw, "\n") {
		if len(line) > 0 {
			used[line[0]] = true
		}
	}
	for i := 0; i < len(autoCommentChars); i++ {
		if !used[autoCommentChars[i]] {
			return autoCommentChars[i : i+1]
		}
	}
	return DefaultCommentChar
}

func findScissors(raw, commentChar string) int {
	want := commentChar + " " + ScissorsMarker
	offset := 0
	for offset < len(raw) {
		end := strings.IndexByte(raw[offset:], '\n')
		line := raw[offset:]
		if end >= 0 {
			line = raw[offset : offset+end]
		}
		if strings.TrimSpace(line) == want {
			return offset
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return -1
}

func (m *Message) kindOf(text string) Kind {
	if strings.HasPrefix(text, m.commentChar) {
		return Comment
	}
	return Body
}

// String serializes the message.
func (m *Message) String() string {
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(l.Text)
		b.WriteString(l.Newline)
	}
	b.WriteString(m.scissors)
	return b.String()
}

func (m *Message) CommentChar() string { return m.commentChar }

// Scissors returns the verbatim text from the scissors line onward, or "".
func (m *Message) Scissors() string { return m.scissors }

func (m *Message) Lines() []Line {
	lines := make([]Line, len(m.lines))
	copy(lines, m.lines)
	return lines
}

// BodyLines returns all non-comment lines before the scissors line.
func (m *Message) BodyLines() []Line {
	var lines []Line
	for _, l := range m.lines {
		if l.Kind == Body {
			lines = append(lines, l)
		}
	}
	return lines
}

// BodyText joins the body lines with newlines.
func (m *Message) BodyText() string {
	lines := m.BodyLines()
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// SubjectLine returns the first non-blank body line.
func (m *Message) SubjectLine() (Line, bool) {
	for _, l := range m.lines {
		if l.Kind == Body && !l.IsBlank() {
			return l, true
		}
	}
	return Line{}, false
}

func (m *Message) Subject() string {
	l, _ := m.SubjectLine()
	return l.Text
}

// BodyAfterSubject returns the body lines following the subject up to the
// first blank line.
func (m *Message) BodyAfterSubject() []Line {
	var lines []Line
	found := false
	for _, l := range m.lines {
		if l.Kind != Body {
			continue
		}
		if !found {
			found = !l.IsBlank()
			continue
		}
		if l.IsBlank() {
			break
		}
		lines = append(lines, l)
	}
	return lines
}

// paragraphs groups indexes of non-blank body lines separated by blank body
// lines. Comments neither join nor separate paragraphs.
func (m *Message) paragraphs() [][]int {
	var paras [][]int
	var curr []int
	for i, l := range m.lines {
		if l.Kind != Body {
			continue
		}
		if l.IsBlank() {
			if len(curr) > 0 {
				paras = append(paras, curr)
				curr = nil
			}
			continue
		}
		curr = append(curr, i)
	}
	if len(curr) > 0 {
		paras = append(paras, curr)
	}
	return paras
}

func (m *Message) firstBodyLineBlank() bool {
	for _, l := range m.lines {
		if l.Kind == Body {
			return l.IsBlank()
		}
	}
	return false
}

func (m *Message) newline() string {
	for _, l := range m.lines {
		if l.Newline == "\r\n" {
			return "\r\n"
		}
	}
	return "\n"
}

func (m *Message) reindex() {
	offset := 0
	for i := range m.lines {
		m.lines[i].Start = offset
		offset += len(m.lines[i].Text) + len(m.lines[i].Newline)
	}
}

// insert places lines at index i. The final inserted line inherits the
// terminator of the line it follows, so an unterminated message stays
// unterminated.
func (m *Message) insert(i int, lines ...Line) {
	nl := m.newline()
	for j := range lines {
		lines[j].Newline = nl
	}
	if i > 0 && m.lines[i-1].Newline == "" {
		m.lines[i-1].Newline = nl
		m.lines[i-1].borrowedNewline = true
		lines[len(lines)-1].Newline = ""
	}

	next := make([]Line, 0, len(m.lines)+len(lines))
	next = append(next, m.lines[:i]...)
	next = append(next, lines...)
	next = append(next, m.lines[i:]...)
	m.lines = next
	m.reindex()
}

// remove drops the lines at the given indexes and restores any terminator
// borrowed by insert.
func (m *Message) remove(drop map[int]bool) {
	next := make([]Line, 0, len(m.lines))
	for i, l := range m.lines {
		if !drop[i] {
			next = append(next, l)
		}
	}
	if n := len(next); n > 0 && next[n-1].borrowedNewline {
		next[n-1].Newline = ""
		next[n-1].borrowedNewline = false
	}
	m.lines = next
	m.reindex()
}
