package commit

import (
	"regexp"
	"strings"
)

const (
	CoAuthoredBy = "Co-authored-by"
	SignedOffBy  = "Signed-off-by"
	RelatesTo    = "Relates-to"
)

var trailerRE = regexp.MustCompile(`^([A-Za-z-]+): (.+)$`)

type Trailer struct {
	Token string
	Value string
	// Line is the index of the trailer in Message.Lines.
	Line     int
	Location Location
}

func (t Trailer) String() string {
	return t.Token + ": " + t.Value
}

// Is reports whether the trailer has the given token, ignoring case as git
// does.
func (t Trailer) Is(token string) bool {
	return strings.EqualFold(t.Token, token)
}

func parseTrailer(text string) (token, value string, ok bool) {
	m := trailerRE.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// trailerParagraph returns the line indexes of the final paragraph if every
// line in it is a trailer. The subject paragraph can't hold trailers, unless
// the message deliberately starts with a blank line, as generated templates
// do.
func (m *Message) trailerParagraph() ([]int, bool) {
	paras := m.paragraphs()
	if len(paras) == 0 {
		return nil, false
	}
	if len(paras) == 1 && !m.firstBodyLineBlank() {
		return nil, false
	}
	last := paras[len(paras)-1]
	for _, i := range last {
		if _, _, ok := parseTrailer(m.lines[i].Text); !ok {
			return nil, false
		}
	}
	return last, true
}

// Trailers returns the trailers of the final paragraph, in order.
func (m *Message) Trailers() []Trailer {
	para, ok := m.trailerParagraph()
	if !ok {
		return nil
	}
	trailers := make([]Trailer, 0, len(para))
	for _, i := range para {
		token, value, _ := parseTrailer(m.lines[i].Text)
		trailers = append(trailers, Trailer{
			Token:    token,
			Value:    value,
			Line:     i,
			Location: m.lines[i].Location(),
		})
	}
	return trailers
}

// TrailersFor returns the trailers with the given token.
func (m *Message) TrailersFor(token string) []Trailer {
	var res []Trailer
	for _, t := range m.Trailers() {
		if t.Is(token) {
			res = append(res, t)
		}
	}
	return res
}

// HasTrailer reports whether an identical trailer already exists.
func (m *Message) HasTrailer(token, value string) bool {
	for _, t := range m.TrailersFor(token) {
		if t.Value == value {
			return true
		}
	}
	return false
}

// AddTrailer appends a trailer to the trailer paragraph, creating the
// paragraph, separated by a blank line, when there isn't one.
func (m *Message) AddTrailer(token, value string) {
	line := Line{Kind: Body, Text: token + ": " + value}
	if para, ok := m.trailerParagraph(); ok {
		m.insert(para[len(para)-1]+1, line)
		return
	}

	last := -1
	for i, l := range m.lines {
		if l.Kind == Body && !l.IsBlank() {
			last = i
		}
	}
	sep := Line{Kind: Body, synthetic: true}
	if last >= 0 {
		m.insert(last+1, sep, line)
		return
	}
	// no content yet: leave an empty subject line for the author to fill in.
	m.insert(0, sep, sep, line)
}

// RemoveTrailers removes every trailer with the given token and returns how
// many were removed.
func (m *Message) RemoveTrailers(token string) int {
	return m.removeTrailers(func(t Trailer) bool { return t.Is(token) })
}

// RemoveTrailer removes trailers matching both token and value.
func (m *Message) RemoveTrailer(token, value string) int {
	return m.removeTrailers(func(t Trailer) bool { return t.Is(token) && t.Value == value })
}

func (m *Message) removeTrailers(match func(Trailer) bool) int {
	para, ok := m.trailerParagraph()
	if !ok {
		return 0
	}
	drop := make(map[int]bool)
	for _, t := range m.Trailers() {
		if match(t) {
			drop[t.Line] = true
		}
	}
	n := len(drop)
	if n == 0 {
		return 0
	}
	if n == len(para) {
		// the paragraph is gone, so are the separators added for it.
		for i := para[0] - 1; i >= 0 && m.lines[i].synthetic; i-- {
			drop[i] = true
		}
	}
	m.remove(drop)
	return n
}
