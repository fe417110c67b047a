package commit

import (
	"regexp"
	"strings"
)

var identityRE = regexp.MustCompile(`^([^<>]*[^<>\s])\s+<([^<>\s]+)>$`)

// CoAuthor is a parsed Co-authored-by trailer. Malformed values are kept with
// Valid set to false so linting can report them.
type CoAuthor struct {
	Name    string
	Email   string
	Valid   bool
	Trailer Trailer
}

// ParseIdentity splits "Name <email>".
func ParseIdentity(s string) (name, email string, ok bool) {
	m := identityRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func (m *Message) CoAuthors() []CoAuthor {
	var res []CoAuthor
	for _, t := range m.TrailersFor(CoAuthoredBy) {
		name, email, ok := ParseIdentity(t.Value)
		res = append(res, CoAuthor{Name: name, Email: email, Valid: ok, Trailer: t})
	}
	return res
}
