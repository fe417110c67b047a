package author

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeffrom/mit/model"
	"github.com/jeffrom/mit/vcs"
)

const (
	// SessionPrefix namespaces every session key.
	SessionPrefix = "mit.author."
	// ExpiresKey holds the session expiry as seconds since the epoch.
	ExpiresKey = SessionPrefix + "expires"
)

const (
	fieldName       = "name"
	fieldEmail      = "email"
	fieldSigningKey = "signingkey"
	fieldOrder      = "order"
)

// Session is the set of authors currently pairing, persisted in a config
// store with an absolute expiry.
type Session struct {
	store vcs.ConfigStore
	clock Clock
	log   logrus.FieldLogger
}

func NewSession(store vcs.ConfigStore, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{store: store, clock: clock, log: logrus.StandardLogger()}
}

func (s *Session) WithLogger(log logrus.FieldLogger) *Session {
	s.log = log
	return s
}

func authorKey(initials, field string) string {
	return SessionPrefix + initials + "." + field
}

// SetActive replaces the session with authors, expiring ttl from now.
func (s *Session) SetActive(ctx context.Context, authors []model.Author, ttl time.Duration) (time.Time, error) {
	now, err := s.clock.Now()
	if err != nil {
		return time.Time{}, err
	}
	expires := now.Add(ttl)
	return expires, s.SetActiveUntil(ctx, authors, expires)
}

// SetActiveUntil replaces the session with authors. The previous session is
// removed first and the expiry is written last, so an interrupted write
// leaves a session that reads as empty.
func (s *Session) SetActiveUntil(ctx context.Context, authors []model.Author, expires time.Time) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}

	seen := make(map[string]bool, len(authors))
	order := 0
	for _, a := range authors {
		if seen[a.Initials] {
			continue
		}
		seen[a.Initials] = true

		kvs := [][2]string{
			{authorKey(a.Initials, fieldName), a.Name},
			{authorKey(a.Initials, fieldEmail), a.Email},
			{authorKey(a.Initials, fieldOrder), strconv.Itoa(order)},
		}
		if a.SigningKey != "" {
			kvs = append(kvs, [2]string{authorKey(a.Initials, fieldSigningKey), a.SigningKey})
		}
		for _, kv := range kvs {
			if err := s.store.Set(ctx, kv[0], kv[1]); err != nil {
				return err
			}
		}
		order++
	}

	s.log.WithFields(logrus.Fields{"authors": order, "expires": expires.Unix()}).Debug("set author session")
	return s.store.Set(ctx, ExpiresKey, strconv.FormatInt(expires.Unix(), 10))
}

// Clear removes every session key.
func (s *Session) Clear(ctx context.Context) error {
	return vcs.RemovePrefix(ctx, s.store, SessionPrefix)
}

type stored struct {
	authors []model.Author
	expires time.Time
	hasExp  bool
}

func (s *Session) read(ctx context.Context) (*stored, error) {
	entries, err := s.store.List(ctx, SessionPrefix)
	if err != nil {
		return nil, err
	}

	st := &stored{}
	byInitials := make(map[string]*model.Author)
	orders := make(map[string]int)
	for _, e := range entries {
		if e.Key == ExpiresKey {
			secs, err := strconv.ParseInt(strings.TrimSpace(e.Value), 10, 64)
			if err != nil {
				return nil, &vcs.StoreError{Op: vcs.OpGet, Key: e.Key, Err: err}
			}
			st.expires = time.Unix(secs, 0)
			st.hasExp = true
			continue
		}

		rest := strings.TrimPrefix(e.Key, SessionPrefix)
		i := strings.LastIndex(rest, ".")
		if i <= 0 {
			continue
		}
		initials, field := rest[:i], rest[i+1:]
		a, ok := byInitials[initials]
		if !ok {
			a = &model.Author{Initials: initials}
			byInitials[initials] = a
			orders[initials] = len(entries)
		}
		switch field {
		case fieldName:
			a.Name = e.Value
		case fieldEmail:
			a.Email = e.Value
		case fieldSigningKey:
			a.SigningKey = e.Value
		case fieldOrder:
			if n, err := strconv.Atoi(e.Value); err == nil {
				orders[initials] = n
			}
		}
	}

	for _, a := range byInitials {
		st.authors = append(st.authors, *a)
	}
	sort.Slice(st.authors, func(i, j int) bool {
		a, b := st.authors[i].Initials, st.authors[j].Initials
		if orders[a] != orders[b] {
			return orders[a] < orders[b]
		}
		return a < b
	})
	return st, nil
}

func initialsOf(authors []model.Author) []string {
	out := make([]string, len(authors))
	for i, a := range authors {
		out[i] = a.Initials
	}
	return out
}

// ActiveAuthorsAt returns the session's authors if now is before the expiry.
// A session without an expiry is empty.
func (s *Session) ActiveAuthorsAt(ctx context.Context, now time.Time) ([]model.Author, error) {
	st, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if !st.hasExp || !now.Before(st.expires) {
		return nil, nil
	}
	return st.authors, nil
}

func (s *Session) ActiveAt(ctx context.Context, now time.Time) ([]string, error) {
	authors, err := s.ActiveAuthorsAt(ctx, now)
	if err != nil {
		return nil, err
	}
	return initialsOf(authors), nil
}

func (s *Session) ActiveAuthors(ctx context.Context) ([]model.Author, error) {
	now, err := s.clock.Now()
	if err != nil {
		return nil, err
	}
	return s.ActiveAuthorsAt(ctx, now)
}

// Active returns the initials of the active authors, in the order they were
// set.
func (s *Session) Active(ctx context.Context) ([]string, error) {
	authors, err := s.ActiveAuthors(ctx)
	if err != nil {
		return nil, err
	}
	return initialsOf(authors), nil
}

// ActiveExpired returns the initials of a session that has expired, so
// callers can suggest setting it again. It is empty while the session is
// live.
func (s *Session) ActiveExpired(ctx context.Context) ([]string, error) {
	now, err := s.clock.Now()
	if err != nil {
		return nil, err
	}
	st, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if !st.hasExp || now.Before(st.expires) {
		return nil, nil
	}
	return initialsOf(st.authors), nil
}

// Expires returns the session expiry, if one is stored.
func (s *Session) Expires(ctx context.Context) (time.Time, bool, error) {
	st, err := s.read(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return st.expires, st.hasExp, nil
}
