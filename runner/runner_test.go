package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeffrom/mit/author"
	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/vcs"
)

const testAuthors = `
[bt]
name = "Bo Tao"
email = "bt@example.com"

[se]
name = "Sarah Example"
email = "se@example.com"
signingkey = "0A46826A"
`

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testRunner struct {
	*Runner
	store  *vcs.Memory
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newTestRunner(t *testing.T, overrides *config.Config) *testRunner {
	t.Helper()
	dir := t.TempDir()
	authorsFile := filepath.Join(dir, "mit.toml")
	if err := os.WriteFile(authorsFile, []byte(testAuthors), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if overrides == nil {
		overrides = &config.Config{}
	}
	if overrides.AuthorsFile == "" {
		overrides.AuthorsFile = authorsFile
	}
	cfg := config.NewWithTerminalIO(overrides, &config.TerminalIO{Stdin: &bytes.Buffer{}, Stdout: stdout, Stderr: stderr})

	store := vcs.NewMemory()
	rnr, err := New(cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	rnr.WithClock(author.FixedClock{T: testNow}).WithDir(dir)
	return &testRunner{Runner: rnr, store: store, stdout: stdout, stderr: stderr, dir: dir}
}

func (tr *testRunner) get(t *testing.T, key string) string {
	t.Helper()
	v, _, err := tr.store.Get(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCommitMsg(t *testing.T) {
	ctx := context.Background()
	tcs := []struct {
		name     string
		raw      string
		lints    map[string]string
		format   string
		code     int
		contains []string
	}{
		{name: "clean", raw: "Fix bug\n"},
		{
			name:     "period",
			raw:      "Fix bug.\n",
			code:     ExitProblems,
			contains: []string{"error[subject-line-ends-with-period]", "line 1, column 8", "   |        ^"},
		},
		{
			name:     "jira",
			raw:      "Fix bug\n",
			lints:    map[string]string{"mit.lint.jira-issue-key-missing": "true"},
			code:     ExitProblems,
			contains: []string{"error[jira-issue-key-missing]", "JRA-123"},
		},
		{
			name:     "json",
			raw:      "Fix bug.\n",
			format:   config.FormatJSON,
			code:     ExitProblems,
			contains: []string{`{"lint":"subject-line-ends-with-period","code":8,`, `"location":{"start":7,"end":8}`},
		},
		{name: "invalid-utf8", raw: "Fix \xff\n", code: ExitIO},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestRunner(t, &config.Config{Format: tc.format})
			tr.store.SetValues(tc.lints)

			err := tr.CommitMsg(ctx, strings.NewReader(tc.raw))
			if code := ExitCodeOf(err); code != tc.code {
				t.Fatalf("expected exit code %d, got %d (%v)", tc.code, code, err)
			}
			if tc.code == ExitProblems && !errors.Is(err, LintFailure{}) {
				t.Fatalf("expected LintFailure, got %v", err)
			}
			for _, s := range tc.contains {
				if !strings.Contains(tr.stderr.String(), s) {
					t.Errorf("expected stderr to contain %q, got:\n%s", s, tr.stderr.String())
				}
			}
		})
	}
}

func TestCommitMsgUnreadableConfig(t *testing.T) {
	tr := newTestRunner(t, nil)
	tr.store.FailReads(errors.New("locked"))

	err := tr.CommitMsg(context.Background(), strings.NewReader("Fix bug\n"))
	if err != nil {
		t.Fatalf("warnings should not fail the commit: %v", err)
	}
	if !strings.Contains(tr.stderr.String(), "warning[configuration-unreadable]") {
		t.Fatalf("expected a configuration warning, got:\n%s", tr.stderr.String())
	}
}

func TestCommitMsgOverrideFile(t *testing.T) {
	tr := newTestRunner(t, nil)
	tr.store.SetValues(map[string]string{"mit.lint.jira-issue-key-missing": "true"})
	override := "[lints.subject-line-ends-with-period]\nenabled = false\n"
	if err := os.WriteFile(filepath.Join(tr.dir, ".git-mit.toml"), []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	err := tr.CommitMsg(context.Background(), strings.NewReader("Fix bug.\n"))
	lf := LintFailure{}
	if !errors.As(err, &lf) {
		t.Fatalf("expected LintFailure, got %v", err)
	}
	if len(lf.Problems) != 1 || lf.Problems[0].Lint != "jira-issue-key-missing" {
		t.Fatalf("expected only the jira problem, got %+v", lf.Problems)
	}
}

func TestCommitMsgCommentChar(t *testing.T) {
	tr := newTestRunner(t, nil)
	tr.store.SetValues(map[string]string{"core.commentchar": ";"})

	raw := "Fix bug\n\n; " + strings.Repeat("long ", 20) + "\n"
	if err := tr.CommitMsg(context.Background(), strings.NewReader(raw)); err != nil {
		t.Fatalf("comment lines should be ignored: %v", err)
	}
}

func TestSetAuthors(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)

	authors, err := tr.SetAuthors(ctx, []string{"se", "bt"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 2 || authors[0].Initials != "se" {
		t.Fatalf("unexpected authors: %+v", authors)
	}
	expect := map[string]string{
		"user.name":                "Sarah Example",
		"user.email":               "se@example.com",
		"user.signingkey":          "0A46826A",
		"mit.author.se.order":      "0",
		"mit.author.bt.order":      "1",
		"mit.author.bt.email":      "bt@example.com",
		"mit.author.expires":       "1709298000",
		"mit.author.se.signingkey": "0A46826A",
	}
	for k, v := range expect {
		if got := tr.get(t, k); got != v {
			t.Errorf("%s: expected %q, got %q", k, v, got)
		}
	}
	if !strings.Contains(tr.stdout.String(), "Sarah Example <se@example.com>, Bo Tao <bt@example.com>") {
		t.Errorf("unexpected output: %q", tr.stdout.String())
	}

	if _, err := tr.SetAuthors(ctx, []string{"bt"}, 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := tr.get(t, "mit.author.expires"); got != "1709294700" {
		t.Errorf("expected a five minute session, got expiry %s", got)
	}
	if got := tr.get(t, "mit.author.se.name"); got != "" {
		t.Errorf("expected previous session cleared, got %q", got)
	}
	if got := tr.get(t, "user.signingkey"); got != "" {
		t.Errorf("expected signing key removed, got %q", got)
	}
}

func TestSetAuthorsErrors(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)

	_, err := tr.SetAuthors(ctx, []string{"bt", "zz"}, 0)
	var uerr *author.UnknownAuthorError
	if !errors.As(err, &uerr) || ExitCodeOf(err) != ExitConfig {
		t.Fatalf("expected unknown author config error, got %v", err)
	}
	if tr.store.Len() != 0 {
		t.Fatal("nothing should be written for unknown authors")
	}

	_, err = tr.SetAuthors(ctx, nil, 0)
	if ExitCodeOf(err) != ExitConfig || !strings.Contains(err.Error(), "bt, se") {
		t.Fatalf("expected available initials in error, got %v", err)
	}

	tr.store.FailWrites(errors.New("read-only"))
	_, err = tr.SetAuthors(ctx, []string{"bt"}, 0)
	if !errors.Is(err, vcs.ErrWriteFailed) || ExitCodeOf(err) != ExitIO {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func writeMessage(t *testing.T, dir, raw string) string {
	t.Helper()
	p := filepath.Join(dir, "COMMIT_EDITMSG")
	if err := os.WriteFile(p, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func readMessage(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestPrepareCommitMsg(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if _, err := tr.SetAuthors(ctx, []string{"bt", "se"}, 0); err != nil {
		t.Fatal(err)
	}
	if err := tr.Relate(ctx, "JIRA-42"); err != nil {
		t.Fatal(err)
	}

	p := writeMessage(t, tr.dir, "\n# Please enter the commit message\n")
	if err := tr.PrepareCommitMsg(ctx, p, "message"); err != nil {
		t.Fatal(err)
	}
	expect := "\n\nCo-authored-by: Sarah Example <se@example.com>\nRelates-to: JIRA-42\n\n# Please enter the commit message\n"
	if got := readMessage(t, p); got != expect {
		t.Fatalf("expected:\n%q\ngot:\n%q", expect, got)
	}

	// running again doesn't duplicate trailers.
	if err := tr.PrepareCommitMsg(ctx, p, "message"); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, p); got != expect {
		t.Fatalf("expected no change, got:\n%q", got)
	}

	reused := writeMessage(t, tr.dir, "Fix bug\n")
	if err := tr.PrepareCommitMsg(ctx, reused, "commit"); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, reused); got != "Fix bug\n" {
		t.Fatalf("reused messages should not change, got %q", got)
	}
}

func TestPrepareCommitMsgCreditedCoAuthor(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if _, err := tr.SetAuthors(ctx, []string{"bt", "se"}, 0); err != nil {
		t.Fatal(err)
	}

	raw := "Fix bug\n\nCo-authored-by: S. Example <SE@example.com>\n"
	p := writeMessage(t, tr.dir, raw)
	if err := tr.PrepareCommitMsg(ctx, p, "message"); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, p); got != raw {
		t.Fatalf("expected no change, got:\n%q", got)
	}
}

func TestPrepareCommitMsgRelateTemplate(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if err := os.WriteFile(filepath.Join(tr.dir, ".git-mit.toml"), []byte("[relate]\ntemplate = \"[#{{ .Ticket }}]\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := tr.Relate(ctx, "12345884"); err != nil {
		t.Fatal(err)
	}

	p := writeMessage(t, tr.dir, "Fix bug\n")
	if err := tr.PrepareCommitMsg(ctx, p, ""); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, p); got != "Fix bug\n\nRelates-to: [#12345884]\n" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestPrepareCommitMsgExpiredSession(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if _, err := tr.SetAuthors(ctx, []string{"bt", "se"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	tr.WithClock(author.FixedClock{T: testNow.Add(time.Hour)})

	p := writeMessage(t, tr.dir, "Fix bug\n")
	if err := tr.PrepareCommitMsg(ctx, p, ""); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, p); got != "Fix bug\n" {
		t.Fatalf("expired authors should not be added, got %q", got)
	}
}

func TestPrepareCommitMsgDryRun(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, &config.Config{Dryrun: true})
	if err := tr.Relate(ctx, "JIRA-42"); err != nil {
		t.Fatal(err)
	}
	p := writeMessage(t, tr.dir, "Fix bug\n")
	if err := tr.PrepareCommitMsg(ctx, p, ""); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, p); got != "Fix bug\n" {
		t.Fatalf("dry run should not write, got %q", got)
	}
	if !strings.Contains(tr.stdout.String(), "Relates-to: JIRA-42") {
		t.Fatalf("expected message on stdout, got %q", tr.stdout.String())
	}
}

func TestPreCommit(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if err := tr.PreCommit(ctx); err != nil {
		t.Fatalf("no session should pass: %v", err)
	}

	if _, err := tr.SetAuthors(ctx, []string{"bt", "se"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := tr.PreCommit(ctx); err != nil {
		t.Fatalf("live session should pass: %v", err)
	}

	tr.WithClock(author.FixedClock{T: testNow.Add(time.Hour)})
	err := tr.PreCommit(ctx)
	if ExitCodeOf(err) != ExitProblems {
		t.Fatalf("expected expired session to fail, got %v", err)
	}
	if !strings.Contains(tr.stderr.String(), "mit author-set bt se") {
		t.Fatalf("expected a hint, got %q", tr.stderr.String())
	}
}

func TestPreCommitVerbose(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, &config.Config{Verbose: true})
	if _, err := tr.SetAuthors(ctx, []string{"bt"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := tr.PreCommit(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tr.stderr.String(), "expires=\"2024-03-01T12:01:00Z\"") && !strings.Contains(tr.stderr.String(), "expires=2024-03-01T12:01:00Z") {
		t.Fatalf("expected session expiry in debug output, got %q", tr.stderr.String())
	}
}

func TestPostCommit(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if err := tr.Relate(ctx, "JIRA-42"); err != nil {
		t.Fatal(err)
	}

	if err := tr.PostCommit(ctx, strings.NewReader("Fix bug.\n")); err != nil {
		t.Fatalf("post-commit should not fail on lint problems: %v", err)
	}
	if got := tr.get(t, "mit.relate.ticket-number"); got != "" {
		t.Fatalf("expected relation cleared, got %q", got)
	}
	if !strings.Contains(tr.stderr.String(), "warning[subject-line-ends-with-period]") {
		t.Fatalf("expected a warning, got %q", tr.stderr.String())
	}

	if err := tr.PostCommit(ctx, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRelate(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)

	if err := tr.Relate(ctx, " "); ExitCodeOf(err) != ExitConfig {
		t.Fatalf("expected config error for empty ticket, got %v", err)
	}
	if err := tr.Relate(ctx, "JIRA-42"); err != nil {
		t.Fatal(err)
	}
	tr.stdout.Reset()
	if err := tr.CurrentRelation(ctx); err != nil {
		t.Fatal(err)
	}
	// no trailing newline when stdout isn't a terminal.
	if got := tr.stdout.String(); got != "JIRA-42" {
		t.Fatalf("expected JIRA-42, got %q", got)
	}
	if err := tr.ClearRelation(ctx); err != nil {
		t.Fatal(err)
	}
	if tr.store.Len() != 0 {
		t.Fatal("expected relation removed")
	}
}

func TestLintConfig(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, &config.Config{Format: config.FormatJSON})

	if err := tr.SetLint(ctx, "jira-issue-key-missing", true); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetLint(ctx, "duplicated-trailers", false); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetLint(ctx, "nope", true); ExitCodeOf(err) != ExitConfig {
		t.Fatalf("expected config error for unknown lint, got %v", err)
	}

	if err := tr.ListLints(ctx, false); err != nil {
		t.Fatal(err)
	}
	var enabled []string
	dec := json.NewDecoder(tr.stdout)
	for dec.More() {
		var s lintStatus
		if err := dec.Decode(&s); err != nil {
			t.Fatal(err)
		}
		enabled = append(enabled, string(s.Lint))
	}
	expect := "jira-issue-key-missing,subject-not-separated-from-body,subject-longer-than-72-characters,subject-line-ends-with-period,body-wider-than-72-characters"
	if got := strings.Join(enabled, ","); got != expect {
		t.Fatalf("expected %s, got %s", expect, got)
	}

	tr.stdout.Reset()
	if err := tr.ListLints(ctx, true); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(tr.stdout.String(), "\n"); n != 11 {
		t.Fatalf("expected 11 lints, got %d", n)
	}
}

func TestSetLintOverridden(t *testing.T) {
	ctx := context.Background()
	tr := newTestRunner(t, nil)
	if err := os.WriteFile(filepath.Join(tr.dir, ".git-mit.toml"), []byte("[lints.jira-issue-key-missing]\nenabled = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetLint(ctx, "jira-issue-key-missing", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tr.stderr.String(), "overridden by") {
		t.Fatalf("expected override warning, got %q", tr.stderr.String())
	}
}
