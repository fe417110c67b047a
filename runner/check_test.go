package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jeffrom/mit/author"
	"github.com/jeffrom/mit/commit"
	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/lint"
	"github.com/jeffrom/mit/vcs"
)

func TestWriteProblemsText(t *testing.T) {
	raw := "Añadir caché.\r\n\r\nBody\r\n"
	problems, err := lint.EvaluateString(raw, "#", lint.Config{lint.JiraIssueKeyMissing: true}, lint.Options{})
	if err != nil {
		t.Fatal(err)
	}
	b := &bytes.Buffer{}
	if err := WriteProblems(b, config.FormatText, raw, problems); err != nil {
		t.Fatal(err)
	}
	expect := `error[jira-issue-key-missing]: Your commit message is missing a JIRA Issue Key
  = Your commit message is missing a JIRA Issue Key. Add one anywhere in the message, for example: JRA-123.

error[subject-line-ends-with-period]: Your commit message ends with a period
  --> line 1, column 13
   | Añadir caché.
   |             ^
  = Remove the period from the end of the subject.

`
	if b.String() != expect {
		t.Fatalf("expected:\n%s\ngot:\n%s", expect, b.String())
	}
}

func TestWriteProblemsEmpty(t *testing.T) {
	b := &bytes.Buffer{}
	if err := WriteProblems(b, config.FormatJSON, "Fix bug\n", nil); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Fatalf("expected no output, got %q", b.String())
	}
}

func TestLocateMultiline(t *testing.T) {
	raw := "Fix bug\nsecond line\n"
	e := reportEntry{}
	locate(&e, raw, 8, 19)
	if e.Line != 2 || e.Column != 1 || e.Source != "second line" || e.Marker != "^^^^^^^^^^^" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestExitCodeOf(t *testing.T) {
	tcs := []struct {
		err  error
		code int
	}{
		{err: nil, code: ExitOK},
		{err: LintFailure{}, code: ExitProblems},
		{err: vcs.ErrNoRepository, code: ExitConfig},
		{err: &author.UnknownAuthorError{Initials: []string{"zz"}}, code: ExitConfig},
		{err: &author.MalformedAuthorError{Initials: "bt", Reason: "missing name"}, code: ExitConfig},
		{err: &lint.MalformedOverrideError{Path: ".git-mit.toml"}, code: ExitConfig},
		{err: lint.UnknownLintError{ID: "nope"}, code: ExitConfig},
		{err: &vcs.StoreError{Op: vcs.OpSet, Key: "a.b", Err: errors.New("locked")}, code: ExitIO},
		{err: &os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, code: ExitIO},
		{err: fmt.Errorf("parse: %w", commit.ErrInvalidUTF8), code: ExitIO},
		{err: author.ErrClock, code: ExitIO},
		{err: ConfigError("bad template", errors.New("unexpected }")), code: ExitConfig},
		{err: exitErr(0, "zero", nil), code: ExitProblems},
	}
	for _, tc := range tcs {
		t.Run(fmt.Sprint(tc.err), func(t *testing.T) {
			if code := ExitCodeOf(tc.err); code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if code := ExitCodeOf(Classify(tc.err)); code != tc.code {
				t.Fatalf("classified: expected %d, got %d", tc.code, code)
			}
		})
	}
}

func TestClassifyKeepsCause(t *testing.T) {
	err := Classify(vcs.ErrNoRepository)
	if !errors.Is(err, vcs.ErrNoRepository) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
	if err.Error() != vcs.ErrNoRepository.Error() {
		t.Fatalf("expected the cause's message, got %q", err.Error())
	}
}
