package runner

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/lint"
	"github.com/jeffrom/mit/vcs/gitcli"
)

func TestLintMessageGlobalGitConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("-short")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	repo := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q", repo},
		{"config", "--global", "core.commentChar", ";"},
		{"config", "--global", "mit.lint.jira-issue-key-missing", "true"},
	} {
		if out, err := exec.Command("git", args...).CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v: %s", args, err, out)
		}
	}

	cfg := config.NewWithTerminalIO(nil, &config.TerminalIO{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	rnr, err := New(cfg, gitcli.New(cfg, repo))
	if err != nil {
		t.Fatal(err)
	}
	rnr.WithDir(repo)

	raw := "Fix the parser\n; Please enter the commit message for your changes. Lines starting with ';' will be ignored, and an empty message aborts the commit.\n"
	problems, err := rnr.LintMessage(context.Background(), raw, lint.HookCommitMsg)
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 || problems[0].Lint != lint.JiraIssueKeyMissing {
		t.Fatalf("expected only %s, got %+v", lint.JiraIssueKeyMissing, problems)
	}
}
