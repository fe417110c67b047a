package runner

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jeffrom/mit/author"
	"github.com/jeffrom/mit/commit"
	"github.com/jeffrom/mit/lint"
	"github.com/jeffrom/mit/relate"
	"github.com/jeffrom/mit/vcs"
)

const (
	ExitOK       = 0
	ExitProblems = 1
	ExitConfig   = 2
	ExitIO       = 3
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError carries the process exit code for an error.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

func exitErr(code int, msg string, cause error) error {
	if code <= 0 {
		code = ExitProblems
	}
	return &ExitError{code: code, msg: msg, cause: cause}
}

// ConfigError marks an error as a configuration problem.
func ConfigError(msg string, cause error) error {
	return exitErr(ExitConfig, msg, cause)
}

// Classify attaches an exit code to errors coming out of the core packages.
// Errors that already carry one are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return err
	}
	return exitErr(classify(err), "", err)
}

func classify(err error) int {
	var (
		lf    LintFailure
		ferr  *author.MalformedAuthorFileError
		aerr  *author.MalformedAuthorError
		uerr  *author.UnknownAuthorError
		oerr  *lint.MalformedOverrideError
		lerr  lint.UnknownLintError
		perr  *fs.PathError
		store *vcs.StoreError
	)
	switch {
	case errors.As(err, &lf):
		return ExitProblems
	case errors.Is(err, vcs.ErrNoRepository),
		errors.As(err, &ferr),
		errors.As(err, &aerr),
		errors.As(err, &uerr),
		errors.As(err, &oerr),
		errors.As(err, &lerr),
		errors.Is(err, relate.ErrEmptyTicket):
		return ExitConfig
	case errors.As(err, &store),
		errors.As(err, &perr),
		errors.Is(err, commit.ErrInvalidUTF8),
		errors.Is(err, author.ErrClock):
		return ExitIO
	}
	return ExitConfig
}

// ExitCodeOf returns the exit code for err, ExitOK when it is nil.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return classify(err)
}
