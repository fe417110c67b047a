package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/pflag"

	"github.com/jeffrom/mit/config"
	"github.com/jeffrom/mit/runner"
	"github.com/jeffrom/mit/vcs"
	"github.com/jeffrom/mit/vcs/gitcli"
)

var (
	// overridden by go build -X
	Version string
)

func main() {
	if err := run(os.Args, &config.DefaultTermIO); err != nil {
		// lint problems have already been reported.
		if !errors.Is(err, runner.LintFailure{}) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(runner.ExitCodeOf(err))
	}
}

func run(rawArgs []string, termio *config.TerminalIO) error {
	env, err := config.FromEnv()
	if err != nil {
		return runner.ConfigError("", err)
	}
	cfg := config.NewWithTerminalIO(env, termio)

	var help bool
	var version bool
	flags := pflag.NewFlagSet("mit", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(cfg.Term.Stderr)
	flags.BoolVarP(&help, "help", "h", false, "show help")
	flags.BoolVarP(&version, "version", "V", false, "print version and exit")
	flags.BoolVarP(&cfg.Dryrun, "dry-run", "n", false, "don't write any configuration or files")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "print additional debugging info")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "print as little as necessary")
	flags.StringVar(&cfg.Format, "format", cfg.Format, "problem output `format` (text or json)")
	flags.StringVar(&cfg.Scope, "scope", cfg.Scope, "git config `scope` to use (auto, local, or global)")
	flags.StringVar(&cfg.AuthorsFile, "authors-file", cfg.AuthorsFile, "author database `file`")

	if err := flags.Parse(rawArgs[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return runner.ConfigError("", err)
	}
	args := flags.Args()

	if help {
		usage(cfg, flags)
		return nil
	}
	if version {
		cfg.Printf("%s", Version)
		return nil
	}
	if len(args) == 0 {
		usage(cfg, flags)
		return runner.ConfigError("no command given", nil)
	}
	if err := cfg.Validate(); err != nil {
		return runner.ConfigError("", err)
	}
	cfg.Debugf("authors file: %s, scope: %s, dry run: %t", cfg.AuthorsFile, cfg.Scope, cfg.Dryrun)
	// done setting up config

	cmd, args := args[0], args[1:]
	if cmd == "config" {
		return configCmd(cfg, args)
	}

	ctx := context.Background()
	wd, err := os.Getwd()
	if err != nil {
		return runner.Classify(err)
	}
	git := gitcli.New(cfg, wd)
	var store vcs.ConfigStore = git
	if cfg.Dryrun {
		snap, err := git.Snapshot(ctx)
		if err != nil {
			return runner.Classify(err)
		}
		cfg.Debugf("dry run: copied %d config entries into memory", snap.Len())
		store = snap
	}

	rnr, err := runner.New(cfg, store)
	if err != nil {
		return runner.Classify(err)
	}

	switch cmd {
	case "pre-commit":
		return rnr.PreCommit(ctx)
	case "commit-msg":
		if len(args) > 0 {
			return rnr.CommitMsgFile(ctx, args[0])
		}
		if cfg.Term.StdinIsPipe() {
			return rnr.CommitMsg(ctx, cfg.Term.Stdin)
		}
		return runner.ConfigError("commit-msg needs a message file, or a message on stdin", nil)
	case "prepare-commit-msg":
		if len(args) == 0 {
			return runner.ConfigError("prepare-commit-msg needs a message file", nil)
		}
		var source string
		if len(args) > 1 {
			source = args[1]
		}
		return rnr.PrepareCommitMsg(ctx, args[0], source)
	case "post-commit":
		if len(args) == 0 {
			return rnr.PostCommit(ctx, nil)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return runner.Classify(err)
		}
		defer f.Close()
		return rnr.PostCommit(ctx, f)
	case "author-set":
		return authorSetCmd(ctx, cfg, rnr, args)
	case "relate-set":
		return relateSetCmd(ctx, cfg, rnr, args)
	case "lint-config":
		return lintConfigCmd(ctx, rnr, args)
	}
	usage(cfg, flags)
	return runner.ConfigError(fmt.Sprintf("unknown command %q", cmd), nil)
}

func subcommandFlags(cfg config.Config, name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(cfg.Term.Stderr)
	return flags
}

func authorSetCmd(ctx context.Context, cfg config.Config, rnr *runner.Runner, args []string) error {
	var timeout int
	flags := subcommandFlags(cfg, "author-set")
	flags.IntVarP(&timeout, "timeout", "t", cfg.AuthorsTimeout, "session length in `minutes`")
	if err := flags.Parse(args); err != nil {
		return runner.ConfigError("", err)
	}
	if timeout <= 0 {
		return runner.ConfigError(fmt.Sprintf("timeout must be positive, got %d", timeout), nil)
	}
	_, err := rnr.SetAuthors(ctx, flags.Args(), time.Duration(timeout)*time.Minute)
	return err
}

func relateSetCmd(ctx context.Context, cfg config.Config, rnr *runner.Runner, args []string) error {
	var clearRel bool
	flags := subcommandFlags(cfg, "relate-set")
	flags.BoolVar(&clearRel, "clear", false, "forget the current relation")
	if err := flags.Parse(args); err != nil {
		return runner.ConfigError("", err)
	}
	args = flags.Args()
	switch {
	case clearRel:
		return rnr.ClearRelation(ctx)
	case len(args) == 0:
		return rnr.CurrentRelation(ctx)
	default:
		return rnr.Relate(ctx, args[0])
	}
}

func lintConfigCmd(ctx context.Context, rnr *runner.Runner, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		return rnr.ListLints(ctx, false)
	case "available":
		return rnr.ListLints(ctx, true)
	case "enable", "disable":
		if len(args) != 1 {
			return runner.ConfigError(fmt.Sprintf("lint-config %s needs exactly one lint id", sub), nil)
		}
		return rnr.SetLint(ctx, args[0], sub == "enable")
	}
	return runner.ConfigError(fmt.Sprintf("unknown lint-config command %q", sub), nil)
}

func configCmd(cfg config.Config, args []string) error {
	var printCfg bool
	flags := subcommandFlags(cfg, "config")
	flags.BoolVar(&printCfg, "print", false, "print the effective configuration and exit")
	if err := flags.Parse(args); err != nil {
		return runner.ConfigError("", err)
	}
	if !printCfg {
		return runner.ConfigError("config needs --print", nil)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	cfg.Printf("%s", string(b))
	return nil
}

func usage(cfg config.Config, flags *pflag.FlagSet) {
	cfg.Printf(`%s [flags] <command> [args]

Commit message tools for pairing, issue tracking, and linting.

COMMANDS

pre-commit                                 fail if the author session has expired
commit-msg [file]                          lint a commit message (stdin if no file)
prepare-commit-msg <file> [source [sha]]   add co-author and relates-to trailers
post-commit [file]                         clear the relation, warn about problems
author-set [--timeout minutes] <initials>  set the active authors
relate-set [--clear] [ticket]              set, show, or clear the current ticket
lint-config [list|available]               show lints
lint-config enable|disable <id>            toggle a lint
config --print                             print the effective configuration

FLAGS
%s
ENVIRONMENT

GIT_MIT_AUTHORS_CONFIG       author database file
GIT_MIT_AUTHORS_EXEC         command printing more authors
GIT_MIT_AUTHORS_TIMEOUT      author session length in minutes
GIT_MIT_RELATES_TO_TEMPLATE  go text/template for Relates-to trailers

EXAMPLES

# pair with two people for the next hour
$ mit author-set bt se

# relate the next commit to a ticket
$ mit relate-set JIRA-42

# check a message
$ echo "Fix bug." | mit commit-msg
`, "mit", flags.FlagUsages())
}
