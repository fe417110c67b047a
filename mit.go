// Package mit keeps commit messages honest: it tracks who is pairing on a
// commit, which ticket it relates to, and lints the message before it lands.
//
// Related packages: config, commit, author, relate, lint, runner, model, vcs,
// vcs/gitcli
package mit

import "github.com/jeffrom/mit/config"

// Config holds most of the configuration variables for mit. This struct is
// intended for command-line use, so not all of its attributes are applicable
// to every operation.
//
// See "go doc github.com/jeffrom/mit/config Config" for more information.
type Config = config.Config
