package config

import (
	"os"
	"path/filepath"

	"github.com/jeffrom/mit/commit"
)

// DefaultAuthorsTimeout is how long, in minutes, an author session lasts.
const DefaultAuthorsTimeout = 60

func GetDefault() Config {
	return Config{
		Format:           FormatText,
		Scope:            ScopeAuto,
		AuthorsFile:      DefaultAuthorsFile(),
		AuthorsTimeout:   DefaultAuthorsTimeout,
		CoAuthorTemplate: commit.DefaultCoAuthorTemplate,
		RelateTemplate:   commit.DefaultRelateTemplate,
	}
}

// DefaultAuthorsFile returns $XDG_CONFIG_HOME/git-mit/mit.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultAuthorsFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "git-mit", "mit.toml")
}
