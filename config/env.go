package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "GIT_MIT"

var envKeys = []string{
	"authors_config",
	"authors_exec",
	"authors_timeout",
	"relates_to_template",
}

// FromEnv reads GIT_MIT_* environment overrides. Unset variables leave the
// corresponding fields empty so they don't clobber defaults when merged.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		AuthorsFile:    v.GetString("authors_config"),
		AuthorsExec:    v.GetString("authors_exec"),
		RelateTemplate: v.GetString("relates_to_template"),
	}
	if v.IsSet("authors_timeout") {
		timeout := v.GetInt("authors_timeout")
		if timeout <= 0 {
			return nil, fmt.Errorf("config: %s_AUTHORS_TIMEOUT must be a positive number of minutes, got %q", EnvPrefix, v.GetString("authors_timeout"))
		}
		cfg.AuthorsTimeout = timeout
	}
	return cfg, nil
}
