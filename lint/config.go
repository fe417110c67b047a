package lint

import (
	"context"
	"strconv"

	"github.com/jeffrom/mit/vcs"
)

// ConfigPrefix namespaces lint toggles in the config store.
const ConfigPrefix = "mit.lint."

// Config maps lint ids to whether they are enabled. Ids missing from the map
// fall back to the lint's default.
type Config map[ID]bool

func ConfigKey(id ID) string {
	return ConfigPrefix + string(id)
}

// DefaultConfig returns the enablement of every lint with nothing configured.
func DefaultConfig() Config {
	c := make(Config, len(registry))
	for _, l := range registry {
		c[l.ID] = l.Default
	}
	return c
}

func (c Config) Enabled(id ID) bool {
	if enabled, ok := c[id]; ok {
		return enabled
	}
	if l, ok := byID[id]; ok {
		return l.Default
	}
	return false
}

// EnabledIDs returns enabled lint ids, in code order.
func (c Config) EnabledIDs() []ID {
	var ids []ID
	for _, l := range registry {
		if c.Enabled(l.ID) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func (c Config) clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ReadConfig overlays the mit.lint.<id> values in effect on the defaults.
func ReadConfig(ctx context.Context, store vcs.ConfigStore) (Config, error) {
	c := DefaultConfig()
	for _, l := range registry {
		enabled, ok, err := vcs.LookupBool(ctx, store, ConfigKey(l.ID))
		if err != nil {
			return DefaultConfig(), err
		}
		if ok {
			c[l.ID] = enabled
		}
	}
	return c, nil
}

// SetEnabled persists a lint toggle.
func SetEnabled(ctx context.Context, store vcs.ConfigStore, id string, enabled bool) error {
	l, err := Lookup(id)
	if err != nil {
		return err
	}
	return store.Set(ctx, ConfigKey(l.ID), strconv.FormatBool(enabled))
}
