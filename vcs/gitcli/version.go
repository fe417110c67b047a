package gitcli

import (
	"context"
	"fmt"
	"regexp"

	"github.com/blang/semver/v4"
)

// typeFlagVersion is the first git release supporting `git config --type`.
var typeFlagVersion = semver.MustParse("2.18.0")

func boolFlag(v semver.Version) string {
	if v.GTE(typeFlagVersion) {
		return "--type=bool"
	}
	return "--bool"
}

var gitVersionRE = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion reads the output of `git version`, which comes in forms like
// "git version 2.39.2", "git version 2.37.1 (Apple Git-137.1)" and
// "git version 2.41.0.windows.1".
func ParseVersion(out string) (semver.Version, error) {
	m := gitVersionRE.FindString(out)
	if m == "" {
		return semver.Version{}, fmt.Errorf("gitcli: unrecognized git version %q", out)
	}
	return semver.ParseTolerant(m)
}

// Version returns the version of the git binary, caching the result.
func (g *Git) Version(ctx context.Context) (semver.Version, error) {
	if g.version != nil {
		return *g.version, nil
	}
	b, err := g.call(ctx, []string{"version"})
	if err != nil {
		return semver.Version{}, err
	}
	v, err := ParseVersion(string(b))
	if err != nil {
		return semver.Version{}, err
	}
	g.version = &v
	g.log.WithField("version", v.String()).Debug("detected git version")
	return v, nil
}
