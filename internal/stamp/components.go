package stamp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

var (
	describeRe = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]{4,40})$`)
	bareHashRe = regexp.MustCompile(`^[0-9a-f]{4,40}$`)
)

// Components is a version string split into its describe parts. Major/Minor/Patch are
// only meaningful when Semver is true.
type Components struct {
	Tag        string `json:"tag,omitempty"`
	Major      uint64 `json:"major"`
	Minor      uint64 `json:"minor"`
	Patch      uint64 `json:"patch"`
	Prerelease string `json:"prerelease,omitempty"`
	Distance   int    `json:"distance"`
	Hash       string `json:"hash,omitempty"`
	Dirty      bool   `json:"dirty,omitempty"`
	Semver     bool   `json:"semver"`
}

// ParseComponents splits "v1.2.0-5-g1a2b3c4", "v1.2.3" or a bare hash. Only describe
// output can be a bare hash: an exact tag such as "2024" or "cafe" stays a tag. Tags are
// parsed tolerantly, so "v1.2" yields 1.2.0.
func ParseComponents(v string, src Source) Components {
	var c Components
	v = strings.TrimSpace(v)
	if rest, ok := strings.CutSuffix(v, "-dirty"); ok {
		c.Dirty = true
		v = rest
	}

	switch m := describeRe.FindStringSubmatch(v); {
	case m != nil:
		c.Tag = m[1]
		c.Distance, _ = strconv.Atoi(m[2])
		c.Hash = m[3]
	case src == SourceDescribe && bareHashRe.MatchString(v):
		c.Hash = v
		return c
	default:
		c.Tag = v
	}

	sv, err := semver.ParseTolerant(c.Tag)
	if err != nil {
		return c
	}
	c.Semver = true
	c.Major, c.Minor, c.Patch = sv.Major, sv.Minor, sv.Patch
	if len(sv.Pre) > 0 {
		pre := make([]string, 0, len(sv.Pre))
		for _, p := range sv.Pre {
			pre = append(pre, p.String())
		}
		c.Prerelease = strings.Join(pre, ".")
	}
	return c
}

// Components splits the resolved version.
func (r Resolution) Components() Components {
	return ParseComponents(r.Version, r.Source)
}
