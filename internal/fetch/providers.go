package fetch

import (
	"regexp"
	"strings"
)

// Options are the knobs handed to the primary engine for one invocation.
// Provider rules adjust them before the process is spawned.
type Options struct {
	Format        string
	AudioOnly     bool
	Playlist      bool
	Retries       int
	SocketTimeout int
	NoFlat        bool
}

// Rule binds a URL pattern to provider-specific behavior. Rules are
// evaluated in order; the first match wins.
type Rule struct {
	Name      string
	match     *regexp.Regexp
	Secondary bool
	Transform func(*Options)
}

var rules = []Rule{
	{
		Name:      "spotify",
		match:     regexp.MustCompile(`spotify\.com`),
		Secondary: true,
	},
	{
		Name:  "twitter",
		match: regexp.MustCompile(`twitter\.com|x\.com`),
		Transform: func(o *Options) {
			o.Retries = 5
			// no combined-stream support: collapse a video+audio merge
			// request into a single best format
			if strings.Contains(o.Format, "best") && strings.Contains(o.Format, "+") {
				o.Format = "best"
			}
		},
	},
	{
		Name:  "facebook",
		match: regexp.MustCompile(`facebook\.com|fb\.com|fb\.watch`),
		Transform: func(o *Options) {
			o.NoFlat = true
		},
	},
	{
		Name:  "instagram",
		match: regexp.MustCompile(`instagram\.com|instagr\.am`),
		Transform: func(o *Options) {
			o.NoFlat = true
		},
	},
}

// Resolve returns the provider rule matching url, or nil when no provider
// needs special handling.
func Resolve(url string) *Rule {
	for i := range rules {
		if rules[i].match.MatchString(url) {
			return &rules[i]
		}
	}
	return nil
}

// UsesSecondary reports whether url belongs to the provider served by the
// secondary fetch engine.
func UsesSecondary(url string) bool {
	r := Resolve(url)
	return r != nil && r.Secondary
}

var restrictedMarkers = []string{
	"is private",
	"this content is not available",
	"sign in",
}

// IsAccessRestricted reports whether a fetch error indicates private or
// login-gated content rather than a generic failure.
func IsAccessRestricted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range restrictedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
