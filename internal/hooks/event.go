package hooks

import (
	"fmt"
	"strings"
)

// Event is a build lifecycle event: "configure" or "post:<target>".
type Event string

// Configure fires while the build environment is set up, before any compilation.
const Configure Event = "configure"

const postPrefix = "post:"

// PostAction is the event fired after target completes.
func PostAction(target string) Event {
	return Event(postPrefix + target)
}

// ParseEvent validates a user-supplied event name.
func ParseEvent(s string) (Event, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == string(Configure):
		return Configure, nil
	case strings.HasPrefix(s, postPrefix):
		target := strings.TrimPrefix(s, postPrefix)
		if target == "" || strings.ContainsAny(target, " \t:") {
			return "", fmt.Errorf("invalid target in event %q", s)
		}
		return PostAction(target), nil
	default:
		return "", fmt.Errorf("unknown event %q (want %q or %q)", s, Configure, postPrefix+"<target>")
	}
}

// IsPost reports whether e is a post-target event.
func (e Event) IsPost() bool { return strings.HasPrefix(string(e), postPrefix) }

// Target returns the target of a post event, or "".
func (e Event) Target() string {
	if !e.IsPost() {
		return ""
	}
	return strings.TrimPrefix(string(e), postPrefix)
}

func (e Event) String() string { return string(e) }
