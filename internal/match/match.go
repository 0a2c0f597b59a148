// Package match selects the active presence target for a process snapshot.
//
// Targets are evaluated in list order, so the earliest configured target
// whose process is running wins. Matching compares base process names:
// exact and case-sensitive by default, or glob patterns when a target opts
// in with match = "glob".
package match

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/timbits/carp/internal/config"
	"github.com/timbits/carp/internal/procwatch"
)

// Select returns the first target in list order with a running process,
// along with the concrete process name that matched, or (nil, "") when no
// target matches. The returned pointer aliases the input slice.
func Select(snap procwatch.Snapshot, targets []config.Target) (*config.Target, string) {
	for i := range targets {
		if name, ok := Matches(snap, &targets[i]); ok {
			return &targets[i], name
		}
	}
	return nil, ""
}

// Matches reports whether any process in the snapshot satisfies the
// target's pattern, returning the matched name. Glob targets scan names
// in sorted order so the result is stable across snapshots.
func Matches(snap procwatch.Snapshot, tgt *config.Target) (string, bool) {
	if tgt.Match != "glob" {
		if snap.Has(tgt.Process) {
			return tgt.Process, true
		}
		return "", false
	}

	names := snap.Names()
	sort.Strings(names)
	for _, name := range names {
		// Pattern validity is checked at config load, so a match error
		// here just means no match.
		if ok, err := doublestar.Match(tgt.Process, name); err == nil && ok {
			return name, true
		}
	}
	return "", false
}
