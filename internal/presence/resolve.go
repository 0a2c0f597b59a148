// Package presence turns matched targets into Discord activity updates.
//
// Resolution expands display templates and fits them to Discord's line
// budget; the session tracks connection state, reconnect backoff, and the
// last update sent so identical activity is never re-sent.
package presence

import (
	"time"

	"github.com/timbits/carp/internal/config"
	"github.com/timbits/carp/internal/discord"
	"github.com/timbits/carp/internal/textwrap"
)

// maxFieldBytes is Discord's per-field limit for details and state.
const maxFieldBytes = 128

// Resolved is a fully rendered presence: templates expanded, lines fitted
// to the display budget, fields truncated to Discord's limits. Two
// Resolved values comparing equal would produce identical updates.
type Resolved struct {
	// Process is the concrete process name that matched.
	Process string
	// Details is the top presence line.
	Details string
	// State is the bottom presence line, possibly empty.
	State string

	LargeImage string
	LargeText  string
	SmallImage string
}

// Resolve renders the presence for a matched target. The process argument
// is the concrete name that matched (for glob targets it differs from the
// pattern) and feeds the {process} placeholder.
//
// The details template is wrapped to the display budget; when the target
// declares no state template, details overflow flows into the state line.
func Resolve(tgt *config.Target, display config.DisplayConfig, process string) *Resolved {
	maxCells := display.MaxLineCells
	if maxCells <= 0 {
		maxCells = config.DefaultMaxLineCells
	}

	details, overflow := textwrap.Wrap(config.ExpandTemplate(tgt.Details, process), maxCells)

	state := overflow
	if tgt.State != "" {
		state, _ = textwrap.Wrap(config.ExpandTemplate(tgt.State, process), maxCells)
	}

	return &Resolved{
		Process:    process,
		Details:    textwrap.TruncateBytes(details, maxFieldBytes),
		State:      textwrap.TruncateBytes(state, maxFieldBytes),
		LargeImage: tgt.LargeImage,
		LargeText:  display.LargeText,
		SmallImage: tgt.SmallImage,
	}
}

// Equal reports whether two resolved presences would produce the same
// Discord update.
func (r *Resolved) Equal(other *Resolved) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// activity builds the wire-level activity for this presence with the
// given start time.
func (r *Resolved) activity(since time.Time) *discord.Activity {
	act := &discord.Activity{
		Details: r.Details,
		State:   r.State,
	}
	if !since.IsZero() {
		act.Timestamps = &discord.Timestamps{Start: since.Unix()}
	}
	if r.LargeImage != "" || r.SmallImage != "" || r.LargeText != "" {
		act.Assets = &discord.Assets{
			LargeImage: r.LargeImage,
			LargeText:  r.LargeText,
			SmallImage: r.SmallImage,
		}
	}
	return act
}
