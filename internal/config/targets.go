package config

import (
	"fmt"
)

// ///////////////////////////////////////////////
// Target List Editing
// ///////////////////////////////////////////////

// FindTarget returns the index of the target with the given process name,
// or -1 if no target matches. Lookup is exact and case-sensitive, same as
// runtime matching.
func (c *Config) FindTarget(process string) int {
	for i, tgt := range c.Targets {
		if tgt.Process == process {
			return i
		}
	}
	return -1
}

// AddTarget appends a target to the end of the list (lowest priority).
// Fails if a target for the same process already exists.
func (c *Config) AddTarget(tgt Target) error {
	if tgt.Process == "" {
		return fmt.Errorf("process must not be empty")
	}
	if c.FindTarget(tgt.Process) >= 0 {
		return fmt.Errorf("target for %q already exists: use `carp config edit` to change it", tgt.Process)
	}
	c.Targets = append(c.Targets, tgt)
	return nil
}

// RemoveTarget deletes the target for the given process name.
func (c *Config) RemoveTarget(process string) error {
	idx := c.FindTarget(process)
	if idx < 0 {
		return fmt.Errorf("no target for %q", process)
	}
	c.Targets = append(c.Targets[:idx], c.Targets[idx+1:]...)
	return nil
}

// ReplaceTarget swaps out the target for the given process name. The
// replacement may carry a different process name as long as it doesn't
// collide with another existing target.
func (c *Config) ReplaceTarget(process string, tgt Target) error {
	idx := c.FindTarget(process)
	if idx < 0 {
		return fmt.Errorf("no target for %q", process)
	}
	if tgt.Process != process && c.FindTarget(tgt.Process) >= 0 {
		return fmt.Errorf("target for %q already exists", tgt.Process)
	}
	c.Targets[idx] = tgt
	return nil
}

// MoveTarget moves the target for the given process to a new position in
// the priority order. Positions outside the list are clamped to the ends.
func (c *Config) MoveTarget(process string, pos int) error {
	idx := c.FindTarget(process)
	if idx < 0 {
		return fmt.Errorf("no target for %q", process)
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(c.Targets) {
		pos = len(c.Targets) - 1
	}
	if pos == idx {
		return nil
	}

	tgt := c.Targets[idx]
	c.Targets = append(c.Targets[:idx], c.Targets[idx+1:]...)
	c.Targets = append(c.Targets[:pos], append([]Target{tgt}, c.Targets[pos:]...)...)
	return nil
}
