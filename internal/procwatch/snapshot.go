// Package procwatch enumerates running processes into per-tick snapshots.
//
// A [Snapshot] is the set of base process names observed at one poll tick.
// It is rebuilt on every tick and discarded after matching; nothing in this
// package holds long-lived state. Enumeration uses gopsutil, which reads
// the platform process table (procfs, sysctl, or the Windows API).
package procwatch

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ///////////////////////////////////////////////
// Snapshot
// ///////////////////////////////////////////////

// Snapshot is an unordered set of base process names from one enumeration.
type Snapshot map[string]struct{}

// Has reports whether a process with the given base name was observed.
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the observed process names in unspecified order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}

// ///////////////////////////////////////////////
// Enumeration
// ///////////////////////////////////////////////

// Lister enumerates base names of running processes. The production
// implementation is [SystemLister]; tests substitute their own.
type Lister interface {
	ProcessNames() ([]string, error)
}

// SystemLister enumerates the live process table via gopsutil.
type SystemLister struct{}

// ProcessNames returns the base name of every running process. Processes
// that exit between enumeration and the name lookup are skipped.
func (SystemLister) ProcessNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process may have exited
		}
		names = append(names, name)
	}
	return names, nil
}

// Take builds a [Snapshot] from one enumeration of the lister.
func Take(l Lister) (Snapshot, error) {
	names, err := l.ProcessNames()
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(names))
	for _, n := range names {
		snap[n] = struct{}{}
	}
	return snap, nil
}
