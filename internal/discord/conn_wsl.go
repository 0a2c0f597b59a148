// conn_wsl.go provides WSL-specific Discord IPC socket discovery.
//
// Inside WSL, Discord runs on the Windows host and its IPC endpoint is a
// Windows named pipe, which WSL2 cannot open as a Unix socket. Users bridge
// it with socat + npiperelay.exe:
//
//	socat UNIX-LISTEN:/tmp/discord-ipc-0,fork EXEC:"npiperelay.exe -ep -s //./pipe/discord-ipc-0"
//
// This file adds the socket paths such a relay would create. When no relay
// is running the paths simply don't exist and discovery falls through to
// ErrIPCNotAvailable.

//go:build linux

package discord

import (
	"fmt"
	"os"
	"strings"
)

// isWSL reports whether the current process is running inside WSL.
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

// wslSocketPaths returns additional socket paths to try when running under
// WSL, covering the locations where a relay bridge typically places the
// socket.
func wslSocketPaths() []string {
	if !isWSL() {
		return nil
	}

	var paths []string
	for i := 0; i < maxIPCSlots; i++ {
		paths = append(paths, fmt.Sprintf("/tmp/discord-ipc-%d", i))
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("%s/discord-ipc-%d", dir, i))
		}
	}
	return paths
}
