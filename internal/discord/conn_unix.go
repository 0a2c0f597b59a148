// conn_unix.go implements Discord IPC socket discovery for Unix-like
// systems (Linux, macOS, FreeBSD). Discord listens on a Unix domain socket
// named discord-ipc-N where N is a small instance slot; the daemon probes
// every known location and slot in order.

//go:build !windows

package discord

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// ///////////////////////////////////////////////
// Connection
// ///////////////////////////////////////////////

// socketVariants are the socket name prefixes for Discord release channels
// (stable, Canary, PTB).
var socketVariants = []string{"discord-ipc", "discordcanary-ipc", "discordptb-ipc"}

// candidatePaths returns every socket path worth probing, in priority
// order: XDG_RUNTIME_DIR, /tmp, Snap, Flatpak, and WSL relay locations.
func candidatePaths() []string {
	var paths []string

	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		for _, v := range socketVariants {
			for i := 0; i < maxIPCSlots; i++ {
				paths = append(paths, fmt.Sprintf("%s/%s-%d", dir, v, i))
			}
		}
	}

	// /tmp fallback for systems without XDG_RUNTIME_DIR.
	for _, v := range socketVariants {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/tmp/%s-%d", v, i))
		}
	}

	// Snap-packaged Discord uses a distinct socket directory.
	uid := strconv.Itoa(os.Getuid())
	for _, sd := range []string{"snap.discord", "snap.discord-canary", "snap.discord-ptb"} {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/run/user/%s/%s/discord-ipc-%d", uid, sd, i))
		}
	}

	// Flatpak-packaged Discord uses its own app-scoped directory.
	flatpakApps := []string{
		"com.discordapp.Discord",
		"com.discordapp.DiscordCanary",
		"com.discordapp.DiscordPTB",
	}
	for _, app := range flatpakApps {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/run/user/%s/app/%s/discord-ipc-%d", uid, app, i))
		}
	}

	// Under WSL a socat/npiperelay bridge may expose the Windows pipe as a
	// Unix socket. Many of these overlap with the paths above; overlap is
	// harmless since dialing a missing path fails fast.
	return append(paths, wslSocketPaths()...)
}

// connectToDiscord dials each candidate socket path and returns the first
// successful connection.
func connectToDiscord() (net.Conn, error) {
	for _, path := range candidatePaths() {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
	}

	if isWSL() {
		return nil, fmt.Errorf("%w: running under WSL - a socat + npiperelay.exe bridge is required (see project docs)", ErrIPCNotAvailable)
	}
	return nil, ErrIPCNotAvailable
}
