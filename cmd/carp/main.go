// Package main implements the carp daemon, which watches running processes
// and publishes Discord Rich Presence for whichever configured target is
// active.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/timbits/carp/internal/logger"
	"github.com/timbits/carp/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//
//	-X main.version=0.2.0
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS
// info that Go embeds automatically, so dev builds get a useful version
// string without needing git at runtime.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and
// dirty state embedded by the Go toolchain are used to construct a
// "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns the platform default directory for carp data,
// typically ~/.carp. Falls back to ./.carp if the home directory cannot be
// determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Commands
// ///////////////////////////////////////////////

var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:   "carp",
	Short: "Discord Rich Presence for any running process",
	Long: `carp watches the processes on this machine and relays Discord Rich
Presence for whichever configured target is running, in the order you
listed them. Running carp with no subcommand starts the daemon.`,
	SilenceUsage: true,
	RunE:         runDaemon,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the presence daemon",
	RunE:  runDaemon,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of the daemon log",
	RunE: func(cmd *cobra.Command, args []string) error {
		tail, err := logger.ReadTail(DataPaths{Root: dataDirFlag}.Log(), logLines)
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), tail)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "carp", resolveVersion())
	},
}

var logLines int

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", defaultDataDir(),
		"Data directory for config and logs")
	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines to print")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
