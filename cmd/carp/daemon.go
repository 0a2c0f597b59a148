package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	rootpkg "github.com/timbits/carp"
	"github.com/timbits/carp/internal/config"
	"github.com/timbits/carp/internal/discord"
	"github.com/timbits/carp/internal/logger"
	"github.com/timbits/carp/internal/match"
	"github.com/timbits/carp/internal/presence"
	"github.com/timbits/carp/internal/procwatch"
	"github.com/timbits/carp/internal/update"
	"github.com/timbits/carp/internal/watcher"
)

// ///////////////////////////////////////////////
// Daemon Startup
// ///////////////////////////////////////////////

func runDaemon(cmd *cobra.Command, args []string) error {
	dataPaths := DataPaths{Root: dataDirFlag}

	if err := os.MkdirAll(dataPaths.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if alive, pid := checkStalePID(dataPaths); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	if _, err := os.Stat(dataPaths.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(dataPaths.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(dataPaths.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	log, logCloser, err := logger.NewLogger(dataPaths.Log(), logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	ver := resolveVersion()
	slog.Info("carp starting", "version", ver, "data_dir", dataPaths.Root, "targets", len(cfg.Targets))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("update check panic", "error", r)
			}
		}()
		update.Check(ver)
	}()

	token := pidToken()
	pidFile, err := writePID(dataPaths, token)
	if err != nil {
		slog.Error("failed to write PID file", "error", err)
		return err
	}
	defer removePID(dataPaths, token, pidFile)

	client := discord.NewClient(cfg.Discord.AppID)
	sess := presence.NewSession(client,
		time.Duration(cfg.Behavior.ReconnectMinSeconds)*time.Second,
		time.Duration(cfg.Behavior.ReconnectMaxSeconds)*time.Second,
	)
	defer sess.Close()

	cfgWatcher, err := watcher.New(dataPaths.Config())
	if err != nil {
		slog.Error("failed to watch config file", "error", err)
		return err
	}
	defer cfgWatcher.Close()
	if cfgWatcher.Polling() {
		slog.Info("using polling mode for config watching")
	}

	run(sess, cfgWatcher, cfg, procwatch.SystemLister{})
	return nil
}

// ///////////////////////////////////////////////
// Event Loop
// ///////////////////////////////////////////////

// run is the main event loop. Each poll tick scans running processes and
// reconciles presence through the session; config file events only produce
// a restart hint since configuration is fixed for the life of the run. The
// loop exits on an OS interrupt or terminate signal.
func run(sess *presence.Session, cfgWatcher *watcher.Watcher, cfg *config.Config, lister procwatch.Lister) {
	pollTicker := time.NewTicker(time.Duration(cfg.Behavior.PollIntervalSeconds) * time.Second)
	defer pollTicker.Stop()

	sigCh := signalChannel()

	tick(sess, cfg, lister)

	for {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			return

		case <-cfgWatcher.Events():
			slog.Info("config file changed on disk; restart carp to apply it")

		case <-pollTicker.C:
			tick(sess, cfg, lister)
		}
	}
}

// tick performs one scan-match-publish cycle. A failed process scan leaves
// the current presence untouched rather than clearing it.
func tick(sess *presence.Session, cfg *config.Config, lister procwatch.Lister) {
	snap, err := procwatch.Take(lister)
	if err != nil {
		slog.Warn("process scan failed", "error", err)
		return
	}

	tgt, name := match.Select(snap, cfg.Targets)
	if tgt == nil {
		sess.Tick(nil)
		return
	}
	sess.Tick(presence.Resolve(tgt, cfg.Display, name))
}
