package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	rootpkg "github.com/timbits/carp"
	"github.com/timbits/carp/internal/config"
)

// ///////////////////////////////////////////////
// Config Commands
// ///////////////////////////////////////////////

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage presence targets and settings",
	Long: `Edit the target list and Discord settings stored in config.toml.
Targets are priority-ordered: when several target processes run at once,
the earliest entry wins. A running daemon picks up changes on restart.`,
}

var (
	targetProcess    string
	targetDetails    string
	targetState      string
	targetImage      string
	targetSmallImage string
	targetMatch      string
	targetIndex      int

	reorderIncrease bool
	reorderDecrease bool
	reorderSet      int

	listCompact  bool
	listDetailed bool
)

var configAddCmd = &cobra.Command{
	Use:   "add <process> <details> [image]",
	Short: "Add a target to the priority list",
	Long: `Adds a target at the end of the priority list, or at --index (1 is
highest priority; out-of-range values clamp to the ends). {process} in the
details text expands to the matched process name.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editConfig(func(cfg *config.Config) error {
			tgt := config.Target{
				Process:    args[0],
				Details:    args[1],
				State:      targetState,
				SmallImage: targetSmallImage,
				Match:      targetMatch,
			}
			if len(args) == 3 {
				tgt.LargeImage = args[2]
			}
			if err := cfg.AddTarget(tgt); err != nil {
				return err
			}
			if cmd.Flags().Changed("index") {
				if err := cfg.MoveTarget(tgt.Process, targetIndex-1); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (priority %d of %d)\n",
				tgt.Process, cfg.FindTarget(tgt.Process)+1, len(cfg.Targets))
			return nil
		})
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <process>",
	Short: "Remove a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editConfig(func(cfg *config.Config) error {
			if err := cfg.RemoveTarget(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		})
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit <process>",
	Short: "Change fields of an existing target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editConfig(func(cfg *config.Config) error {
			idx := cfg.FindTarget(args[0])
			if idx < 0 {
				return fmt.Errorf("no target for %q", args[0])
			}
			tgt := cfg.Targets[idx]
			// Only flags the user actually passed are applied, so an empty
			// string can still clear a field explicitly.
			if cmd.Flags().Changed("process") {
				tgt.Process = targetProcess
			}
			if cmd.Flags().Changed("details") {
				tgt.Details = targetDetails
			}
			if cmd.Flags().Changed("state") {
				tgt.State = targetState
			}
			if cmd.Flags().Changed("image") {
				tgt.LargeImage = targetImage
			}
			if cmd.Flags().Changed("small-image") {
				tgt.SmallImage = targetSmallImage
			}
			if cmd.Flags().Changed("match") {
				tgt.Match = targetMatch
			}
			if err := cfg.ReplaceTarget(args[0], tgt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", tgt.Process)
			return nil
		})
	},
}

var configReorderCmd = &cobra.Command{
	Use:   "reorder <process> (--increase | --decrease | --set N)",
	Short: "Move a target in the priority order",
	Long: `Moves a target up (--increase), down (--decrease), or to an absolute
position (--set N, 1 is highest). Positions clamp to the list ends.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := 0
		for _, set := range []bool{reorderIncrease, reorderDecrease, cmd.Flags().Changed("set")} {
			if set {
				modes++
			}
		}
		if modes != 1 {
			return fmt.Errorf("pass exactly one of --increase, --decrease, or --set")
		}
		return editConfig(func(cfg *config.Config) error {
			idx := cfg.FindTarget(args[0])
			if idx < 0 {
				return fmt.Errorf("no target for %q", args[0])
			}
			pos := reorderSet - 1
			if reorderIncrease {
				pos = idx - 1
			}
			if reorderDecrease {
				pos = idx + 1
			}
			if err := cfg.MoveTarget(args[0], pos); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s to position %d\n", args[0], cfg.FindTarget(args[0])+1)
			return nil
		})
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show targets in priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listCompact && listDetailed {
			return fmt.Errorf("--compact and --detailed are mutually exclusive")
		}
		cfg, err := config.Load(dataDirFlag)
		if err != nil {
			return err
		}
		printTargets(cmd, cfg)
		return nil
	},
}

// clientIDRegex mirrors the run-time app ID check: a numeric snowflake.
var clientIDRegex = regexp.MustCompile(`^[0-9]{15,21}$`)

var configIDCmd = &cobra.Command{
	Use:   "id <client-id>",
	Short: "Set the Discord application (client) ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clientIDRegex.MatchString(args[0]) {
			return fmt.Errorf("invalid client ID %q: must be a numeric snowflake", args[0])
		}
		return editConfig(func(cfg *config.Config) error {
			cfg.Discord.AppID = args[0]
			fmt.Fprintln(cmd.OutOrStdout(), "client ID set")
			return nil
		})
	},
}

func init() {
	configAddCmd.Flags().StringVar(&targetState, "state", "", "Bottom presence line")
	configAddCmd.Flags().StringVar(&targetSmallImage, "small-image", "", "Asset key or URL for the small icon")
	configAddCmd.Flags().StringVar(&targetMatch, "match", "", `Matching mode: "exact" (default) or "glob"`)
	configAddCmd.Flags().IntVar(&targetIndex, "index", 0, "Priority position to insert at (1 is highest)")

	configEditCmd.Flags().StringVar(&targetProcess, "process", "", "Rename the target's process")
	configEditCmd.Flags().StringVar(&targetDetails, "details", "", "Top presence line ({process} is expanded)")
	configEditCmd.Flags().StringVar(&targetState, "state", "", "Bottom presence line")
	configEditCmd.Flags().StringVar(&targetImage, "image", "", "Asset key or URL for the large icon")
	configEditCmd.Flags().StringVar(&targetSmallImage, "small-image", "", "Asset key or URL for the small icon")
	configEditCmd.Flags().StringVar(&targetMatch, "match", "", `Matching mode: "exact" or "glob"`)

	configReorderCmd.Flags().BoolVar(&reorderIncrease, "increase", false, "Move up one position")
	configReorderCmd.Flags().BoolVar(&reorderDecrease, "decrease", false, "Move down one position")
	configReorderCmd.Flags().IntVar(&reorderSet, "set", 0, "Move to an absolute position (1 is highest)")

	configListCmd.Flags().BoolVar(&listCompact, "compact", false, "One line per target")
	configListCmd.Flags().BoolVar(&listDetailed, "detailed", false, "All fields per target")

	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configReorderCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configIDCmd)
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// editConfig loads the config, applies the mutation, validates the result,
// and saves it back atomically. The config file is seeded with defaults
// first if it doesn't exist yet.
func editConfig(mutate func(*config.Config) error) error {
	dataPaths := DataPaths{Root: dataDirFlag}

	if err := os.MkdirAll(dataPaths.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(dataPaths.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(dataPaths.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			return fmt.Errorf("write default config: %w", writeErr)
		}
	}

	cfg, err := config.Load(dataPaths.Root)
	if err != nil {
		return err
	}
	if err := mutate(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Save(dataPaths.Config())
}

// printTargets renders the target list. With more than five targets the
// output switches to one line per target unless --detailed forces the
// full view.
func printTargets(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	if len(cfg.Targets) == 0 {
		fmt.Fprintln(out, "no targets configured; add one with `carp config add`")
		return
	}

	compact := listCompact || (len(cfg.Targets) > 5 && !listDetailed)
	for i, tgt := range cfg.Targets {
		mode := ""
		if tgt.Match == "glob" {
			mode = " (glob)"
		}
		if compact {
			fmt.Fprintf(out, "%2d. %s%s: %s\n", i+1, tgt.Process, mode, tgt.Details)
			continue
		}
		fmt.Fprintf(out, "%2d. %s%s\n", i+1, tgt.Process, mode)
		fmt.Fprintf(out, "    details: %s\n", tgt.Details)
		if tgt.State != "" {
			fmt.Fprintf(out, "    state: %s\n", tgt.State)
		}
		if tgt.LargeImage != "" {
			fmt.Fprintf(out, "    large image: %s\n", tgt.LargeImage)
		}
		if tgt.SmallImage != "" {
			fmt.Fprintf(out, "    small image: %s\n", tgt.SmallImage)
		}
	}
}
