// genconfig checks that the embedded config.default.toml stays in sync
// with the code defaults.
//
// The default config file is hand-commented, so it is maintained by hand
// rather than generated. This tool parses it, validates it, and compares
// every non-target field against [config.DefaultConfig], failing when the
// two drift apart.
//
// Usage:
//
//	go run ./cmd/genconfig
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	rootpkg "github.com/timbits/carp"
	"github.com/timbits/carp/internal/config"
)

func main() {
	if err := check(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config.default.toml matches code defaults")
}

func check() error {
	embedded := config.DefaultConfig()
	if err := toml.Unmarshal(rootpkg.DefaultConfigTOML, embedded); err != nil {
		return fmt.Errorf("parse config.default.toml: %w", err)
	}
	if err := embedded.Validate(); err != nil {
		return fmt.Errorf("validate config.default.toml: %w", err)
	}
	if len(embedded.Targets) != 0 {
		return fmt.Errorf("config.default.toml must not ship active targets, found %d", len(embedded.Targets))
	}

	want := config.DefaultConfig()
	if embedded.Version != want.Version {
		return fmt.Errorf("version drift: file has %d, code has %d", embedded.Version, want.Version)
	}
	if embedded.Discord != want.Discord {
		return fmt.Errorf("discord section drift: file has %+v, code has %+v", embedded.Discord, want.Discord)
	}
	if embedded.Display != want.Display {
		return fmt.Errorf("display section drift: file has %+v, code has %+v", embedded.Display, want.Display)
	}
	if embedded.Behavior != want.Behavior {
		return fmt.Errorf("behavior section drift: file has %+v, code has %+v", embedded.Behavior, want.Behavior)
	}
	if embedded.Log != want.Log {
		return fmt.Errorf("log section drift: file has %+v, code has %+v", embedded.Log, want.Log)
	}
	return nil
}
