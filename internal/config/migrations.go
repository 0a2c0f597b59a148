package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/timbits/carp/internal/migrate"
)

// ///////////////////////////////////////////////
// Schema Migrations
// ///////////////////////////////////////////////

func init() {
	migrate.Config.Register(migrate.Migration{
		Version:     2,
		Description: "rename target display_name to details and image to large_image",
		Upgrade:     upgradeV1ToV2,
	})
}

// upgradeV1ToV2 renames the per-target keys introduced before the state
// line and small image existed: display_name becomes details and image
// becomes large_image. All other keys pass through untouched.
func upgradeV1ToV2(data []byte) ([]byte, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing v1 config: %w", err)
	}

	if targets, ok := raw["targets"].([]map[string]any); ok {
		for _, tgt := range targets {
			renameKey(tgt, "display_name", "details")
			renameKey(tgt, "image", "large_image")
		}
	}
	raw["version"] = 2

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(raw); err != nil {
		return nil, fmt.Errorf("encoding v2 config: %w", err)
	}
	return []byte(sb.String()), nil
}

func renameKey(m map[string]any, from, to string) {
	if v, ok := m[from]; ok {
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
	}
}
