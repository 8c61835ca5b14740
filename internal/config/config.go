// Package config loads and merges ctxhelpr's global and per-repo
// configuration (spec §6): JSONC files validated against an embedded
// JSON Schema, deep-merged global-then-local.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	jsonc "github.com/muhammadmuzzammil1998/jsonc"
	"github.com/spf13/viper"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/paths"
)

// Output controls tool-response truncation (spec §6).
type Output struct {
	MaxTokens           *int `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	TruncateSignatures  int  `json:"truncate_signatures" mapstructure:"truncate_signatures"`
	TruncateDocComments int  `json:"truncate_doc_comments" mapstructure:"truncate_doc_comments"`
}

// Search controls search_symbols defaults (spec §6).
type Search struct {
	MaxResults int `json:"max_results" mapstructure:"max_results"`
}

// Indexer controls indexing behavior (spec §6).
type Indexer struct {
	Ignore      []string `json:"ignore" mapstructure:"ignore"`
	MaxFileSize int64    `json:"max_file_size" mapstructure:"max_file_size"`
}

// Config is the merged configuration spec §6 describes.
type Config struct {
	Output  Output  `json:"output" mapstructure:"output"`
	Search  Search  `json:"search" mapstructure:"search"`
	Indexer Indexer `json:"indexer" mapstructure:"indexer"`
}

// Default returns the spec's built-in defaults.
func Default() Config {
	return Config{
		Output: Output{
			MaxTokens:           nil,
			TruncateSignatures:  120,
			TruncateDocComments: 100,
		},
		Search: Search{
			MaxResults: 20,
		},
		Indexer: Indexer{
			Ignore:      nil,
			MaxFileSize: 1048576,
		},
	}
}

// Load resolves the merged configuration for repoRoot: defaults,
// overlaid by the global config file if present, overlaid by the
// repo-local config file if present (spec §6's global→local merge,
// objects merge key-by-key, arrays/scalars replace).
func Load(repoRoot string) (Config, error) {
	merged := configToMap(Default())

	globalPath, err := paths.GlobalConfigPath()
	if err != nil {
		return Config{}, errors.NewConfigError("failed to resolve global config path", err)
	}
	if m, err := readConfigFile(globalPath); err != nil {
		return Config{}, err
	} else if m != nil {
		merged = deepMerge(merged, m)
	}

	localPath := paths.LocalConfigPath(repoRoot)
	if m, err := readConfigFile(localPath); err != nil {
		return Config{}, err
	} else if m != nil {
		merged = deepMerge(merged, m)
	}

	if err := validateAgainstSchema(merged); err != nil {
		return Config{}, errors.NewConfigError("config failed schema validation", err)
	}

	var cfg Config
	v := viper.New()
	if err := v.MergeConfigMap(merged); err != nil {
		return Config{}, errors.NewConfigError("failed to decode merged config", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.NewConfigError("failed to decode merged config", err)
	}
	return cfg, nil
}

// readConfigFile reads and JSONC-decodes path into a raw map, or
// returns (nil, nil) if the file does not exist.
func readConfigFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError(path, err)
	}
	clean := jsonc.ToJSON(data)

	var m map[string]interface{}
	if err := json.Unmarshal(clean, &m); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid JSON in %s", path), err)
	}
	if err := validateAgainstSchema(m); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("%s failed schema validation", path), err)
	}
	return m, nil
}

// configToMap round-trips cfg through JSON to get a plain
// map[string]interface{} in the same shape as a parsed config file, so
// it can serve as the base layer for deepMerge.
func configToMap(cfg Config) map[string]interface{} {
	data, err := json.Marshal(cfg)
	if err != nil {
		panic("config: default config must always marshal: " + err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic("config: default config must always round-trip: " + err.Error())
	}
	return m
}

// deepMerge merges src into dst: nested objects merge key-by-key,
// arrays and scalars in src replace the corresponding dst value
// entirely (spec §6).
func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, sv := range src {
		if dv, ok := out[k]; ok {
			dstMap, dstIsMap := dv.(map[string]interface{})
			srcMap, srcIsMap := sv.(map[string]interface{})
			if dstIsMap && srcIsMap {
				out[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		out[k] = sv
	}
	return out
}
