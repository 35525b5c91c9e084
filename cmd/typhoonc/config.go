package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "typhoon.yaml"

type cliConfig struct {
	Gen    genConfig    `yaml:"gen" json:"gen"`
	Check  checkConfig  `yaml:"check" json:"check"`
	Render renderConfig `yaml:"render" json:"render"`
	Store  storeConfig  `yaml:"store" json:"store"`
	Watch  watchConfig  `yaml:"watch" json:"watch"`
}

type genConfig struct {
	Suffix       string `yaml:"suffix" json:"suffix"`
	PackageAlias string `yaml:"package_alias" json:"package_alias"`
}

type checkConfig struct {
	Fallback   string `yaml:"fallback" json:"fallback"`
	FailOnWarn *bool  `yaml:"fail_on_warn" json:"fail_on_warn"`
}

type renderConfig struct {
	Env string `yaml:"env" json:"env"`
}

type storeConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Path      string `yaml:"path" json:"path"`
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	Codec     string `yaml:"codec" json:"codec"`
}

type watchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

func loadConfig(path string) (*cliConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &cliConfig{}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}
	return cfg, nil
}

// resolveConfig loads path, or the default file when path is empty and the
// default exists. No config is not an error.
func resolveConfig(path string) (*cliConfig, error) {
	if path != "" {
		return loadConfig(path)
	}
	if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return loadConfig(defaultConfigFile)
}

// applyConfig copies config values into the command's flags. Flags set on the
// command line win; flags the command does not define are skipped.
func applyConfig(cfg *cliConfig, flags *flag.FlagSet) error {
	if cfg == nil {
		return nil
	}

	setFlags := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	set := func(name, value string) error {
		if value == "" || setFlags[name] || flags.Lookup(name) == nil {
			return nil
		}
		return flags.Set(name, value)
	}

	if cfg.Watch.Debounce != "" {
		if _, err := time.ParseDuration(cfg.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce: %w", err)
		}
	}

	values := []struct {
		flag  string
		value string
	}{
		{"suffix", cfg.Gen.Suffix},
		{"alias", cfg.Gen.PackageAlias},
		{"fallback", cfg.Check.Fallback},
		{"env", cfg.Render.Env},
		{"backend", cfg.Store.Backend},
		{"path", cfg.Store.Path},
		{"redis-addr", cfg.Store.RedisAddr},
		{"prefix", cfg.Store.Prefix},
		{"codec", cfg.Store.Codec},
		{"debounce", cfg.Watch.Debounce},
	}
	if cfg.Check.FailOnWarn != nil {
		values = append(values, struct {
			flag  string
			value string
		}{"fail-on-warn", strconv.FormatBool(*cfg.Check.FailOnWarn)})
	}

	for _, v := range values {
		if err := set(v.flag, v.value); err != nil {
			return fmt.Errorf("config %s: %w", v.flag, err)
		}
	}
	return nil
}
