package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "typhoon.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("gen:\n  suffix: _ui.go\ncheck:\n  fail_on_warn: true\n"), 0644))
	cfg, err := loadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "_ui.go", cfg.Gen.Suffix)
	require.NotNil(t, cfg.Check.FailOnWarn)
	assert.True(t, *cfg.Check.FailOnWarn)

	jsonPath := filepath.Join(dir, "typhoon.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"store":{"backend":"bolt","path":"ui.db"}}`), 0644))
	cfg, err = loadConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Store.Backend)
	assert.Equal(t, "ui.db", cfg.Store.Path)
	assert.Nil(t, cfg.Check.FailOnWarn)
}

func TestApplyConfigCommandLineWins(t *testing.T) {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	suffix := fs.String("suffix", "_tp.go", "")
	alias := fs.String("alias", "typhoon", "")
	require.NoError(t, fs.Parse([]string{"-suffix", "_cli.go"}))

	cfg := &cliConfig{Gen: genConfig{Suffix: "_cfg.go", PackageAlias: "ui"}, Store: storeConfig{Backend: "redis"}}
	require.NoError(t, applyConfig(cfg, fs))

	assert.Equal(t, "_cli.go", *suffix)
	assert.Equal(t, "ui", *alias)
}

func TestApplyConfigBoolAndDuration(t *testing.T) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	failOnWarn := fs.Bool("fail-on-warn", false, "")
	debounce := fs.Duration("debounce", 0, "")
	require.NoError(t, fs.Parse(nil))

	on := true
	require.NoError(t, applyConfig(&cliConfig{Check: checkConfig{FailOnWarn: &on}, Watch: watchConfig{Debounce: "250ms"}}, fs))
	assert.True(t, *failOnWarn)
	assert.Equal(t, "250ms", debounce.String())

	err := applyConfig(&cliConfig{Watch: watchConfig{Debounce: "soon"}}, fs)
	assert.ErrorContains(t, err, "watch.debounce")
}

func TestApplyConfigNil(t *testing.T) {
	assert.NoError(t, applyConfig(nil, flag.NewFlagSet("x", flag.ContinueOnError)))
}
