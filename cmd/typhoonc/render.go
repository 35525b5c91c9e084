package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/typhoon/typhoon-go/compiler"
	"github.com/typhoon/typhoon-go/dom"
	"github.com/typhoon/typhoon-go/persist"
)

// cellFlags collects repeated -cell name=key flags
type cellFlags []string

func (c *cellFlags) String() string { return strings.Join(*c, ",") }

func (c *cellFlags) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("cell %q must be name=key", value)
	}
	*c = append(*c, value)
	return nil
}

func newRenderCommand() *Command {
	renderCmd := &Command{
		Name:        "render",
		Description: "Render a template to HTML against an environment file",
		FlagSet:     flag.NewFlagSet("render", flag.ExitOnError),
	}

	envPath := renderCmd.FlagSet.String("env", "", "YAML or JSON file with template values")
	name := renderCmd.FlagSet.String("name", "", "Template to render when the input holds several")
	output := renderCmd.FlagSet.String("output", "", "Output file (default: stdout)")
	var cells cellFlags
	renderCmd.FlagSet.Var(&cells, "cell", "Bind a persisted value as name=key (repeatable)")
	bf := defineBackendFlags(renderCmd.FlagSet)

	renderCmd.Run = func() error {
		args := renderCmd.FlagSet.Args()
		if len(args) != 1 {
			return fmt.Errorf("render takes exactly one input file")
		}

		templates, err := loadTemplates(args[0])
		if err != nil {
			return err
		}
		tmpl, err := selectTemplate(templates, *name)
		if err != nil {
			return err
		}

		env, err := loadEnv(*envPath)
		if err != nil {
			return err
		}
		if len(cells) > 0 {
			if err := bindCells(context.Background(), env, cells, bf); err != nil {
				return err
			}
		}

		html, err := renderTemplate(tmpl, env)
		if err != nil {
			return err
		}
		return outputBytes([]byte(html), *output)
	}

	return renderCmd
}

func renderTemplate(tmpl sourceTemplate, env compiler.Env) (string, error) {
	proc, err := compiler.New(compiler.WithFilename(tmpl.File)).Compile(tmpl.Source)
	if err != nil {
		return "", err
	}
	doc := dom.NewDocument()
	root, err := proc.Run(doc, env)
	if err != nil {
		return "", err
	}
	return dom.HTML(root)
}

// loadEnv reads template values from a YAML or JSON file. An empty path
// yields an empty environment.
func loadEnv(path string) (compiler.Env, error) {
	env := compiler.Env{}
	if path == "" {
		return env, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env: %w", err)
	}
	values := map[string]interface{}{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &values)
	} else {
		err = yaml.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing env %s: %w", path, err)
	}
	for k, v := range values {
		env[k] = v
	}
	return env, nil
}

func bindCells(ctx context.Context, env compiler.Env, cells []string, bf *backendFlags) error {
	backend, err := bf.open()
	if err != nil {
		return err
	}
	defer backend.Close()

	codec, err := bf.codec()
	if err != nil {
		return err
	}

	for _, cell := range cells {
		name, key, _ := strings.Cut(cell, "=")
		value, err := persist.Load[interface{}](ctx, backend, codec, key)
		if errors.Is(err, persist.ErrNotFound) {
			logf("Cell %s: key %s not found, leaving unbound", name, key)
			continue
		}
		if err != nil {
			return err
		}
		env[name] = value
	}
	return nil
}
