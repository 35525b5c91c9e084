package main

import (
	"flag"
	"fmt"

	"github.com/typhoon/typhoon-go/codegen"
)

func newGenCommand() *Command {
	genCmd := &Command{
		Name:        "gen",
		Description: "Generate Go construction code for //typhoon:template constants",
		FlagSet:     flag.NewFlagSet("gen", flag.ExitOnError),
	}

	suffix := genCmd.FlagSet.String("suffix", codegen.DefaultSuffix, "Suffix of generated files")
	alias := genCmd.FlagSet.String("alias", "typhoon", "Local name of the typhoon package in generated code")

	genCmd.Run = func() error {
		files, err := expandInputs(genCmd.FlagSet.Args(), ".go")
		if err != nil {
			return err
		}
		if len(files) < 1 {
			return fmt.Errorf("no input files specified")
		}

		written, err := runGen(files, codegen.Options{Alias: *alias}, *suffix)
		if err != nil {
			return err
		}
		logf("Generated %d file(s)", written)
		return nil
	}

	return genCmd
}

func runGen(files []string, opts codegen.Options, suffix string) (int, error) {
	written := 0
	for _, file := range files {
		out, err := codegen.ProcessFile(file, opts, suffix)
		if err != nil {
			return written, fmt.Errorf("generating %s: %w", file, err)
		}
		if out != "" {
			written++
			logf("Wrote %s", out)
		}
	}
	return written, nil
}
