package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/typhoon/typhoon-go/ast"
	"github.com/typhoon/typhoon-go/util"
)

func newDumpCommand() *Command {
	dumpCmd := &Command{
		Name:        "dump",
		Description: "Print the parsed tree of each template",
		FlagSet:     flag.NewFlagSet("dump", flag.ExitOnError),
	}

	positions := dumpCmd.FlagSet.Bool("positions", false, "Include source positions")
	name := dumpCmd.FlagSet.String("name", "", "Dump only the named template")

	dumpCmd.Run = func() error {
		files, err := expandInputs(dumpCmd.FlagSet.Args(), ".go", ".tp")
		if err != nil {
			return err
		}
		if len(files) < 1 {
			return fmt.Errorf("no input files specified")
		}

		dumper := util.NewStdoutASTDumper().WithPositions(*positions)
		for _, file := range files {
			templates, err := loadTemplates(file)
			if err != nil {
				return err
			}
			for _, t := range templates {
				if *name != "" && t.Name != *name {
					continue
				}
				tmpl, err := ast.Parse(t.File, t.Source)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s (%s): %v\n", t.File, t.Name, err)
					continue
				}
				fmt.Printf("%s (%s)\n", t.File, t.Name)
				dumper.DumpTemplate(tmpl)
			}
		}
		return nil
	}

	return dumpCmd
}
