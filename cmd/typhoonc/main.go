package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// Command represents a sub-command of typhoonc
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func() error
}

var (
	// Global flags
	verbose    = flag.Bool("verbose", false, "Show detailed output")
	configPath = flag.String("config", "", "Path to typhoon.yaml or typhoon.json (defaults to ./typhoon.yaml when present)")

	commands = make(map[string]*Command)
)

func main() {
	defineCommands()

	flag.Usage = usage
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		usage()
		os.Exit(1)
	}

	cmd.FlagSet.Parse(args[1:])

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := applyConfig(cfg, cmd.FlagSet); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: typhoonc [-config file] [-verbose] <command> [options]")
	fmt.Fprintln(os.Stderr, "Available commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\t%s\n", name, commands[name].Description)
	}
	flag.PrintDefaults()
}

func defineCommands() {
	for _, cmd := range []*Command{
		newCheckCommand(),
		newGenCommand(),
		newWatchCommand(),
		newRenderCommand(),
		newDumpCommand(),
		newGraphCommand(),
		newStoreCommand(),
	} {
		commands[cmd.Name] = cmd
	}
}

func logf(format string, args ...interface{}) {
	if *verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
