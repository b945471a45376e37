package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/cryptkit/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "config subcommand required")
		return 2
	}

	switch args[0] {
	case "print":
		return runConfigPrint(args[1:])
	case "validate":
		return runConfigValidate(args[1:])
	default:
		fmt.Fprintf(stderr, "unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runConfigPrint(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(stderr, "config print takes no arguments")
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if err := printResolvedConfig(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "print config: %v\n", err)
		return 1
	}
	return 0
}

func printResolvedConfig(out io.Writer, cfg config.Config) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// runConfigValidate checks a single file, or the resolved configuration when
// no path is given.
func runConfigValidate(args []string) int {
	var err error
	switch len(args) {
	case 0:
		_, err = config.Load()
	case 1:
		_, err = config.LoadFile(args[0])
	default:
		fmt.Fprintln(stderr, "config validate takes at most one path")
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "config ok")
	return 0
}
