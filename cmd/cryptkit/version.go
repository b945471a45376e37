package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/RowanDark/cryptkit/internal/blockmode"
)

var version = "dev"

func versionString() string {
	return fmt.Sprintf("%s %s", productName, version)
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "also print build platform and AES hardware support")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "version takes no arguments")
		return 2
	}
	fmt.Fprintln(stdout, versionString())
	if *verbose {
		fmt.Fprintf(stdout, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(stdout, "aes hardware: %t\n", blockmode.HardwareAES())
	}
	return 0
}
